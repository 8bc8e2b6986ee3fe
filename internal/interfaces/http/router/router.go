package router

import (
	"github.com/gin-gonic/gin"
)

// route is one endpoint, relative to its group prefix.
type route struct {
	method  string
	path    string
	handler gin.HandlerFunc
}

// resource is the set of routes served under one prefix.
type resource struct {
	prefix string
	routes []route
}

func (r resource) get(path string, h gin.HandlerFunc) resource  { return r.add("GET", path, h) }
func (r resource) post(path string, h gin.HandlerFunc) resource { return r.add("POST", path, h) }
func (r resource) put(path string, h gin.HandlerFunc) resource  { return r.add("PUT", path, h) }

func (r resource) add(method, path string, h gin.HandlerFunc) resource {
	r.routes = append(r.routes[:len(r.routes):len(r.routes)], route{method: method, path: path, handler: h})
	return r
}

// mountAPI serves resources under /api/<version>. The middleware wraps
// only the versioned routes, so /health and /swagger stay public.
func mountAPI(engine *gin.Engine, version string, middleware []gin.HandlerFunc, resources ...resource) {
	api := engine.Group("/api/"+version, middleware...)
	for _, res := range resources {
		group := api.Group(res.prefix)
		for _, rt := range res.routes {
			group.Handle(rt.method, rt.path, rt.handler)
		}
	}
}
