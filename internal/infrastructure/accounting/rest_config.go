package accounting

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/erp/fincore/internal/infrastructure/config"
)

// DefaultRequestTimeout bounds a request when the caller's context has no deadline
const DefaultRequestTimeout = 30 * time.Second

// Errors for REST platform configuration
var (
	ErrRESTConfigMissingBaseURL = errors.New("accounting: base URL is required")
	ErrRESTConfigInvalidBaseURL = errors.New("accounting: base URL must be an absolute http(s) URL")
	ErrRESTConfigMissingAPIKey  = errors.New("accounting: API key is required")
)

// RESTConfig holds the credentials for one REST accounting endpoint
type RESTConfig struct {
	// BaseURL is the API root, e.g. https://ledger.example.com/api
	BaseURL string
	// APIKey is sent as a bearer token
	APIKey string
	// Timeout is the HTTP client timeout
	Timeout time.Duration
}

// FromPlatformConfig builds the default credentials of a configured platform
func FromPlatformConfig(p config.PlatformConfig) *RESTConfig {
	return &RESTConfig{
		BaseURL: p.BaseURL,
		APIKey:  p.APIKey,
		Timeout: DefaultRequestTimeout,
	}
}

// Validate validates the REST configuration
func (c *RESTConfig) Validate() error {
	if c.BaseURL == "" {
		return ErrRESTConfigMissingBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrRESTConfigInvalidBaseURL
	}
	if c.APIKey == "" {
		return ErrRESTConfigMissingAPIKey
	}
	return nil
}

func (c *RESTConfig) endpoint(path ...string) string {
	parts := make([]string, 0, len(path)+1)
	parts = append(parts, strings.TrimRight(c.BaseURL, "/"))
	for _, p := range path {
		parts = append(parts, url.PathEscape(p))
	}
	return strings.Join(parts, "/")
}
