package finance

import (
	"context"
	"sync"

	"github.com/erp/fincore/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

type pushJob struct {
	name string
	ctx  context.Context
	run  func(ctx context.Context)
}

// dispatcher runs sync pushes in the background. Jobs sharing a key run one
// at a time in submission order; jobs with different keys run concurrently.
// Jobs run on a context detached from the request so a client disconnect
// never aborts a push that follows a committed write.
type dispatcher struct {
	metrics *telemetry.BusinessMetrics
	logger  *zap.Logger

	mu       sync.Mutex
	draining bool
	// pending holds the jobs waiting behind the running one of each busy key
	pending map[string][]pushJob
	wg      sync.WaitGroup
}

func newDispatcher(metrics *telemetry.BusinessMetrics, log *zap.Logger) *dispatcher {
	return &dispatcher{metrics: metrics, logger: log, pending: make(map[string][]pushJob)}
}

// Go schedules job under key. It reports false when Drain has begun and the
// job was dropped; trigger_sync picks such entities up later.
func (d *dispatcher) Go(ctx context.Context, key, name string, job func(ctx context.Context)) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.draining {
		d.logger.Warn("dispatcher draining, push skipped", zap.String("job", name))
		return false
	}

	j := pushJob{name: name, ctx: context.WithoutCancel(ctx), run: job}
	d.wg.Add(1)
	d.metrics.PushStarted(j.ctx)
	if queue, busy := d.pending[key]; busy {
		d.pending[key] = append(queue, j)
		return true
	}
	d.pending[key] = nil
	go d.drainKey(key, j)
	return true
}

// drainKey runs j and then every job queued behind it for key.
func (d *dispatcher) drainKey(key string, j pushJob) {
	for {
		d.run(j)

		d.mu.Lock()
		queue := d.pending[key]
		if len(queue) == 0 {
			delete(d.pending, key)
			d.mu.Unlock()
			return
		}
		j, d.pending[key] = queue[0], queue[1:]
		d.mu.Unlock()
	}
}

func (d *dispatcher) run(j pushJob) {
	defer d.wg.Done()
	defer d.metrics.PushFinished(j.ctx)
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("sync push panicked", zap.String("job", j.name), zap.Any("panic", r))
		}
	}()
	j.run(j.ctx)
}

// Drain stops accepting jobs and waits for the accepted ones or ctx
func (d *dispatcher) Drain(ctx context.Context) error {
	d.mu.Lock()
	d.draining = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until every scheduled job has finished
func (d *dispatcher) Wait() {
	d.wg.Wait()
}
