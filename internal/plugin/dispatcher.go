package plugin

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Dispatcher fans an event out to every subscribed hook in the background.
// Failures are logged and never reach the game loop.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
	wg       sync.WaitGroup
}

// NewDispatcher creates a dispatcher over discovered hooks.
func NewDispatcher(manager *Manager, executor *Executor) *Dispatcher {
	return &Dispatcher{manager: manager, executor: executor}
}

// Fire runs every hook subscribed to req.Event concurrently and returns
// immediately.
func (d *Dispatcher) Fire(ctx context.Context, req Request) {
	if req.Timestamp == 0 {
		req.Timestamp = time.Now().UnixMilli()
	}

	for _, p := range d.manager.ForEvent(req.Event) {
		d.wg.Add(1)
		go func(p *Plugin) {
			defer d.wg.Done()

			resp, err := d.executor.Execute(ctx, p, &req)
			logger := log.With().Str("plugin", p.Manifest.Name).Str("event", req.Event).Logger()
			switch {
			case err != nil:
				logger.Warn().Err(err).Msg("hook failed")
			case !resp.Success:
				logger.Warn().Str("error", resp.Error).Msg("hook reported failure")
			default:
				logger.Debug().Msg("hook ran")
			}
		}(p)
	}
}

// Wait blocks until every fired hook has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
