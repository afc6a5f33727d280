package servers

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"eventmappr/pkg/resources"
)

// Start runs server in its own goroutine. A Run error is forwarded to errChan
// without blocking. The returned StopFn stops the server within the timeout.
func Start(ctx context.Context, name string, server Server, errChan chan<- error) resources.StopFn {
	go func() {
		err := server.Run(ctx)
		if err == nil {
			return
		}

		select {
		case errChan <- err:
		default:
			log.Ctx(ctx).Error().Str("component", name).Err(err).Msg("runtime error dropped, error channel full")
		}
	}()

	return func(ctx context.Context, timeout time.Duration) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		_ = server.Stop(ctx)
	}
}
