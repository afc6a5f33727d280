package servers

import (
	"context"
	"sync"

	"github.com/qmdx00/lifecycle"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

type cronServer struct {
	name         string
	internal     CronServer
	mu           sync.Mutex
	stopped      bool
	closeChannel chan struct{}
}

func BuildCronServer(name string, scheduler CronServer) (string, Server) {
	return name, NewCronServer(name, scheduler)
}

func NewCronServer(name string, scheduler CronServer) lifecycle.Server {
	return &cronServer{
		name:         name,
		internal:     scheduler,
		closeChannel: make(chan struct{}),
	}
}

// NewScheduler registers job under every non-empty spec. Specs follow robfig/cron, seconds field excluded.
func NewScheduler(job func(), specs ...string) (*cron.Cron, error) {
	scheduler := cron.New()

	for _, spec := range specs {
		if spec == "" {
			continue
		}

		_, err := scheduler.AddFunc(spec, job)
		if err != nil {
			return nil, ErrInvalidSchedule(spec, err)
		}
	}

	return scheduler, nil
}

// Run starts the scheduler and blocks until Stop or ctx is done. It returns
// at once when Stop came first.
func (server *cronServer) Run(ctx context.Context) error {
	log.Ctx(ctx).Info().Str("stage", "startup").Str("component", server.name).Msg("starting up")

	server.mu.Lock()
	if server.stopped {
		server.mu.Unlock()
		return nil
	}

	server.internal.Start()
	server.mu.Unlock()

	select {
	case <-server.closeChannel:
	case <-ctx.Done():
		<-server.internal.Stop().Done()
	}

	return nil
}

func (server *cronServer) Stop(ctx context.Context) error {
	log.Ctx(ctx).Info().Str("stage", "shut down").Str("component", server.name).Msg("stopping")
	defer log.Ctx(ctx).Info().Str("stage", "shut down").Str("component", server.name).Msg("stopped")

	server.mu.Lock()
	if server.stopped {
		server.mu.Unlock()
		return nil
	}

	server.stopped = true
	close(server.closeChannel)
	done := server.internal.Stop()
	server.mu.Unlock()

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		log.Ctx(ctx).Error().Str("stage", "shut down").Str("component", server.name).Err(ctx.Err()).Msg("failed to stop")
		return ErrServerFailedToStop(server.name, ctx.Err())
	}
}
