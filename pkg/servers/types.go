package servers

import (
	"context"
	"net/http"

	"github.com/qmdx00/lifecycle"
	"github.com/robfig/cron/v3"
)

var (
	_ Server     = (*httpServer)(nil)
	_ Server     = (*baseServer)(nil)
	_ Server     = (*cronServer)(nil)
	_ CronServer = (*cron.Cron)(nil)
)

type Server interface {
	lifecycle.Server
}

// CronServer is the scheduler surface of *cron.Cron.
type CronServer interface {
	Start()
	Stop() context.Context
}

//

var (
	_ BuildHttpServerFn = BuildHttpServer
	_ BuildCronServerFn = BuildCronServer
)

type BuildHttpServerFn func(name string, server *http.Server) (string, Server)

type BuildCronServerFn func(name string, scheduler CronServer) (string, Server)
