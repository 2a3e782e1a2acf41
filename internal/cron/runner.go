package cronrunner

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runner owns the process scheduler. Jobs receive the runner's base context
// so process shutdown cancels in-flight work.
type Runner struct {
	cron    *cron.Cron
	logger  *zap.Logger
	baseCtx context.Context
}

func New(logger *zap.Logger, baseCtx context.Context) *Runner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &Runner{
		cron:    cron.New(),
		logger:  logger,
		baseCtx: baseCtx,
	}
}

// Every schedules job at a fixed interval. The first run happens one full
// interval after Start, not immediately; callers wanting an immediate pass
// invoke the job themselves before starting the runner.
func (r *Runner) Every(interval time.Duration, name string, job func(context.Context)) cron.EntryID {
	return r.cron.Schedule(cron.Every(interval), cron.FuncJob(func() {
		if r.logger != nil {
			r.logger.Debug("cron job firing", zap.String("job", name))
		}
		job(r.baseCtx)
	}))
}

func (r *Runner) Start() {
	if r.logger != nil {
		r.logger.Info("cron started")
	}
	r.cron.Start()
}

func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	if r.logger != nil {
		r.logger.Info("cron stopped")
	}
}
