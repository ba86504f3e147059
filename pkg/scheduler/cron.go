package scheduler

import (
	"context"
	"time"

	"RuralCare/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Job interface{ Run(ctx context.Context) error }

type FuncJob func(ctx context.Context) error

func (f FuncJob) Run(ctx context.Context) error { return f(ctx) }

// cronLogger 把 cron 内部日志转到 zap
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Lg.Sugar().Debugw("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Lg.Sugar().Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}

type Cron struct {
	c       *cron.Cron
	loc     *time.Location
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
}

// NewCron 任务 panic 会被恢复；上一次未结束时跳过本次。
// timeout 为单次执行的上限，0 表示不限
func NewCron(loc *time.Location, timeout time.Duration) *Cron {
	if loc == nil {
		loc = time.Local
	}
	l := cronLogger{}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
	)
	ctx, cancel := context.WithCancel(context.Background())
	return &Cron{c: c, loc: loc, ctx: ctx, cancel: cancel, timeout: timeout}
}

func (cr *Cron) Start() { cr.c.Start() }

// Stop 取消正在执行的任务并等待其返回
func (cr *Cron) Stop() {
	cr.cancel()
	<-cr.c.Stop().Done()
}

// Add 注册任务，name 用于日志
func (cr *Cron) Add(name, expr string, job Job) (cron.EntryID, error) {
	return cr.c.AddFunc(expr, func() { cr.run(name, job) })
}

func (cr *Cron) run(name string, job Job) {
	ctx := cr.ctx
	if cr.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cr.timeout)
		defer cancel()
	}
	start := time.Now()
	if err := job.Run(ctx); err != nil {
		logger.Warn("scheduled job failed", zap.String("job", name), zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return
	}
	logger.Info("scheduled job finished", zap.String("job", name), zap.Duration("elapsed", time.Since(start)))
}

func (cr *Cron) Entries() []cron.Entry { return cr.c.Entries() }
