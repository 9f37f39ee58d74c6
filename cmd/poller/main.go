package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/serroba/translation-sim/internal/client"
	"github.com/serroba/translation-sim/internal/jobs"
	"go.uber.org/zap"
)

// Options configures a single wait on one job.
type Options struct {
	URL            string `default:"http://localhost:8000" help:"Simulator base URL" short:"u"`
	JobID          string `default:"job123"                help:"Job to wait for"    short:"j"`
	MaxAttempts    int    `default:"10"                    help:"Polls before giving up"`
	InitialDelayMs int    `default:"1000"                  help:"Delay after the first poll in milliseconds"`
	MaxDelayMs     int    `default:"10000"                 help:"Upper bound on the delay between polls in milliseconds"`
	Jitter         bool   `default:"false"                 help:"Randomize delays by 0.5x to 1.5x"`
	MaxTotalTimeMs int    `default:"0"                     help:"Give up after this many milliseconds, 0 for no limit"`
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		logger, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}

		hooks.OnStart(func() {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c := client.New(opts.URL)

			status, err := c.WaitForCompletion(ctx, opts.JobID, client.PollOptions{
				MaxAttempts:  uint(max(opts.MaxAttempts, 0)),
				InitialDelay: time.Duration(opts.InitialDelayMs) * time.Millisecond,
				MaxDelay:     time.Duration(opts.MaxDelayMs) * time.Millisecond,
				Jitter:       opts.Jitter,
				MaxTotalTime: time.Duration(opts.MaxTotalTimeMs) * time.Millisecond,
				OnPoll: func(attempt uint, status jobs.Status) {
					logger.Info("polled", zap.Uint("attempt", attempt), zap.String("status", string(status)))
				},
			})
			if err != nil {
				logger.Error("job did not finish", zap.String("job_id", opts.JobID), zap.Error(err))
				_ = logger.Sync()
				os.Exit(1)
			}

			logger.Info("job finished", zap.String("job_id", opts.JobID), zap.String("status", string(status)))
		})
	})

	cli.Run()
}
