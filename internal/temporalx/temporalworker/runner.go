package temporalworker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/activity"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/yungbote/lifeline-backend/internal/jobs/ingest"
	"github.com/yungbote/lifeline-backend/internal/platform/logger"
	"github.com/yungbote/lifeline-backend/internal/temporalx"
	"github.com/yungbote/lifeline-backend/internal/temporalx/ingestrun"
	"github.com/yungbote/lifeline-backend/internal/utils"
)

// Runner owns the Temporal worker that executes ingestion workflows.
type Runner struct {
	log  *logger.Logger
	tc   temporalsdkclient.Client
	deps ingest.Deps
}

func NewRunner(log *logger.Logger, tc temporalsdkclient.Client, deps ingest.Deps) (*Runner, error) {
	if tc == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	return &Runner{log: log, tc: tc, deps: deps}, nil
}

// Start brings the worker up, retrying transient start failures with capped
// backoff. It returns once the worker is polling; the worker stops when ctx
// is canceled.
func (r *Runner) Start(ctx context.Context) error {
	if r == nil || r.tc == nil {
		return fmt.Errorf("temporal worker not initialized")
	}

	cfg := temporalx.LoadConfig()
	if r.log != nil {
		r.log.Info("Starting Temporal worker", "address", cfg.Address, "namespace", cfg.Namespace, "task_queue", cfg.TaskQueue)
	}

	maxWait := 60 * time.Second
	backoff := 250 * time.Millisecond
	backoffMax := 5 * time.Second
	deadline := time.Now().Add(maxWait)

	for attempt := 1; ; attempt++ {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		w := r.newWorker(cfg)
		startErr := w.Start()
		if startErr == nil {
			if ctx != nil {
				go func() {
					<-ctx.Done()
					w.Stop()
				}()
			}
			if r.log != nil {
				r.log.Info("Temporal worker started", "namespace", cfg.Namespace, "task_queue", cfg.TaskQueue, "attempts", attempt)
			}
			return nil
		}

		w.Stop()

		if time.Now().After(deadline) {
			var nfe *serviceerror.NamespaceNotFound
			if errors.As(startErr, &nfe) {
				return fmt.Errorf("temporal namespace not found (namespace=%s): %w", cfg.Namespace, startErr)
			}
			return startErr
		}

		if r.log != nil {
			r.log.Warn("Temporal worker failed to start; retrying", "namespace", cfg.Namespace, "task_queue", cfg.TaskQueue, "attempt", attempt, "error", startErr)
		}

		sleep := backoff
		for i := 1; i < attempt; i++ {
			sleep *= 2
			if sleep >= backoffMax {
				sleep = backoffMax
				break
			}
		}
		time.Sleep(sleep)
	}
}

func (r *Runner) newWorker(cfg temporalx.Config) worker.Worker {
	concurrency := utils.GetEnvAsInt("WORKER_CONCURRENCY", 4, r.log)
	if concurrency < 1 {
		concurrency = 1
	}

	w := worker.New(r.tc, cfg.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     concurrency,
		MaxConcurrentWorkflowTaskExecutionSize: concurrency,
	})

	acts := &ingestrun.Activities{Deps: r.deps}
	w.RegisterWorkflowWithOptions(ingestrun.Workflow, workflow.RegisterOptions{Name: ingestrun.WorkflowName})
	w.RegisterActivityWithOptions(acts.RunPhase, activity.RegisterOptions{Name: ingestrun.ActivityRunPhase})
	w.RegisterActivityWithOptions(acts.MarkReady, activity.RegisterOptions{Name: ingestrun.ActivityMarkReady})
	w.RegisterActivityWithOptions(acts.MarkFailed, activity.RegisterOptions{Name: ingestrun.ActivityMarkFail})
	return w
}
