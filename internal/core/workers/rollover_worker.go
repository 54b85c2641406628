package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultRolloverSpec fires five seconds after local midnight.
const DefaultRolloverSpec = "5 0 0 * * *"

// Reloader refreshes the derived fields of loaded namespaces.
type Reloader interface {
	Namespaces() []string
	Reload(ctx context.Context, namespace string) error
}

// RolloverWorker reloads every loaded namespace when the local day changes, so
// cached progress and streaks reflect the new day without a client request.
type RolloverWorker struct {
	reloader Reloader
	logger   *zap.Logger
	spec     string
	cron     *cron.Cron
	jobs     chan string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRolloverWorker(reloader Reloader, logger *zap.Logger, spec string, loc *time.Location) *RolloverWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if spec == "" {
		spec = DefaultRolloverSpec
	}
	if loc == nil {
		loc = time.Local
	}
	return &RolloverWorker{
		reloader: reloader,
		logger:   logger,
		spec:     spec,
		cron:     cron.New(cron.WithLocation(loc), cron.WithSeconds()),
		jobs:     make(chan string, 100),
	}
}

func (w *RolloverWorker) Start(ctx context.Context) error {
	if _, err := w.cron.AddFunc(w.spec, w.EnqueueAll); err != nil {
		return fmt.Errorf("rollover worker: invalid schedule %q: %w", w.spec, err)
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.logger.Info("rollover worker started", zap.String("schedule", w.spec))
		for {
			select {
			case ns := <-w.jobs:
				w.process(ctx, ns)
			case <-ctx.Done():
				w.logger.Info("rollover worker shutting down")
				return
			}
		}
	}()

	w.cron.Start()
	return nil
}

// Stop halts the schedule and waits for the running job to finish.
func (w *RolloverWorker) Stop() {
	<-w.cron.Stop().Done()
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

func (w *RolloverWorker) Enqueue(namespace string) {
	select {
	case w.jobs <- namespace:
	default:
		w.logger.Warn("rollover queue full, dropping job", zap.String("namespace", namespace))
	}
}

func (w *RolloverWorker) EnqueueAll() {
	for _, ns := range w.reloader.Namespaces() {
		w.Enqueue(ns)
	}
}

func (w *RolloverWorker) process(ctx context.Context, namespace string) {
	if err := w.reloader.Reload(ctx, namespace); err != nil {
		w.logger.Error("failed to refresh namespace", zap.String("namespace", namespace), zap.Error(err))
		return
	}
	w.logger.Debug("namespace refreshed", zap.String("namespace", namespace))
}
