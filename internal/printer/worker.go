package printer

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/skylight-cinema/box-office/internal/config"
	"github.com/skylight-cinema/box-office/internal/logger"
)

// Worker consumes queued print jobs from the spool directory.  It is
// the other half of the pipeline's queued mode: the submitter writes
// a descriptor, the worker prints it and leaves a .completed or
// .failed marker that the submitter polls for.  Descriptors already
// handed out are de-duplicated by an in-memory seen-set keyed by
// file name; the entry is dropped again when processing fails before
// reaching a terminal state so the job gets retried on the next scan.
type Worker struct {
	cfg        config.PrinterConfig
	strategies []Strategy
	seen       map[string]struct{}
}

// NewWorker builds a Worker using the production strategy chain.
func NewWorker(cfg config.PrinterConfig) *Worker {
	return NewWorkerWith(cfg, defaultChain(cfg.StrategyTimeout, cfg.FallbackDir))
}

// NewWorkerWith builds a Worker with an explicit strategy chain.
func NewWorkerWith(cfg config.PrinterConfig, strategies []Strategy) *Worker {
	return &Worker{cfg: cfg, strategies: strategies, seen: make(map[string]struct{})}
}

// Run scans the spool directory on a fixed interval until the context
// is cancelled.  Crash recovery is free: descriptors left behind by a
// dead worker are ordinary unseen files on the next start.
func (w *Worker) Run(ctx context.Context) {
	logger.Info("print worker started",
		zap.String("spool_dir", w.cfg.SpoolDir),
		zap.Duration("interval", w.cfg.PollInterval))

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("print worker stopped")
			return
		case <-ticker.C:
			w.scan(ctx)
		}
	}
}

// scan processes every unseen descriptor currently in the spool.
func (w *Worker) scan(ctx context.Context) {
	entries, err := os.ReadDir(w.cfg.SpoolDir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("print worker: read spool dir failed", zap.Error(err))
		}
		return
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !isDescriptor(name) {
			continue
		}
		if _, ok := w.seen[name]; ok {
			continue
		}
		w.seen[name] = struct{}{}
		w.process(ctx, name)
	}
}

func isDescriptor(name string) bool {
	return strings.HasPrefix(name, descriptorPrefix) &&
		strings.HasSuffix(name, ".json")
}

// process prints one descriptor and leaves the marker the submitter
// is waiting on.  The descriptor is removed once a marker exists.
func (w *Worker) process(ctx context.Context, name string) {
	path := filepath.Join(w.cfg.SpoolDir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		// The submitter may have reclaimed the descriptor after its
		// polling budget ran out; un-see it and let the next scan decide.
		logger.Warn("print worker: read descriptor failed",
			zap.String("file", name), zap.Error(err))
		delete(w.seen, name)
		return
	}
	var desc jobDescriptor
	if err := json.Unmarshal(data, &desc); err != nil {
		logger.Warn("print worker: bad descriptor",
			zap.String("file", name), zap.Error(err))
		delete(w.seen, name)
		return
	}

	logger.Info("print worker: printing job",
		zap.String("job_id", desc.ID), zap.String("device", desc.Payload.Device))

	marker := path + markerCompleted
	var body string
	if err := RunChain(ctx, w.strategies, desc.Payload); err != nil {
		marker = path + markerFailed
		body = err.Error()
		logger.Error("print worker: job failed",
			zap.String("job_id", desc.ID), zap.Error(err))
	}
	if err := os.WriteFile(marker, []byte(body), 0o644); err != nil {
		logger.Error("print worker: write marker failed",
			zap.String("file", marker), zap.Error(err))
		delete(w.seen, name) // retry the whole job next scan
		return
	}
	_ = os.Remove(path)
}
