package printer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skylight-cinema/box-office/internal/config"
	"github.com/skylight-cinema/box-office/internal/logger"
	"github.com/skylight-cinema/box-office/internal/model"
)

// Pipeline accepts render-ready ticket payloads and drives them
// through the strategy chain.  Job records live in process memory;
// they are operational visibility, not durable history.
type Pipeline struct {
	cfg        config.PrinterConfig
	strategies []Strategy

	mu   sync.Mutex
	jobs []*model.PrintJob
}

// NewPipeline builds a Pipeline with the production strategy chain.
func NewPipeline(cfg config.PrinterConfig) *Pipeline {
	return NewPipelineWith(cfg, defaultChain(cfg.StrategyTimeout, cfg.FallbackDir))
}

// NewPipelineWith builds a Pipeline with an explicit strategy chain.
// Used by tests and by deployments with exotic printers.
func NewPipelineWith(cfg config.PrinterConfig, strategies []Strategy) *Pipeline {
	return &Pipeline{cfg: cfg, strategies: strategies}
}

// Submit runs one print job and returns its id once the job has
// reached a terminal state.  In inline mode the strategy chain is
// executed synchronously.  In queued mode the job descriptor is
// written to the spool directory for the worker process; if no
// completion or failure marker appears within the polling budget the
// job falls back to inline delivery, so a dead worker degrades
// service rather than dropping tickets.
func (p *Pipeline) Submit(ctx context.Context, payload model.PrintPayload) (string, error) {
	if payload.Device == "" {
		payload.Device = p.cfg.DefaultDevice
	}
	job := &model.PrintJob{
		ID:        uuid.NewString(),
		Payload:   payload,
		Status:    model.PrintPending,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	p.mu.Lock()
	p.jobs = append(p.jobs, job)
	p.mu.Unlock()

	if p.cfg.Mode == config.PrintModeQueued {
		if done := p.submitQueued(ctx, job); done {
			return job.ID, nil
		}
		logger.Warn("queued print timed out, falling back to inline",
			zap.String("job_id", job.ID))
	}

	p.runInline(ctx, job)
	return job.ID, nil
}

// runInline executes the strategy chain for a job and records the
// terminal state.
func (p *Pipeline) runInline(ctx context.Context, job *model.PrintJob) {
	p.setStatus(job, model.PrintProcessing, "")
	if err := RunChain(ctx, p.strategies, job.Payload); err != nil {
		p.setStatus(job, model.PrintFailed, err.Error())
		return
	}
	p.setStatus(job, model.PrintCompleted, "")
}

// submitQueued writes the job descriptor and polls for a marker.  It
// returns true when the worker reached a terminal state in time.
func (p *Pipeline) submitQueued(ctx context.Context, job *model.PrintJob) bool {
	name, err := writeDescriptor(p.cfg.SpoolDir, job)
	if err != nil {
		logger.Warn("write print descriptor failed", zap.Error(err))
		return false
	}
	p.setStatus(job, model.PrintProcessing, "")

	descriptor := filepath.Join(p.cfg.SpoolDir, name)
	completed := descriptor + markerCompleted
	failed := descriptor + markerFailed

	for i := 0; i < p.cfg.PollAttempts; i++ {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(p.cfg.PollInterval):
		}
		if _, err := os.Stat(completed); err == nil {
			consumeMarker(completed, descriptor)
			p.setStatus(job, model.PrintCompleted, "")
			return true
		}
		if _, err := os.Stat(failed); err == nil {
			msg := readMarker(failed)
			consumeMarker(failed, descriptor)
			p.setStatus(job, model.PrintFailed, msg)
			return true
		}
	}
	// No marker in time: reclaim the descriptor so the worker cannot
	// print it a second time after we fall back.
	_ = os.Remove(descriptor)
	return false
}

// QueueStatus is a read-only snapshot for operational visibility.
type QueueStatus struct {
	QueueLength int              `json:"queue_length"`
	Jobs        []model.PrintJob `json:"jobs"`
}

// GetQueueStatus returns the in-memory job list and the number of
// jobs not yet terminal.
func (p *Pipeline) GetQueueStatus() QueueStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := QueueStatus{Jobs: make([]model.PrintJob, 0, len(p.jobs))}
	for _, j := range p.jobs {
		if j.Status == model.PrintPending || j.Status == model.PrintProcessing {
			st.QueueLength++
		}
		st.Jobs = append(st.Jobs, *j)
	}
	return st
}

func (p *Pipeline) setStatus(job *model.PrintJob, status, errMsg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	job.Status = status
	job.Error = errMsg
	job.UpdatedAt = time.Now().UTC()
}

// RunChain renders the payload to a transient file and tries each
// strategy in order, short-circuiting on the first success.  The
// transient file is scoped to the attempt and removed afterwards no
// matter which strategy won or whether all of them failed.
func RunChain(ctx context.Context, strategies []Strategy, payload model.PrintPayload) error {
	tmp, err := os.CreateTemp("", "boxoffice-ticket-*.txt")
	if err != nil {
		return fmt.Errorf("create payload file: %w", err)
	}
	path := tmp.Name()
	defer os.Remove(path)

	if _, err := tmp.WriteString(payload.Content); err != nil {
		tmp.Close()
		return fmt.Errorf("write payload file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close payload file: %w", err)
	}

	var lastErr error
	for _, s := range strategies {
		if err := s.Attempt(ctx, path, payload.Device); err != nil {
			logger.Debug("print strategy failed",
				zap.String("strategy", s.Name()), zap.Error(err))
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("all print strategies failed: %w", lastErr)
}

// jobDescriptor is the on-disk form of a queued print job.
type jobDescriptor struct {
	ID        string             `json:"id"`
	Payload   model.PrintPayload `json:"payload"`
	Timestamp time.Time          `json:"timestamp"`
}

const (
	descriptorPrefix = "job-"
	markerCompleted  = ".completed"
	markerFailed     = ".failed"
)

// writeDescriptor serializes a job into the spool directory and
// returns the descriptor's file name.
func writeDescriptor(dir string, job *model.PrintJob) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir spool dir: %w", err)
	}
	data, err := json.Marshal(jobDescriptor{
		ID:        job.ID,
		Payload:   job.Payload,
		Timestamp: job.CreatedAt,
	})
	if err != nil {
		return "", fmt.Errorf("marshal descriptor: %w", err)
	}
	name := descriptorPrefix + job.ID + ".json"
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write descriptor: %w", err)
	}
	return name, nil
}

// consumeMarker removes an observed marker and its descriptor.
func consumeMarker(marker, descriptor string) {
	_ = os.Remove(marker)
	_ = os.Remove(descriptor)
}

// readMarker returns the marker file's content, used for the failure
// message a worker leaves behind.
func readMarker(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}
