package printer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/uuid"

	"github.com/skylight-cinema/box-office/internal/config"
	"github.com/skylight-cinema/box-office/internal/model"
)

func spoolDescriptor(t *testing.T, dir, content string) string {
	t.Helper()
	job := &model.PrintJob{
		ID:        uuid.NewString(),
		Payload:   model.PrintPayload{TicketNo: "SKY000001", Content: content, Device: "EPSON-TM"},
		CreatedAt: time.Now().UTC(),
	}
	name, err := writeDescriptor(dir, job)
	require.NoError(t, err)
	return name
}

func TestWorkerCompletesJob(t *testing.T) {
	cfg := testPrinterConfig(t, config.PrintModeQueued)
	s := &fakeStrategy{name: "ok"}
	w := NewWorkerWith(cfg, []Strategy{s})

	name := spoolDescriptor(t, cfg.SpoolDir, "ticket body")
	w.scan(context.Background())

	assert.Equal(t, 1, s.attempts)

	path := filepath.Join(cfg.SpoolDir, name)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "descriptor removed after processing")
	_, err = os.Stat(path + markerCompleted)
	assert.NoError(t, err, "completed marker left for the submitter")
}

func TestWorkerLeavesFailedMarkerWithMessage(t *testing.T) {
	cfg := testPrinterConfig(t, config.PrintModeQueued)
	w := NewWorkerWith(cfg, []Strategy{&fakeStrategy{name: "broken", err: errors.New("head jam")}})

	name := spoolDescriptor(t, cfg.SpoolDir, "x")
	w.scan(context.Background())

	marker := filepath.Join(cfg.SpoolDir, name) + markerFailed
	data, err := os.ReadFile(marker)
	require.NoError(t, err)
	assert.Contains(t, string(data), "head jam")
}

func TestWorkerSkipsSeenDescriptors(t *testing.T) {
	cfg := testPrinterConfig(t, config.PrintModeQueued)
	s := &fakeStrategy{name: "ok"}
	w := NewWorkerWith(cfg, []Strategy{s})

	name := spoolDescriptor(t, cfg.SpoolDir, "x")
	w.scan(context.Background())
	require.Equal(t, 1, s.attempts)

	// Recreate a descriptor under the same name; the seen-set still
	// holds it, so a second scan must not attempt again.
	job := &model.PrintJob{ID: name[len("job-") : len(name)-len(".json")], Payload: model.PrintPayload{Content: "x"}}
	_, err := writeDescriptor(cfg.SpoolDir, job)
	require.NoError(t, err)

	w.scan(context.Background())
	assert.Equal(t, 1, s.attempts)
}

func TestWorkerIgnoresForeignFiles(t *testing.T) {
	cfg := testPrinterConfig(t, config.PrintModeQueued)
	s := &fakeStrategy{name: "ok"}
	w := NewWorkerWith(cfg, []Strategy{s})

	require.NoError(t, os.MkdirAll(cfg.SpoolDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.SpoolDir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.SpoolDir, "job-old.json.completed"), nil, 0o644))

	w.scan(context.Background())
	assert.Equal(t, 0, s.attempts)
}

func TestWorkerUnseesBadDescriptor(t *testing.T) {
	cfg := testPrinterConfig(t, config.PrintModeQueued)
	s := &fakeStrategy{name: "ok"}
	w := NewWorkerWith(cfg, []Strategy{s})

	require.NoError(t, os.MkdirAll(cfg.SpoolDir, 0o755))
	bad := filepath.Join(cfg.SpoolDir, "job-bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))

	w.scan(context.Background())
	assert.Equal(t, 0, s.attempts)

	// A fixed descriptor under the same name is picked up again
	// because the bad parse dropped it from the seen-set.
	data := []byte(`{"id":"bad","payload":{"ticket_no":"","content":"fixed","device":""}}`)
	require.NoError(t, os.WriteFile(bad, data, 0o644))

	w.scan(context.Background())
	assert.Equal(t, 1, s.attempts)
}

func TestWorkerRunStopsOnCancel(t *testing.T) {
	cfg := testPrinterConfig(t, config.PrintModeQueued)
	w := NewWorkerWith(cfg, []Strategy{&fakeStrategy{name: "ok"}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on context cancel")
	}
}
