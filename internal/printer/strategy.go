// Package printer drives physical ticket production through an
// ordered chain of platform print strategies with graceful
// degradation to a manual fallback, plus an optional file-queue
// worker mode.
package printer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/skylight-cinema/box-office/internal/logger"
)

// Strategy is one way of getting a rendered ticket file onto paper.
// Attempt returns nil on success; any error makes the pipeline fall
// through to the next strategy in the chain.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, payloadFile, device string) error
}

// defaultChain builds the production strategy order: CUPS spooler
// with an explicit destination, the BSD print command, a bare lp call
// relying on the system default printer, and finally the manual
// fallback, which cannot fail short of a disk error.
func defaultChain(timeout time.Duration, fallbackDir string) []Strategy {
	return []Strategy{
		&commandStrategy{name: "lp-device", timeout: timeout, args: func(file, device string) []string {
			return []string{"lp", "-d", device, file}
		}},
		&commandStrategy{name: "lpr", timeout: timeout, args: func(file, device string) []string {
			return []string{"lpr", "-P", device, file}
		}},
		&commandStrategy{name: "lp-default", timeout: timeout, args: func(file, _ string) []string {
			return []string{"lp", file}
		}},
		&fallbackStrategy{dir: fallbackDir},
	}
}

// commandStrategy shells out to an OS print command.  The command is
// bounded by a timeout so a hung spooler cannot stall the chain, and
// anything written to stderr counts as a failure even on a zero exit
// code; lp is known to exit 0 while reporting scheduler errors.
type commandStrategy struct {
	name    string
	timeout time.Duration
	args    func(payloadFile, device string) []string
}

func (s *commandStrategy) Name() string { return s.name }

func (s *commandStrategy) Attempt(ctx context.Context, payloadFile, device string) error {
	argv := s.args(payloadFile, device)
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, argv[0], argv[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w (stderr: %s)", argv[0], err, stderr.String())
	}
	if stderr.Len() > 0 {
		return fmt.Errorf("%s: wrote to stderr: %s", argv[0], stderr.String())
	}
	return nil
}

// fallbackStrategy parks the payload in a well-known directory for an
// operator to print by hand.  From the pipeline's point of view this
// always succeeds; the only true failure left is being unable to
// write the file at all.
type fallbackStrategy struct {
	dir string
}

func (s *fallbackStrategy) Name() string { return "manual-fallback" }

func (s *fallbackStrategy) Attempt(_ context.Context, payloadFile, device string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir fallback dir: %w", err)
	}
	data, err := os.ReadFile(payloadFile)
	if err != nil {
		return fmt.Errorf("read payload: %w", err)
	}
	dest := filepath.Join(s.dir, fmt.Sprintf("ticket-%d.txt", time.Now().UnixNano()))
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("write fallback file: %w", err)
	}
	logger.Warn("all print strategies failed; ticket parked for manual printing",
		zap.String("file", dest), zap.String("device", device))
	return nil
}
