// Package sequence issues the sequential printable ticket numbers.
// The counter is a single durable JSON record owned by this process;
// it is loaded once at startup and rewritten on every issuance so the
// sequence survives restarts.
package sequence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/skylight-cinema/box-office/internal/logger"
)

// ErrNegativeValue is returned by Reset for values below zero.
var ErrNegativeValue = errors.New("sequence value must not be negative")

// State is the durable counter record.  The visible ticket string is
// always Prefix + CurrentID left-padded to Padding digits.
type State struct {
	CurrentID int64  `json:"current_id"`
	Prefix    string `json:"prefix"`
	Padding   int    `json:"padding"`
}

// Issuer hands out monotonically increasing ticket numbers.  All
// access is serialized by a mutex so no two callers can observe the
// same pre-increment value.
type Issuer struct {
	mu    sync.Mutex
	state State
	path  string
}

// Load reads the counter file at path, or starts from zero with the
// given prefix and padding when the file does not exist yet.
func Load(path, prefix string, padding int) (*Issuer, error) {
	iss := &Issuer{
		state: State{CurrentID: 0, Prefix: prefix, Padding: padding},
		path:  path,
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return iss, nil
		}
		return nil, fmt.Errorf("read sequence file: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse sequence file: %w", err)
	}
	if st.Prefix == "" {
		st.Prefix = prefix
	}
	if st.Padding <= 0 {
		st.Padding = padding
	}
	iss.state = st
	return iss, nil
}

// Next increments the counter, persists the new state and returns the
// formatted ticket number.  A persistence failure is logged but not
// surfaced: the in-memory counter has already advanced, the worst
// case after a crash is a repeated ticket number, and halting sales
// over it is not acceptable at the counter.
func (i *Issuer) Next() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.state.CurrentID++
	if err := i.persist(); err != nil {
		logger.Error("persist ticket sequence failed",
			zap.Int64("current_id", i.state.CurrentID), zap.Error(err))
	}
	return i.format(i.state.CurrentID)
}

// Current returns the formatted ticket number for the present counter
// value without advancing it.
func (i *Issuer) Current() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.format(i.state.CurrentID)
}

// Reset overwrites the counter with an arbitrary non-negative value
// and persists immediately.  Used by the administrative endpoint, for
// example at the start of a financial year.
func (i *Issuer) Reset(value int64) error {
	if value < 0 {
		return ErrNegativeValue
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.state.CurrentID = value
	return i.persist()
}

// Config returns a snapshot of the counter state.
func (i *Issuer) Config() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

func (i *Issuer) format(id int64) string {
	return fmt.Sprintf("%s%0*d", i.state.Prefix, i.state.Padding, id)
}

// persist writes the state file, creating the parent directory on
// first use.  Callers must hold the mutex.
func (i *Issuer) persist() error {
	if dir := filepath.Dir(i.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir sequence dir: %w", err)
		}
	}
	data, err := json.Marshal(i.state)
	if err != nil {
		return fmt.Errorf("marshal sequence state: %w", err)
	}
	if err := os.WriteFile(i.path, data, 0o644); err != nil {
		return fmt.Errorf("write sequence file: %w", err)
	}
	return nil
}
