package config

import "time"

// Print pipeline operating modes.
const (
	PrintModeInline = "inline"
	PrintModeQueued = "queued"
)

// PrinterConfig defines settings for the ticket print pipeline.
// DefaultDevice names the spooler destination used when a submission
// carries no device.  In queued mode, jobs are serialized into
// SpoolDir and the submitter waits for PollAttempts polls at
// PollInterval before falling back to inline delivery.  FallbackDir
// is where the manual-print fallback drops payloads that no strategy
// could deliver.  StrategyTimeout bounds each external print command
// so a hung spooler cannot stall the chain.
type PrinterConfig struct {
	Mode            string
	DefaultDevice   string
	SpoolDir        string
	FallbackDir     string
	StrategyTimeout time.Duration
	PollInterval    time.Duration
	PollAttempts    int
}

// LoadPrinterConfig reads environment variables to build a
// PrinterConfig.  Defaults favor inline delivery, the mode used by a
// single-terminal box office.
func LoadPrinterConfig() PrinterConfig {
	cfg := PrinterConfig{
		Mode:            getenv("PRINT_MODE", PrintModeInline),
		DefaultDevice:   getenv("PRINT_DEVICE", "boxoffice"),
		SpoolDir:        getenv("PRINT_SPOOL_DIR", "data/print-spool"),
		FallbackDir:     getenv("PRINT_FALLBACK_DIR", "data/manual-print"),
		StrategyTimeout: parseDur(getenv("PRINT_STRATEGY_TIMEOUT", "20s")),
		PollInterval:    parseDur(getenv("PRINT_POLL_INTERVAL", "1s")),
		PollAttempts:    atoi(getenv("PRINT_POLL_ATTEMPTS", "30")),
	}
	if cfg.Mode != PrintModeQueued {
		cfg.Mode = PrintModeInline
	}
	if cfg.PollAttempts < 1 {
		cfg.PollAttempts = 30
	}
	return cfg
}

// SequenceConfig defines where the ticket counter lives and how
// ticket numbers are rendered.
type SequenceConfig struct {
	FilePath string
	Prefix   string
	Padding  int
}

// LoadSequenceConfig reads environment variables to build a
// SequenceConfig.
func LoadSequenceConfig() SequenceConfig {
	cfg := SequenceConfig{
		FilePath: getenv("TICKET_SEQUENCE_FILE", "data/ticket_sequence.json"),
		Prefix:   getenv("TICKET_PREFIX", "SKY"),
		Padding:  atoi(getenv("TICKET_PADDING", "6")),
	}
	if cfg.Padding < 1 {
		cfg.Padding = 6
	}
	return cfg
}
