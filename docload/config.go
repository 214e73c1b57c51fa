package docload

import "log/slog"

// Config controls document loading behaviour.
type Config struct {
	// MaxFileSize is the maximum accepted input size in bytes (default 100MB).
	MaxFileSize int64

	// OCR, when set and available, lets PDF extraction rebuild scanned
	// documents through an OCR pass. Nil disables OCR entirely.
	OCR OCR

	// OCRMargin is the relative score improvement an OCR rebuild must show
	// over the best native extraction before it replaces it (default 0.10,
	// i.e. OCR wins only when more than 10% better).
	OCRMargin float64

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.MaxFileSize == 0 {
		c.MaxFileSize = 100 * 1024 * 1024
	}
	if c.OCRMargin == 0 {
		c.OCRMargin = 0.10
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
