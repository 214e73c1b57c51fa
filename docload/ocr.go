package docload

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// OCR rebuilds a scanned PDF into one carrying a proper text layer.
// Implementations must be safe to call concurrently.
type OCR interface {
	// Available reports whether the OCR engine can run on this host.
	Available() bool

	// Rebuild runs OCR over the input PDF and returns the rebuilt file.
	Rebuild(ctx context.Context, pdf []byte) ([]byte, error)
}

// CommandOCR shells out to an ocrmypdf-compatible binary.
type CommandOCR struct {
	// Binary is the executable name (default "ocrmypdf").
	Binary string

	// Args are appended before the input/output paths, e.g. language flags.
	Args []string

	Logger *slog.Logger
}

func (c *CommandOCR) binary() string {
	if c.Binary != "" {
		return c.Binary
	}
	return "ocrmypdf"
}

func (c *CommandOCR) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// Available probes the PATH for the OCR binary.
func (c *CommandOCR) Available() bool {
	_, err := exec.LookPath(c.binary())
	return err == nil
}

// Rebuild writes the PDF to a scratch dir, runs the binary with
// --force-ocr so an existing broken text layer gets replaced, and reads
// the rebuilt file back.
func (c *CommandOCR) Rebuild(ctx context.Context, pdf []byte) ([]byte, error) {
	dir, err := os.MkdirTemp("", "lector-ocr-*")
	if err != nil {
		return nil, fmt.Errorf("ocr tempdir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "in.pdf")
	out := filepath.Join(dir, "out.pdf")
	if err := os.WriteFile(in, pdf, 0o600); err != nil {
		return nil, fmt.Errorf("ocr write input: %w", err)
	}

	args := []string{"--force-ocr", "--output-type", "pdf"}
	args = append(args, c.Args...)
	args = append(args, in, out)

	cmd := exec.CommandContext(ctx, c.binary(), args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	c.logger().Debug("running ocr", "binary", c.binary(), "bytes", len(pdf))
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ocr %s: %w: %s", c.binary(), err, tailOf(stderr.String()))
	}

	rebuilt, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("ocr read output: %w", err)
	}
	return rebuilt, nil
}

// tailOf keeps the last stderr line, where ocrmypdf puts its verdict.
func tailOf(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	if len(s) > 300 {
		s = s[:300]
	}
	return s
}
