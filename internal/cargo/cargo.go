// Package cargo runs the Rust type checker on a crate and turns its JSON diagnostics into
// plain records.
package cargo

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io/fs"
	"os/exec"

	"github.com/cockroachdb/errors"
)

// DefaultBinary is the cargo executable looked up on PATH.
const DefaultBinary = "cargo"

const maxLineBytes = 4 << 20

// Diagnostic is one compiler message.
type Diagnostic struct {
	Level    string
	Rendered string
	File     string
	Line     int
	HasSpan  bool
}

// IsError reports whether the compiler classified the message as an error.
func (d Diagnostic) IsError() bool {
	return d.Level == "error"
}

// Runner invokes `cargo check`.
type Runner struct {
	Binary string
}

// NewRunner creates a runner for the given binary, or cargo from PATH when empty.
func NewRunner(binary string) *Runner {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Runner{Binary: binary}
}

// Check runs `cargo check --message-format=json` in crateDir. A cargo that cannot be found
// yields no diagnostics. A failing check is expected and still parsed.
func (r *Runner) Check(ctx context.Context, crateDir string) ([]Diagnostic, error) {
	cmd := exec.CommandContext(ctx, r.Binary, "check", "--message-format=json")
	cmd.Dir = crateDir
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
			return nil, nil
		case errors.As(err, &exitErr):
			// compile errors exit non-zero; the diagnostics are on stdout
		default:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, errors.Wrap(ctxErr, "cargo check cancelled")
			}
			return nil, errors.Wrapf(err, "run %s check in %s", r.Binary, crateDir)
		}
	}
	return ParseDiagnostics(output)
}

type message struct {
	Reason  string `json:"reason"`
	Message struct {
		Level    string `json:"level"`
		Rendered string `json:"rendered"`
		Spans    []struct {
			FileName  string `json:"file_name"`
			LineStart int    `json:"line_start"`
		} `json:"spans"`
	} `json:"message"`
}

// ParseDiagnostics reads cargo's line-delimited JSON. Lines that are not JSON, and messages
// other than compiler-message, are ignored.
func ParseDiagnostics(output []byte) ([]Diagnostic, error) {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var out []Diagnostic
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var msg message
		if err := json.Unmarshal(line, &msg); err != nil {
			continue
		}
		if msg.Reason != "compiler-message" {
			continue
		}

		d := Diagnostic{
			Level:    msg.Message.Level,
			Rendered: msg.Message.Rendered,
		}
		if d.Level == "" {
			d.Level = "warning"
		}
		if len(msg.Message.Spans) > 0 {
			span := msg.Message.Spans[0]
			d.File = span.FileName
			d.Line = span.LineStart
			d.HasSpan = span.FileName != ""
		}
		out = append(out, d)
	}
	if err := scanner.Err(); err != nil {
		return out, errors.Wrap(err, "read cargo output")
	}
	return out, nil
}
