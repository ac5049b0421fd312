package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/locustgen/packages/export"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	Source  string        `json:"source,omitempty"`
	Flows   int           `json:"flows"`
	Skipped int           `json:"skipped"`
	Files   []export.File `json:"files"`
	Time    string        `json:"time"`
}

// JSONError is written by FormatError
type JSONError struct {
	Error string `json:"error"`
}

// JSONFormatter formats reports as JSON
type JSONFormatter struct {
	writer io.Writer
	now    func() time.Time
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func WithJSONWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatReport(report *Report) error {
	out := JSONOutput{
		Source:  report.Source,
		Flows:   report.Flows,
		Skipped: report.Skipped,
		Files:   report.Files,
		Time:    f.now().UTC().Format(time.RFC3339),
	}
	if out.Files == nil {
		out.Files = []export.File{}
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

func (f *JSONFormatter) FormatError(err error) {
	encoder := json.NewEncoder(f.writer)
	_ = encoder.Encode(JSONError{Error: err.Error()})
}
