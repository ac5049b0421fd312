package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/locustgen/packages/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *Report {
	return &Report{
		Source:  "proxy :8080",
		Flows:   3,
		Skipped: 1,
		Files: []export.File{
			{Host: "example.com", Path: "test-example_com.py", Tasks: 2},
			{Host: "api.other.org", Path: "test-api_other_org.py", Tasks: 1},
		},
	}
}

func TestConsoleFormatter_FormatReport(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithVerbose(true))

	require.NoError(t, f.FormatReport(sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "Source: proxy :8080")
	assert.Contains(t, out, "test-example_com.py (2 tasks)")
	assert.Contains(t, out, "Host: api.other.org")
	assert.Contains(t, out, "Flows: 3 recorded, 1 skipped")
	assert.Contains(t, out, "Files: 2")
}

func TestConsoleFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))

	require.NoError(t, f.FormatReport(&Report{}))
	assert.Contains(t, buf.String(), "nothing written")
}

func TestConsoleFormatter_FormatError(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))

	f.FormatError(errors.New("boom"))
	assert.Equal(t, "Error: boom\n", buf.String())
}

func TestJSONFormatter_FormatReport(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(WithJSONWriter(&buf))
	f.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	require.NoError(t, f.FormatReport(sampleReport()))

	var out JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, 3, out.Flows)
	assert.Equal(t, 1, out.Skipped)
	assert.Equal(t, "2024-01-02T03:04:05Z", out.Time)
	require.Len(t, out.Files, 2)
	assert.Equal(t, "example.com", out.Files[0].Host)
}

func TestJSONFormatter_EmptyFiles(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(WithJSONWriter(&buf))

	require.NoError(t, f.FormatReport(&Report{}))
	assert.Contains(t, buf.String(), `"files": []`)
}

func TestJSONFormatter_FormatError(t *testing.T) {
	var buf bytes.Buffer
	NewJSONFormatter(WithJSONWriter(&buf)).FormatError(errors.New("boom"))
	assert.JSONEq(t, `{"error":"boom"}`, buf.String())
}
