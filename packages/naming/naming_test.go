package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "host", input: "example.com", want: "example_com"},
		{name: "path", input: "api/users", want: "api_users"},
		{name: "leading digit", input: "123abc", want: "_123abc"},
		{name: "run of punctuation", input: "a--//b", want: "a_b"},
		{name: "doubled underscores", input: "a__b", want: "a_b"},
		{name: "unicode letters", input: "héllo wörld", want: "héllo_wörld"},
		{name: "only punctuation", input: "...", want: ""},
		{name: "single underscore", input: "_", want: "_"},
		{name: "underscore among punctuation", input: "-_-", want: "_"},
		{name: "empty", input: "", want: ""},
		{name: "ip address", input: "10.0.0.1", want: "_10_0_0_1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.input))
		})
	}
}

func TestSanitize_Deterministic(t *testing.T) {
	assert.Equal(t, Sanitize("a.b-c/d"), Sanitize("a.b-c/d"))
}

func TestIdentifier(t *testing.T) {
	assert.Equal(t, "x_y", Identifier("", "...", "x.y"))
	assert.Equal(t, "first", Identifier("first", "second"))
	assert.Equal(t, Fallback, Identifier("", "!!!"))
}

func TestTaskName(t *testing.T) {
	tests := []struct {
		name     string
		seq      int
		method   string
		segments []string
		host     string
		want     string
	}{
		{
			name:     "simple path",
			seq:      0,
			method:   "GET",
			segments: []string{"api", "users"},
			host:     "example.com",
			want:     "task_000000_GET_api_users",
		},
		{
			name:   "empty path falls back to host",
			seq:    7,
			method: "post",
			host:   "example.com",
			want:   "task_000007_POST_example_com",
		},
		{
			name:     "encoded segment",
			seq:      3,
			method:   "GET",
			segments: []string{"a b"},
			host:     "h",
			want:     "task_000003_GET_a_20b",
		},
		{
			name:     "punctuation segment",
			seq:      1,
			method:   "GET",
			segments: []string{"!!!"},
			host:     "...",
			want:     "task_000001_GET_21_21_21",
		},
		{
			name:     "underscore segment",
			seq:      0,
			method:   "GET",
			segments: []string{"_"},
			host:     "example.com",
			want:     "task_000000_GET_",
		},
		{
			name:   "nothing usable",
			seq:    2,
			method: "GET",
			host:   "...",
			want:   "task_000002_GET_root",
		},
		{
			name:     "large sequence",
			seq:      1234567,
			method:   "DELETE",
			segments: []string{"v1", "items", "42"},
			host:     "h",
			want:     "task_1234567_DELETE_v1_items_42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TaskName(tt.seq, tt.method, tt.segments, tt.host))
		})
	}
}

func TestHostFile(t *testing.T) {
	assert.Equal(t, "api_example_com", HostFile("api.example.com"))
	assert.Equal(t, "host", HostFile("..."))
}

func TestQuote(t *testing.T) {
	assert.Equal(t, "http%3A//example.com", Quote("http://example.com", "/"))
	assert.Equal(t, "a%20b~", Quote("a b~", ""))
	assert.Equal(t, "%C3%A9", Quote("é", ""))
	assert.Equal(t, "users", Quote("users", ""))
}

func TestQuotePlus(t *testing.T) {
	assert.Equal(t, "http%3A%2F%2Fexample.com", QuotePlus("http://example.com"))
	assert.Equal(t, "a+b%2Fc", QuotePlus("a b/c"))
}
