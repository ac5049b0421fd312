package clip

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/locustgen/packages/flow"
	"github.com/abdul-hamid-achik/locustgen/packages/locust"
	"github.com/abdul-hamid-achik/locustgen/packages/logging"
)

type fakeCopier struct {
	text string
	err  error
}

func (f *fakeCopier) WriteAll(text string) error {
	if f.err != nil {
		return f.err
	}
	f.text = text
	return nil
}

func flows(t *testing.T) []*flow.Flow {
	t.Helper()
	var out []*flow.Flow
	for i, raw := range []string{"http://example.com/a", "http://example.com/b"} {
		u, err := url.Parse(raw)
		require.NoError(t, err)
		f := flow.New("GET", u, nil, nil)
		f.Seq = i
		out = append(out, f)
	}
	return out
}

func TestClipper_Task(t *testing.T) {
	copier := &fakeCopier{}
	cl := New(WithCopier(copier), WithLogger(logging.NewNop()))

	text, ok, err := cl.Task(flows(t))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, text, copier.text)
	assert.Contains(t, text, "task_000000_GET_a")
	assert.Contains(t, text, "task_000001_GET_b")
	assert.NotContains(t, text, "class ")
}

func TestClipper_Code(t *testing.T) {
	copier := &fakeCopier{}
	cl := New(
		WithCopier(copier),
		WithLogger(logging.NewNop()),
		WithRenderer(locust.NewRenderer(locust.WithDialect(locust.DialectLegacy))),
	)

	text, ok, err := cl.Code(flows(t))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, text, copier.text)
	assert.Contains(t, text, "class WebsiteUser(HttpLocust)")
	assert.Equal(t, 1, strings.Count(text, locust.AnchorMarker))
}

func TestClipper_CopyFailureIsNotAnError(t *testing.T) {
	cl := New(WithCopier(&fakeCopier{err: errors.New("no xclip")}), WithLogger(logging.NewNop()))

	text, ok, err := cl.Code(flows(t))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NotEmpty(t, text)
}

func TestClipper_NoFlows(t *testing.T) {
	cl := New(WithCopier(&fakeCopier{}), WithLogger(logging.NewNop()))

	_, _, err := cl.Task(nil)
	assert.Error(t, err)
	_, _, err = cl.Code(nil)
	assert.Error(t, err)
}
