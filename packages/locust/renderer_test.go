package locust

import (
	"strings"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/locustgen/packages/flow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exampleFlow() *flow.Flow {
	return &flow.Flow{
		Seq:    0,
		Method: "GET",
		Scheme: "http",
		Host:   "example.com",
		Path:   []string{"api", "users"},
		Query:  []flow.Field{{Name: "id", Value: "5"}},
		Header: []flow.Field{
			{Name: "Accept", Value: "*/*"},
			{Name: "Host", Value: "example.com"},
			{Name: "Cookie", Value: "session=abc"},
		},
	}
}

func TestCode_SingleFlow(t *testing.T) {
	code, err := NewRenderer().Code(exampleFlow())
	require.NoError(t, err)

	expected := `# -*- coding: UTF-8 -*-
# Generated by locustgen (template v2)

from locust import HttpUser, SequentialTaskSet, task, between
from urllib.parse import quote, quote_plus


class UserBehavior(SequentialTaskSet):

    @task()
    def task_000000_GET_api_users(self):
        url = self.user.host + '/api/users'

        headers = {
            'Accept': '*/*',
        }

        params = {
            'id': '5',
        }

        self.response = self.client.request(
            method='GET',
            url=url,
            headers=headers,
            params=params,
        )

    ### Additional tasks can go here ###


class WebsiteUser(HttpUser):
    tasks = [UserBehavior]
    wait_time = between(1, 3)
`
	assert.Equal(t, expected, code)
	assert.Equal(t, 1, strings.Count(code, "@task()"))
	assert.NotContains(t, code, "data")
	assert.NotContains(t, code, "http://example.com")
}

func TestCode_Idempotent(t *testing.T) {
	r := NewRenderer()
	f := exampleFlow()
	f.Body = []byte(`{"a":1}`)

	first, err := r.Code(f)
	require.NoError(t, err)
	second, err := r.Code(f)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCode_ExcludesHostAndCookie(t *testing.T) {
	f := exampleFlow()
	f.Header = append(f.Header,
		flow.Field{Name: "cookie", Value: "other=1"},
		flow.Field{Name: "HOST", Value: "example.com"},
		flow.Field{Name: "X-Trace", Value: "t1"},
	)

	code, err := NewRenderer().Code(f)
	require.NoError(t, err)

	assert.Contains(t, code, `'Accept': '*/*',`)
	assert.Contains(t, code, `'X-Trace': 't1',`)
	assert.NotContains(t, strings.ToLower(code), "'host'")
	assert.NotContains(t, strings.ToLower(code), "'cookie'")
	assert.NotContains(t, code, "session=abc")
}

func TestCode_OnlyExcludedHeadersOmitsBlock(t *testing.T) {
	f := exampleFlow()
	f.Header = []flow.Field{{Name: "Host", Value: "example.com"}}

	code, err := NewRenderer().Code(f)
	require.NoError(t, err)

	assert.NotContains(t, code, "headers = {")
	assert.NotContains(t, code, "headers=headers")
}

func TestCode_Body(t *testing.T) {
	f := exampleFlow()
	f.Method = "POST"
	f.Query = nil
	f.Body = []byte(`{"name":"John"}`)

	code, err := NewRenderer().Code(f)
	require.NoError(t, err)

	assert.Contains(t, code, "        data = '''{\"name\":\"John\"}'''\n")
	assert.Contains(t, code, "            data=data,\n")
	assert.Contains(t, code, "def task_000000_POST_api_users(self):")
	assert.NotContains(t, code, "params")
}

func TestCode_RootPath(t *testing.T) {
	f := &flow.Flow{Seq: 12, Method: "GET", Scheme: "https", Host: "example.com"}

	code, err := NewRenderer().Code(f)
	require.NoError(t, err)

	assert.Contains(t, code, "def task_000012_GET_example_com(self):")
	assert.Contains(t, code, "url = self.user.host + '/'\n")
}

func TestTask_URLRoundTrip(t *testing.T) {
	f := exampleFlow()
	f.Path = []string{"files", "a b", "c"}

	task := NewRenderer().Task(f)
	require.True(t, strings.HasPrefix(task.URL, "self.user.host + '"))

	restored := "http://example.com" + strings.TrimSuffix(strings.TrimPrefix(task.URL, "self.user.host + '"), "'")
	assert.Equal(t, "http://example.com/files/a%20b/c", restored)
}

func TestTask_HostPlaceholders(t *testing.T) {
	f := &flow.Flow{
		Method: "GET",
		Scheme: "http",
		Host:   "example.com",
		Query: []flow.Field{
			{Name: "plus", Value: "http%3A%2F%2Fexample.com%2Fx"},
			{Name: "quoted", Value: "http%3A//example.com/y"},
			{Name: "other", Value: "https://elsewhere.org"},
		},
		Header: []flow.Field{{Name: "Referer", Value: "http://example.com/page"}},
	}

	task := NewRenderer().Task(f)

	require.Len(t, task.Headers, 1)
	assert.Equal(t, Entry{Key: "'Referer'", Value: "self.user.host + '/page'"}, task.Headers[0])

	require.Len(t, task.Params, 3)
	assert.Equal(t, "quote_plus(self.user.host) + '%2Fx'", task.Params[0].Value)
	assert.Equal(t, "quote(self.user.host) + '/y'", task.Params[1].Value)
	assert.Equal(t, "'https://elsewhere.org'", task.Params[2].Value)
}

func TestTask_RepeatedFields(t *testing.T) {
	f := &flow.Flow{
		Method: "GET",
		Scheme: "http",
		Host:   "h",
		Query: []flow.Field{
			{Name: "tag", Value: "a"},
			{Name: "q", Value: "x"},
			{Name: "tag", Value: "b"},
		},
		Header: []flow.Field{
			{Name: "Accept", Value: "text/html"},
			{Name: "accept", Value: "application/json"},
		},
	}

	task := NewRenderer().Task(f)

	assert.Equal(t, []Entry{
		{Key: "'tag'", Value: "['a', 'b']"},
		{Key: "'q'", Value: "'x'"},
	}, task.Params)
	assert.Equal(t, []Entry{
		{Key: "'Accept'", Value: "'text/html, application/json'"},
	}, task.Headers)
}

func TestTask_EscapesLiterals(t *testing.T) {
	f := &flow.Flow{
		Method: "GET",
		Scheme: "http",
		Host:   "h",
		Header: []flow.Field{{Name: "X-Quote", Value: `it's a \ test`}},
	}

	task := NewRenderer().Task(f)

	require.Len(t, task.Headers, 1)
	assert.Equal(t, `'it\'s a \\ test'`, task.Headers[0].Value)
}

func TestTask_InvalidUTF8Body(t *testing.T) {
	f := exampleFlow()
	f.Body = []byte{'a', 0xff, 'b'}

	task := NewRenderer().Task(f)

	assert.True(t, task.HasBody)
	assert.Equal(t, "a\uFFFDb", task.Body)
}

func TestCode_LegacyDialect(t *testing.T) {
	r := NewRenderer(WithDialect(DialectLegacy))
	code, err := r.Code(exampleFlow())
	require.NoError(t, err)

	assert.Contains(t, code, "from locust import HttpLocust, TaskSet, task")
	assert.Contains(t, code, "def get_next_task(self):")
	assert.Contains(t, code, "url = self.locust.host + '/api/users'")
	assert.Contains(t, code, "class WebsiteUser(HttpLocust):\n    task_set = UserBehavior\n    min_wait = 1000\n    max_wait = 3000\n")
	assert.NotContains(t, code, "self.user.host")
}

func TestWithWait(t *testing.T) {
	r := NewRenderer(WithWait(500*time.Millisecond, 2*time.Second))
	code, err := r.Code(exampleFlow())
	require.NoError(t, err)
	assert.Contains(t, code, "wait_time = between(0.5, 2)")

	inverted := NewRenderer(WithWait(5*time.Second, time.Second))
	code, err = inverted.Code(exampleFlow())
	require.NoError(t, err)
	assert.Contains(t, code, "wait_time = between(5, 5)")
}

func TestTaskBody(t *testing.T) {
	body, err := NewRenderer().TaskBody(exampleFlow())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(body, "    @task()\n    def task_000000_GET_api_users(self):\n"))
	assert.True(t, strings.HasSuffix(body, "        )\n\n"))
	assert.NotContains(t, body, "class ")
}

func TestScriptAndTasks(t *testing.T) {
	r := NewRenderer()
	first := exampleFlow()
	second := exampleFlow()
	second.Seq = 1
	second.Method = "DELETE"

	script, err := r.Script([]*flow.Flow{first, second})
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(script, "@task()"))
	assert.Less(t, strings.Index(script, "task_000000_GET"), strings.Index(script, "task_000001_DELETE"))

	tasks, err := r.Tasks([]*flow.Flow{first, second})
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(tasks, "@task()"))
	assert.NotContains(t, tasks, "class WebsiteUser")

	_, err = r.Script(nil)
	assert.Error(t, err)
}

func TestParseDialect(t *testing.T) {
	tests := []struct {
		input   string
		want    Dialect
		wantErr bool
	}{
		{input: "", want: DialectModern},
		{input: "modern", want: DialectModern},
		{input: " Legacy ", want: DialectLegacy},
		{input: "ancient", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDialect(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPyExpr(t *testing.T) {
	subs := []substitution{{text: "http://h", expr: "H"}}

	assert.Equal(t, "''", pyExpr("", subs))
	assert.Equal(t, "H", pyExpr("http://h", subs))
	assert.Equal(t, "'a' + H + 'b' + H", pyExpr("ahttp://hbhttp://h", subs))
	assert.Equal(t, `'line\nnext\x01'`, pyExpr("line\nnext\x01", nil))
}
