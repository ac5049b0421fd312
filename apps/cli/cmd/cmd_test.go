package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/locustgen/packages/flow"
	"github.com/abdul-hamid-achik/locustgen/packages/journal"
	"github.com/abdul-hamid-achik/locustgen/packages/output"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestImportCurlCommand(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "commands.sh")
	require.NoError(t, os.WriteFile(source, []byte(
		"curl 'http://example.com/api/users?id=5' -H 'Accept: */*'\n"+
			"curl -X DELETE http://example.com/api/users/5\n"+
			"curl http://other.org/\n",
	), 0644))

	out, err := execute(t, "import", "curl", source, "--prefix", "cli", "--output-dir", dir, "--json")
	require.NoError(t, err)

	var report output.JSONOutput
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 3, report.Flows)
	require.Len(t, report.Files, 2)

	script, err := os.ReadFile(filepath.Join(dir, "cli-example_com.py"))
	require.NoError(t, err)
	assert.Contains(t, string(script), "task_000000_GET_api_users")
	assert.Contains(t, string(script), "task_000001_DELETE_api_users_5")

	_, err = os.Stat(filepath.Join(dir, "cli-other_org.py"))
	assert.NoError(t, err)
}

func TestGenerateCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flows.db")

	j, err := journal.Open(path)
	require.NoError(t, err)
	for i, raw := range []string{"http://example.com/a", "http://example.com/b"} {
		u, err := url.Parse(raw)
		require.NoError(t, err)
		f := flow.New("GET", u, nil, nil)
		f.Seq = i + 10
		require.NoError(t, j.Append(context.Background(), f))
	}
	require.NoError(t, j.Close())

	_, err = execute(t, "generate", path, "--prefix", "replay", "--output-dir", dir, "--dialect", "legacy")
	require.NoError(t, err)

	script, err := os.ReadFile(filepath.Join(dir, "replay-example_com.py"))
	require.NoError(t, err)
	assert.Contains(t, string(script), "task_000010_GET_a")
	assert.Contains(t, string(script), "task_000011_GET_b")
	assert.Contains(t, string(script), "HttpLocust")
}

func TestGenerateCommand_MissingJournalFlows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	j, err := journal.Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	_, err = execute(t, "generate", path)
	require.Error(t, err)

	var ee *exitError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, ExitInputError, ee.code)
}

func TestCompletionCommand(t *testing.T) {
	out, err := execute(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "locustgen")

	_, err = execute(t, "completion", "tcsh")
	assert.Error(t, err)
}
