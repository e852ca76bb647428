package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePayload = `{
	"repo_url": "https://github.com/acme/widget",
	"git_sha": "0123456789abcdef",
	"code_health_score": 64,
	"pylint": {"score": 8.5},
	"radon": {"blocks": [{"name": "f", "complexity": 3, "grade": "A"}]}
}`

// execute runs the root command with fresh flag values and an isolated home directory.
func execute(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	rootCmd.SetIn(stdin)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func writePayload(t *testing.T, payload string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))
	return path
}

func TestRootCommandHasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	for _, want := range []string{"analyze", "ui", "show", "reports", "history", "serve", "mcp", "version"} {
		if !names[want] {
			t.Errorf("root command missing subcommand %q", want)
		}
	}
}

func TestVersionOutput(t *testing.T) {
	// version vars are set via ldflags; in tests they have their defaults
	if version != "dev" {
		t.Errorf("expected default version %q, got %q", "dev", version)
	}

	out, err := execute(t, nil, "version")
	require.NoError(t, err)
	assert.Equal(t, "devpulse dev (commit none, built unknown)\n", out)

	out, err = execute(t, nil, "version", "--format", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version": "dev", "commit": "none", "built": "unknown"}`, out)
}

func TestShowFileJSON(t *testing.T) {
	out, err := execute(t, nil, "show", writePayload(t, samplePayload), "--format", "json")
	require.NoError(t, err)

	var doc struct {
		Report struct {
			HealthScore float64 `json:"health_score"`
		} `json:"report"`
		Health struct {
			Tier string `json:"tier"`
		} `json:"health"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, 64.0, doc.Report.HealthScore)
	assert.Equal(t, "medium", doc.Health.Tier)
}

func TestShowStdinMarkdown(t *testing.T) {
	out, err := execute(t, strings.NewReader(samplePayload), "show", "-", "-f", "md")
	require.NoError(t, err)
	assert.Contains(t, out, "## DevPulse Report")
	assert.Contains(t, out, "No line count data available")
}

func TestShowRequiresOneSource(t *testing.T) {
	_, err := execute(t, nil, "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one")

	_, err = execute(t, nil, "show", writePayload(t, samplePayload), "--id", "3")
	require.Error(t, err)
}

func TestShowInvalidPayload(t *testing.T) {
	_, err := execute(t, nil, "show", writePayload(t, `{"radon": `), "-f", "json")
	assert.Error(t, err)
}

func TestShowFailUnder(t *testing.T) {
	path := writePayload(t, samplePayload)

	_, err := execute(t, nil, "show", path, "-f", "json", "--fail-under", "70")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "below --fail-under")

	_, err = execute(t, nil, "show", path, "-f", "json", "--fail-under", "60")
	assert.NoError(t, err)
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, nil, "show", writePayload(t, samplePayload), "--format", "pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestAnalyzeRecordsHistory(t *testing.T) {
	var gotRepo string
	svc := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			RepoURL string `json:"repo_url"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotRepo = body.RepoURL
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"report_id": 9, "results": `+samplePayload+`}`)
	}))
	defer svc.Close()

	db := filepath.Join(t.TempDir(), "history.db")
	out, err := execute(t, nil, "analyze", "https://github.com/acme/widget",
		"--service-url", svc.URL, "--history-db", db, "-f", "json")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/acme/widget", gotRepo)
	assert.Contains(t, out, `"report_id": 9`)

	out, err = execute(t, nil, "history", "--history-db", db, "-f", "json")
	require.NoError(t, err)
	var entries []struct {
		ID     int64  `json:"id"`
		Commit string `json:"commit"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "0123456789", entries[0].Commit)

	out, err = execute(t, nil, "show", "--history", "1", "--history-db", db, "-f", "md")
	require.NoError(t, err)
	assert.Contains(t, out, "**Commit:** `0123456789`")
}

func TestAnalyzeServiceError(t *testing.T) {
	svc := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"detail": "Repository not found"}`)
	}))
	defer svc.Close()

	_, err := execute(t, nil, "analyze", "https://github.com/acme/missing",
		"--service-url", svc.URL, "--no-history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Repository not found")
}

func TestAnalyzeRejectsNonGitHubURL(t *testing.T) {
	_, err := execute(t, nil, "analyze", "https://example.com/acme/widget", "--no-history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid GitHub repository URL")
}
