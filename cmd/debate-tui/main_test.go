package main

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"debatetui/internal/mockserver"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestAnalyzeCommandPrintsResult(t *testing.T) {
	srv := httptest.NewServer(mockserver.New(mockserver.Options{}))
	defer srv.Close()
	logFile := filepath.Join(t.TempDir(), "debate.log")

	out, _, err := runCLI(t, "analyze", "--endpoint", srv.URL, "--log-file", logFile, "universal", "basic", "income")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved to: results/universal_basic_income.json")
	assert.Contains(t, out, `"label": "liberal"`)
}

func TestAnalyzeCommandReportsFailure(t *testing.T) {
	srv := httptest.NewServer(mockserver.New(mockserver.Options{}))
	defer srv.Close()
	logFile := filepath.Join(t.TempDir(), "debate.log")

	_, stderr, err := runCLI(t, "analyze", "--endpoint", srv.URL, "--log-file", logFile, mockserver.FailTopic)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected")
	assert.Contains(t, stderr, "analysis reported failure")

	logged, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(logged), `"msg":"analysis failed"`)
	assert.Contains(t, string(logged), `"kind":"rejected"`)
}

func TestAnalyzeCommandRejectsBlankTopic(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "debate.log")
	_, _, err := runCLI(t, "analyze", "--log-file", logFile, "   ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "topic is required")
}
