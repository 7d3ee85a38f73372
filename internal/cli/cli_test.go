package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cvtailor/internal/config"
	"cvtailor/internal/errors"
	"cvtailor/internal/tailoring"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		AI: config.AIConfig{
			Provider:         config.ProviderOpenRouter,
			APIKey:           config.PlaceholderAPIKey,
			APIURL:           "http://127.0.0.1:1/unused",
			Model:            "test-model",
			Timeout:          time.Second,
			MaxTokens:        200,
			SummariesEnabled: true,
			FallbackEnabled:  true,
		},
		Tailoring: tailoring.DefaultParams(),
		App: config.AppConfig{
			LogLevel:         "error",
			DefaultFormat:    "json",
			SupportedFormats: []string{"json", "text", "markdown"},
			MaxFileSize:      1024 * 1024,
		},
	}
}

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stderr bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetErr(&stderr)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetErr(nil)
	})
	err := Execute(context.Background(), testConfig(), errors.NewNopLogger())
	return stderr.String(), err
}

const resumeProfile = `{
	"fullName": "Jane Doe",
	"email": "jane@example.com",
	"documentType": "Resume",
	"targetJobTitle": "Data Analyst",
	"jobDescription": "Required: SQL, Python, Tableau.",
	"skills": ["SQL", "Python", "Cooking"],
	"hobbies": ["Chess"]
}`

func TestGenerateCommand(t *testing.T) {
	profile := writeTestFile(t, "profile.json", resumeProfile)
	output := filepath.Join(t.TempDir(), "content.json")

	_, err := execute(t, "generate", profile, "--output", output)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)

	var content map[string]any
	require.NoError(t, json.Unmarshal(data, &content))
	assert.Equal(t, "Jane_Doe_Resume.pdf", content["fileName"])
	assert.NotEmpty(t, content["summary"])
	assert.Empty(t, content["hobbies"])
}

func TestGenerateCommandRejectsInvalidProfile(t *testing.T) {
	profile := writeTestFile(t, "profile.json", `{"fullName": "Jane Doe", "documentType": "Letter"}`)

	_, err := execute(t, "generate", profile, "--output", filepath.Join(t.TempDir(), "out.json"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidProfile))
}

func TestSummaryCommandPrintsProgress(t *testing.T) {
	profile := writeTestFile(t, "profile.json", resumeProfile)
	output := filepath.Join(t.TempDir(), "summary.txt")

	stderr, err := execute(t, "summary", profile, "--format", "text", "--output", output)
	require.NoError(t, err)

	assert.Contains(t, stderr, "[starting]")
	assert.Contains(t, stderr, "[completed]")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "(source: template")
}

func TestKeywordsCommand(t *testing.T) {
	jd := writeTestFile(t, "posting.html", `<html><body><main><p>Required: SQL and Python.</p></main></body></html>`)
	output := filepath.Join(t.TempDir(), "keywords.md")

	_, err := execute(t, "keywords", jd, "--format", "markdown", "--output", output)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "`sql`")
	assert.Contains(t, string(data), "`python`")
}

func TestOutputPreRunRejectsUnknownFormat(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetContext(context.WithValue(context.Background(), configKey, testConfig()))


	generateConfig.OutputFormat = "yaml"
	t.Cleanup(func() { generateConfig.OutputFormat = "" })
	assert.Error(t, outputPreRun(&generateConfig)(cmd, nil))

	generateConfig.OutputFormat = ""
	require.NoError(t, outputPreRun(&generateConfig)(cmd, nil))
	assert.Equal(t, "json", generateConfig.OutputFormat)
	assert.Equal(t, int64(1024*1024), generateConfig.MaxFileSize)
}

func TestApplyServeFlags(t *testing.T) {
	cmd := &cobra.Command{}
	addServeFlags(cmd)
	require.NoError(t, cmd.Flags().Set("port", "9090"))
	require.NoError(t, cmd.Flags().Set("tls-mode", "server"))

	cfg := testConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "8080"
	applyServeFlags(cmd, cfg)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "server", cfg.Server.TLS.Mode)
}
