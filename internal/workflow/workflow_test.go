package workflow_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joojf/passworder/internal/item"
	"github.com/joojf/passworder/internal/workflow"
)

func TestEnvVarsForProfileFiltersByPathExactly(t *testing.T) {
	items := []item.Item{
		{Name: "API_KEY", Secret: "abc123", Path: "dev"},
		{Name: "OAUTH_TOKEN", Secret: "sek'ret", Path: "dev"},
		{Name: "PROD_KEY", Secret: "zzz", Path: "prod"},
		{Name: "NO_PROFILE", Secret: "xxx"},
	}

	vars := workflow.EnvVarsForProfile(items, "dev")
	assert.Equal(t, map[string]string{"API_KEY": "abc123", "OAUTH_TOKEN": "sek'ret"}, vars)
}

func TestIsValidEnvVarName(t *testing.T) {
	assert.True(t, workflow.IsValidEnvVarName("API_KEY"))
	assert.True(t, workflow.IsValidEnvVarName("_PRIVATE9"))
	assert.False(t, workflow.IsValidEnvVarName(""))
	assert.False(t, workflow.IsValidEnvVarName("api_key"))
	assert.False(t, workflow.IsValidEnvVarName("9KEY"))
	assert.False(t, workflow.IsValidEnvVarName("KEY-NAME"))
}

func TestBashExportLinesQuotesAndOrdersByName(t *testing.T) {
	vars := map[string]string{"API_KEY": "abc123", "OAUTH_TOKEN": "sek'ret"}
	out, err := workflow.BashExportLines(vars)
	require.NoError(t, err)
	assert.Equal(t, "export API_KEY='abc123'\nexport OAUTH_TOKEN='sek'\\''ret'\n", out)
}

func TestBashExportLinesEmitsEmptyQuotesForEmptyValue(t *testing.T) {
	out, err := workflow.BashExportLines(map[string]string{"EMPTY": ""})
	require.NoError(t, err)
	assert.Equal(t, "export EMPTY=''\n", out)
}

func TestBashExportLinesRejectsInvalidName(t *testing.T) {
	_, err := workflow.BashExportLines(map[string]string{"bad-name": "x"})
	assert.Error(t, err)
}

func TestJSONExportLines(t *testing.T) {
	out, err := workflow.JSONExportLines(map[string]string{"API_KEY": "abc123"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"API_KEY":"abc123"}`, out)
}

func TestRenderTemplateSubstitutesPlaceholders(t *testing.T) {
	out, err := workflow.RenderTemplate("token=${API_KEY}\n", map[string]string{"API_KEY": "abc123"})
	require.NoError(t, err)
	assert.Equal(t, "token=abc123\n", out)
}

func TestRenderTemplatePassesThroughLoneDollar(t *testing.T) {
	out, err := workflow.RenderTemplate("price: $5 and ${API_KEY}", map[string]string{"API_KEY": "x"})
	require.NoError(t, err)
	assert.Equal(t, "price: $5 and x", out)
}

func TestRenderTemplateRejectsUnterminatedPlaceholder(t *testing.T) {
	_, err := workflow.RenderTemplate("token=${API_KEY", map[string]string{"API_KEY": "x"})
	assert.Error(t, err)
}

func TestRenderTemplateRejectsUnknownVariable(t *testing.T) {
	_, err := workflow.RenderTemplate("token=${MISSING}", map[string]string{})
	assert.Error(t, err)
}

func TestWriteSensitiveFileAtomicSetsRestrictivePermissions(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")

	err := workflow.WriteSensitiveFileAtomic(out, []byte("token=abc123\n"))
	require.NoError(t, err)

	contents, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "token=abc123\n", string(contents))

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
