package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDotEnv(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected map[string]string
	}{
		{"plain", "COMMENT_CLIENT_API_KEY=secret", map[string]string{"COMMENT_CLIENT_API_KEY": "secret"}},
		{"export prefix", "export BASE=http://forum:4567", map[string]string{"BASE": "http://forum:4567"}},
		{"double quotes", `KEY="with spaces"`, map[string]string{"KEY": "with spaces"}},
		{"single quotes", `KEY='with spaces'`, map[string]string{"KEY": "with spaces"}},
		{"mismatched quotes kept", `KEY="open'`, map[string]string{"KEY": `"open'`}},
		{"comments and blanks", "# note\n\nA=1\n", map[string]string{"A": "1"}},
		{"value with equals", "URL=http://x?a=b", map[string]string{"URL": "http://x?a=b"}},
		{"invalid lines skipped", "NOVALUE\n=empty\nB=2", map[string]string{"B": "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadDotEnv(writeEnvFile(t, tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	_, err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoadAndExportDotEnv_DoesNotOverride(t *testing.T) {
	t.Setenv("CC_TEST_EXISTING", "from-env")
	t.Setenv("CC_TEST_NEW", "")
	os.Unsetenv("CC_TEST_NEW")

	path := writeEnvFile(t, "CC_TEST_EXISTING=from-file\nCC_TEST_NEW=fresh")
	_, err := LoadAndExportDotEnv(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", os.Getenv("CC_TEST_EXISTING"))
	assert.Equal(t, "fresh", os.Getenv("CC_TEST_NEW"))
}

func TestLoadOptionalDotEnv(t *testing.T) {
	vars, err := LoadOptionalDotEnv(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)
	assert.Empty(t, vars)
}

func TestLoadSystemEnv(t *testing.T) {
	t.Setenv("CC_PREFIX_API_KEY", "k")
	t.Setenv("CC_PREFIX_", "ignored")

	vars := LoadSystemEnv("CC_PREFIX_")
	assert.Equal(t, "k", vars["API_KEY"])
	_, ok := vars[""]
	assert.False(t, ok)
}
