package patterns

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOverridesOnlyPresentTables(t *testing.T) {
	t.Parallel()

	tables, err := Load(strings.NewReader(`
toxic_keywords: ["Scum", "idiot"]
file_extensions:
  - suffix: .msi
    severity: high
  - suffix: .7z
spoof_brands: []
`))
	require.NoError(t, err)

	defaults := Default()
	assert.Equal(t, defaults.NSFW.Keywords(), tables.NSFW.Keywords())
	assert.Equal(t, defaults.Domains.Expressions(), tables.Domains.Expressions())
	assert.Equal(t, []string{"scum", "idiot"}, tables.Toxic.Keywords())
	assert.Equal(t, []Extension{
		{Suffix: ".msi", Severity: SeverityHigh},
		{Suffix: ".7z", Severity: SeverityStandard},
	}, tables.Extensions.Extensions())

	// Present-but-empty disables the category, context words keep their defaults
	assert.Empty(t, tables.Brands.Brands())
	assert.Equal(t, DefaultContextWords, tables.Brands.ContextWords())
}

func TestLoadEmpty(t *testing.T) {
	t.Parallel()

	tables, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default().Toxic.Keywords(), tables.Toxic.Keywords())
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	_, err := Load(strings.NewReader(`suspicious_domains: ["(unclosed"]`))
	assert.Error(t, err)

	_, err = Load(strings.NewReader("file_extensions:\n  - suffix: .exe\n    severity: critical\n"))
	assert.ErrorIs(t, err, ErrUnknownSeverity)

	_, err = Load(strings.NewReader(`not_a_table: ["x"]`))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	tables, err := LoadFile("")
	require.NoError(t, err)
	assert.NotNil(t, tables)

	path := filepath.Join(t.TempDir(), "patterns.yaml")
	require.NoError(t, os.WriteFile(path, []byte("nsfw_keywords: [lewd]\n"), 0o600))
	tables, err = LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"lewd"}, tables.NSFW.Keywords())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
