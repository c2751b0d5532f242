package texts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTextsMissingFileUsesDefaults(t *testing.T) {
	txt := InitTexts(filepath.Join(t.TempDir(), "nope.yml"))

	data := txt.Get()
	assert.Contains(t, data.Welcome, "Welcome to Afripay")
	assert.Contains(t, data.LoginRequired, "/login")
	assert.NotEmpty(t, data.MenuHeader)
	assert.NotEmpty(t, data.GenericError)
	assert.NotEmpty(t, data.ComingSoon)
}

func TestUpdateTextsPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "texts.yml")
	require.NoError(t, os.WriteFile(path, []byte("welcome: \"Salut %s!\"\n"), 0644))

	txt := InitTexts(path)

	data := txt.Get()
	assert.Equal(t, "Salut %s!", data.Welcome)
	assert.Contains(t, data.MenuHeader, "Afripay services")
}

func TestUpdateTextsReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "texts.yml")
	require.NoError(t, os.WriteFile(path, []byte("coming_soon: soon\n"), 0644))

	txt := InitTexts(path)
	assert.Equal(t, "soon", txt.Get().ComingSoon)

	require.NoError(t, os.WriteFile(path, []byte("coming_soon: later\n"), 0644))
	require.NoError(t, txt.UpdateTexts(path))
	assert.Equal(t, "later", txt.Get().ComingSoon)
}

func TestUpdateTextsBadYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "texts.yml")
	require.NoError(t, os.WriteFile(path, []byte(":\t not yaml ["), 0644))

	txt := &Texts{data: defaults()}
	assert.Error(t, txt.UpdateTexts(path))
	// previous texts survive a bad reload
	assert.Contains(t, txt.Get().Welcome, "Afripay")
}
