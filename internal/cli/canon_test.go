package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFragment(t *testing.T, markup string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fragment.html")
	require.NoError(t, os.WriteFile(path, []byte(markup), 0o644))
	return path
}

func TestCanonFromStdin(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCanonCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetIn(strings.NewReader(`<div  class="b a">  <span>hi</span>  </div>`))
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Equal(t, "<div class=\"b a\"><span>hi</span></div>\n", buf.String())
}

func TestCanonFromFile(t *testing.T) {
	path := writeFragment(t, `<x-card><template shadowrootmode="open"><p>s</p></template>light</x-card>`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCanonCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Equal(t, "<x-card><shadow-root><p>s</p></shadow-root>light</x-card>\n", buf.String())
}

func TestCanonLight(t *testing.T) {
	path := writeFragment(t, `<x-card><template shadowrootmode="open"><p>s</p></template>light</x-card>`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCanonCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--light", path})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Equal(t, "<x-card>light</x-card>\n", buf.String())
}

func TestCanonPretty(t *testing.T) {
	path := writeFragment(t, `<div><span>hi</span></div>`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCanonCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--pretty", path})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Equal(t, "<div>\n  <span>hi</span>\n</div>\n", buf.String())
}

func TestCanonStyles(t *testing.T) {
	markup := `<div><style>p { color: red; }</style><p>x</p></div>`

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCanonCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{writeFragment(t, markup)})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "<div><p>x</p></div>\n", buf.String())

	buf.Reset()
	cmd = NewCanonCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--keep-styles", writeFragment(t, markup)})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "<style>")
}

func TestCanonJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewCanonCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetIn(strings.NewReader(`<div></div>`))
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "<div></div>", resp.Data)
}

func TestCanonMissingFile(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCanonCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "missing.html")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
