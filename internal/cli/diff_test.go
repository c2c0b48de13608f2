package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffCanonicallyEqual(t *testing.T) {
	// Formatting and attribute order must not count as differences.
	a := writeFragment(t, "<div class=\"x\" id=\"r\">\n  <span>hi</span>\n</div>")
	b := writeFragment(t, `<div id="r" class="x"><span>hi</span></div>`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewDiffCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{a, b})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "canonically equal")
}

func TestDiffShadowRepresentationsConverge(t *testing.T) {
	a := writeFragment(t, `<x-card><template shadowrootmode="open"><p>s</p></template></x-card>`)
	b := writeFragment(t, `<x-card><shadow-root><p>s</p></shadow-root></x-card>`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewDiffCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{a, b})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "canonically equal")
}

func TestDiffDifferent(t *testing.T) {
	a := writeFragment(t, `<div><span>hi</span></div>`)
	b := writeFragment(t, `<div><span>bye</span></div>`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewDiffCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{a, b})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "hi")
	assert.Contains(t, buf.String(), "bye")
}

func TestDiffEqualJSON(t *testing.T) {
	a := writeFragment(t, `<div></div>`)
	b := writeFragment(t, `<div></div>`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewDiffCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{a, b})

	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, data["equal"])
}

func TestDiffDifferentJSON(t *testing.T) {
	a := writeFragment(t, `<div>one</div>`)
	b := writeFragment(t, `<div>two</div>`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewDiffCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{a, b})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, data["equal"])
	assert.NotEmpty(t, data["diff"])
}

func TestDiffMissingFile(t *testing.T) {
	a := writeFragment(t, `<div></div>`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewDiffCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{a, filepath.Join(t.TempDir(), "missing.html")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
