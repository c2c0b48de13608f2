package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riglabs/shadowrig/trace"
)

func seedTraceDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.db")
	st, err := trace.Open(path)
	require.NoError(t, err)
	defer st.Close()

	recs := []trace.Record{
		{Session: "sess-a", Handle: "h1", Seq: 1, Op: trace.OpRender, Detail: map[string]any{"tag": "toggle-button"}},
		{Session: "sess-a", Handle: "h1", Seq: 2, Op: trace.OpSettleBegin},
		{Session: "sess-a", Handle: "h1", Seq: 3, Op: trace.OpSettleEnd},
		{Session: "sess-b", Handle: "h2", Seq: 1, Op: trace.OpRender},
	}
	for _, rec := range recs {
		require.NoError(t, st.Record(rec))
	}
	return path
}

func TestTraceListsSessions(t *testing.T) {
	path := seedTraceDB(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", path})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "sess-a\nsess-b\n", buf.String())
}

func TestTraceDumpsSession(t *testing.T) {
	path := seedTraceDB(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", path, "--session", "sess-a"})

	require.NoError(t, cmd.Execute())
	out := buf.String()
	assert.Contains(t, out, "render")
	assert.Contains(t, out, "settle_begin")
	assert.Contains(t, out, `{"tag":"toggle-button"}`)
	assert.NotContains(t, out, "h2")
}

func TestTraceDumpsSessionJSON(t *testing.T) {
	path := seedTraceDB(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", path, "--session", "sess-a"})

	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var dump TraceDump
	require.NoError(t, json.Unmarshal(data, &dump))
	require.Len(t, dump.Records, 3)
	assert.Equal(t, trace.OpRender, dump.Records[0].Op)
}

func TestTraceOpFilter(t *testing.T) {
	path := seedTraceDB(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", path, "--session", "sess-a", "--op", "settle_begin"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "settle_begin")
	assert.NotContains(t, buf.String(), "settle_end")
	assert.NotContains(t, buf.String(), "render")
}

func TestTraceUnknownSession(t *testing.T) {
	path := seedTraceDB(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", path, "--session", "sess-z"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "no records")
}

func TestTraceRequiresDatabaseFlag(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db")
}
