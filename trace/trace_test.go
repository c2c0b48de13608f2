package trace

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRecorderOrder(t *testing.T) {
	m := NewMemoryRecorder()
	for i, op := range []Op{OpRender, OpSetProps, OpSettleBegin, OpSettleEnd, OpUnmount} {
		require.NoError(t, m.Record(Record{Session: "s1", Handle: "h1", Seq: int64(i), Op: op}))
	}

	recs := m.Records()
	require.Len(t, recs, 5)
	assert.Equal(t, []Op{OpRender, OpSetProps, OpSettleBegin, OpSettleEnd, OpUnmount}, m.Ops())
	assert.Equal(t, int64(3), recs[3].Seq)
}

func TestMemoryRecorderCopies(t *testing.T) {
	m := NewMemoryRecorder()
	require.NoError(t, m.Record(Record{Session: "s1", Op: OpRender}))

	recs := m.Records()
	recs[0].Op = OpUnmount

	assert.Equal(t, OpRender, m.Records()[0].Op)
}

func TestMemoryRecorderConcurrent(t *testing.T) {
	m := NewMemoryRecorder()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_ = m.Record(Record{Session: "s1", Op: OpEvent})
			}
		}()
	}
	wg.Wait()

	assert.Len(t, m.Records(), 400)
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.db")
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	recs := []Record{
		{Session: "sess-a", Handle: "h1", Seq: 1, Op: OpRender, Detail: map[string]any{"tag": "toggle-button"}},
		{Session: "sess-a", Handle: "h1", Seq: 2, Op: OpSettleBegin},
		{Session: "sess-a", Handle: "h1", Seq: 5, Op: OpSettleEnd},
		{Session: "sess-b", Handle: "h2", Seq: 1, Op: OpRender},
	}
	for _, rec := range recs {
		require.NoError(t, store.Record(rec))
	}

	ctx := context.Background()

	got, err := store.Session(ctx, "sess-a")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, OpRender, got[0].Op)
	assert.Equal(t, "toggle-button", got[0].Detail["tag"])
	assert.Equal(t, int64(5), got[2].Seq)
	assert.Nil(t, got[1].Detail)

	sessions, err := store.Sessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"sess-a", "sess-b"}, sessions)

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "sess-b", all[3].Session)
}

func TestStoreOpenIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Record(Record{Session: "s1", Seq: 1, Op: OpRender}))
	require.NoError(t, store.Close())

	// Reopening applies the schema again and keeps existing rows.
	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Session(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestStoreOpenBadPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "nested", "trace.db"))
	require.Error(t, err)
}

func TestStoreConcurrentWriters(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "trace.db"))
	require.NoError(t, err)
	defer store.Close()

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				err := store.Record(Record{Session: "shared", Handle: "h", Seq: int64(g*100 + i), Op: OpEvent})
				assert.NoError(t, err)
			}
		}(g)
	}
	wg.Wait()

	got, err := store.Session(context.Background(), "shared")
	require.NoError(t, err)
	assert.Len(t, got, 80)
}
