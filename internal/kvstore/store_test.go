package kvstore

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wesleyyan-sb/minikv/internal/errs"
	"github.com/wesleyyan-sb/minikv/internal/record"
)

func TestPutGetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, DefaultOptions())
	require.NoError(t, err)
	defer s.Release()

	require.NoError(t, s.Put(record.FromI32("key1", 1)))
	s.looper.Sync()

	got, err := s.Get("key1")
	require.NoError(t, err)
	v, err := got.I32()
	require.NoError(t, err)
	require.Equal(t, int32(1), v)
}

func TestGetMissingKeyIsKeyNotFound(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, DefaultOptions())
	require.NoError(t, err)
	defer s.Release()

	_, err = s.Get("missing")
	require.ErrorIs(t, err, errs.ErrKeyNotFound)
}

func TestDeleteThenGetIsKeyNotFoundAndRedeleteOK(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, DefaultOptions())
	require.NoError(t, err)
	defer s.Release()

	require.NoError(t, s.Put(record.FromI32("key1", 1)))
	require.NoError(t, s.Delete("key1"))
	s.looper.Sync()

	_, err = s.Get("key1")
	require.ErrorIs(t, err, errs.ErrKeyNotFound)

	require.NoError(t, s.Delete("key1")) // redelete is Ok
}

func TestSameDirectoryIsInterned(t *testing.T) {
	dir := t.TempDir()
	s1, err := Open(dir, DefaultOptions())
	require.NoError(t, err)
	defer s1.Release()

	s2, err := Open(dir, DefaultOptions())
	require.NoError(t, err)
	defer s2.Release()

	require.Same(t, s1, s2)

	require.NoError(t, s1.Put(record.FromI32("key1", 7)))
	s1.looper.Sync()

	got, err := s2.Get("key1")
	require.NoError(t, err)
	v, err := got.I32()
	require.NoError(t, err)
	require.Equal(t, int32(7), v)
}

func TestDurabilityAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, DefaultOptions())
	require.NoError(t, err)

	require.NoError(t, s.Put(record.FromStr("key1", "hello")))
	require.NoError(t, s.Put(record.FromI32("key2", 42)))
	s.looper.Sync()
	require.NoError(t, s.Release())

	reopened, err := Open(dir, DefaultOptions())
	require.NoError(t, err)
	defer reopened.Release()

	v1, err := reopened.Get("key1")
	require.NoError(t, err)
	str, err := v1.Str()
	require.NoError(t, err)
	require.Equal(t, "hello", str)

	v2, err := reopened.Get("key2")
	require.NoError(t, err)
	i32, err := v2.I32()
	require.NoError(t, err)
	require.Equal(t, int32(42), i32)
}

func TestCompactionPreservesSemantics(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, DefaultOptions())
	require.NoError(t, err)
	defer s.Release()

	keys := []string{"key000", "key001", "key002"}
	for i, k := range keys {
		require.NoError(t, s.Put(record.FromI32(k, int32(i))))
	}
	// Overwrite each many times to force a trim.
	for round := 0; round < 500; round++ {
		for i, k := range keys {
			require.NoError(t, s.Put(record.FromI32(k, int32(round*10+i))))
		}
	}
	s.looper.Sync()

	stats, err := s.Stats()
	require.NoError(t, err)
	require.Equal(t, len(keys), stats.KeyCount)
	require.Equal(t, uint32(len(keys)), stats.FrameCount)
	require.False(t, stats.NeedTrim)

	for i, k := range keys {
		got, err := s.Get(k)
		require.NoError(t, err)
		v, err := got.I32()
		require.NoError(t, err)
		require.Equal(t, int32(499*10+i), v)
	}
}

func TestClearDataRemovesFilesAndRendersInert(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, DefaultOptions())
	require.NoError(t, err)

	require.NoError(t, s.Put(record.FromI32("key1", 1)))
	s.looper.Sync()

	require.NoError(t, s.ClearData())
	require.NoError(t, s.ClearData()) // idempotent

	_, err = s.Get("key1")
	require.ErrorIs(t, err, errs.ErrKeyNotFound)
	err = s.Put(record.FromI32("key1", 1))
	require.ErrorIs(t, err, errs.ErrInstanceClosed)

	fresh, err := Open(dir, DefaultOptions())
	require.NoError(t, err)
	defer fresh.Release()
	_, err = fresh.Get("key1")
	require.ErrorIs(t, err, errs.ErrKeyNotFound)
}

func TestEncryptedRoundTripAndReopen(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultOptions()
	opts.Key = "0123456789abcdef0123456789abcdef"[:32]

	s, err := Open(dir, opts)
	require.NoError(t, err)
	require.NoError(t, s.Put(record.FromStr("key1", "secret")))
	s.looper.Sync()
	require.NoError(t, s.Release())

	reopened, err := Open(dir, opts)
	require.NoError(t, err)
	defer reopened.Release()

	got, err := reopened.Get("key1")
	require.NoError(t, err)
	v, err := got.Str()
	require.NoError(t, err)
	require.Equal(t, "secret", v)
}

func TestConcurrentWritersConvergeAfterSync(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, DefaultOptions())
	require.NoError(t, err)
	defer s.Release()

	const writers = 4
	const perWriter = 200

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				key := fmt.Sprintf("w%d-k%d", w, i)
				require.NoError(t, s.Put(record.FromI32(key, int32(i))))
			}
		}()
	}
	wg.Wait()
	s.looper.Sync()

	for w := 0; w < writers; w++ {
		for i := 0; i < perWriter; i++ {
			key := fmt.Sprintf("w%d-k%d", w, i)
			got, err := s.Get(key)
			require.NoError(t, err)
			v, err := got.I32()
			require.NoError(t, err)
			require.Equal(t, int32(i), v)
		}
	}
}

func TestBatchCommitAppliesAllOps(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, DefaultOptions())
	require.NoError(t, err)
	defer s.Release()

	b := s.NewBatch()
	b.Put(record.FromI32("key1", 1))
	b.Put(record.FromI32("key2", 2))
	b.Delete("key3")
	require.NoError(t, b.Commit())
	s.looper.Sync()

	v1, err := s.Get("key1")
	require.NoError(t, err)
	i1, _ := v1.I32()
	require.Equal(t, int32(1), i1)

	_, err = s.Get("key3")
	require.ErrorIs(t, err, errs.ErrKeyNotFound)
}
