// Package kvstore implements the Store facade's core: the in-memory index,
// the public put/get/delete/clear contract, the Open/Closing/Closed state
// machine, and a process-global directory interning table so repeated
// Opens of the same directory share one underlying Store.
package kvstore

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/wesleyyan-sb/minikv/internal/codec"
	"github.com/wesleyyan-sb/minikv/internal/errs"
	"github.com/wesleyyan-sb/minikv/internal/fconfig"
	"github.com/wesleyyan-sb/minikv/internal/iolooper"
	"github.com/wesleyyan-sb/minikv/internal/iowriter"
	"github.com/wesleyyan-sb/minikv/internal/keystream"
	"github.com/wesleyyan-sb/minikv/internal/minikvlog"
	"github.com/wesleyyan-sb/minikv/internal/mmap"
	"github.com/wesleyyan-sb/minikv/internal/record"
)

const (
	dataFileName = "mini_mmkv"
	metaFileName = "mini_mmkv.meta"
	logTag       = "minikv:store"
)

type state int32

const (
	stateOpen state = iota
	stateClosing
	stateClosed
)

// Store is one open directory's entire runtime: the index, the Looper
// that owns the Writer, and the directory path it was interned under.
type Store struct {
	dir      string
	metaPath string

	mu    sync.RWMutex
	index map[string]record.Record
	state atomic.Int32

	looper *iolooper.Looper
}

var (
	internMu sync.Mutex
	interned = map[string]*Store{}
	refcount = map[string]int{}
)

// Open returns the Store for dir, creating it if this is the first open of
// that resolved path in the process and sharing the existing one
// (refcounted) otherwise, so concurrent handles to the same directory
// observe each other's writes.
func Open(dir string, opts Options) (*Store, error) {
	resolved, err := filepath.Abs(dir)
	if err != nil {
		return nil, errs.Wrap(errs.IOError, err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		if err := os.MkdirAll(resolved, 0o755); err != nil {
			return nil, errs.Wrap(errs.IOError, err)
		}
	} else if !info.IsDir() {
		return nil, errs.Newf(errs.IOError, "%s is not a directory", resolved)
	}

	internMu.Lock()
	if s, ok := interned[resolved]; ok {
		refcount[resolved]++
		internMu.Unlock()
		return s, nil
	}
	internMu.Unlock()

	s, err := openNew(resolved, opts)
	if err != nil {
		return nil, err
	}

	internMu.Lock()
	interned[resolved] = s
	refcount[resolved] = 1
	internMu.Unlock()

	return s, nil
}

func openNew(resolved string, opts Options) (*Store, error) {
	dataPath := filepath.Join(resolved, dataFileName)
	metaPath := filepath.Join(resolved, metaFileName)

	cfg, err := fconfig.Open(dataPath, opts.pageSize())
	if err != nil {
		return nil, err
	}
	size, err := cfg.FileSize()
	if err != nil {
		cfg.Close()
		return nil, err
	}
	mm, err := mmap.Open(cfg.File(), int(size))
	if err != nil {
		cfg.Close()
		return nil, err
	}

	var c codec.Codec
	var stream *keystream.Stream
	if opts.Key != "" {
		key := parseKey(opts.Key)
		stream, err = keystream.Open(key, metaPath)
		if err != nil {
			mm.Close()
			cfg.Close()
			return nil, err
		}
		c = codec.AEAD{Stream: stream}
	} else {
		c = codec.CRC8{}
	}

	index, position, err := iowriter.Replay(mm, c)
	if err != nil {
		mm.Close()
		cfg.Close()
		return nil, err
	}

	writer := iowriter.New(cfg, mm, c, stream, metaPath, position)
	looper := iolooper.New(writer)

	return &Store{
		dir:      resolved,
		metaPath: metaPath,
		index:    index,
		looper:   looper,
	}, nil
}

func (s *Store) closed() bool {
	return state(s.state.Load()) != stateOpen
}

// Put inserts rec into the index synchronously and enqueues its durable
// write.
func (s *Store) Put(rec record.Record) error {
	s.mu.Lock()
	if s.closed() {
		s.mu.Unlock()
		return errs.New(errs.InstanceClosed)
	}
	_, duplicated := s.index[rec.Key]
	s.index[rec.Key] = rec
	s.mu.Unlock()

	return s.looper.Post(func(w *iowriter.Writer) {
		if err := w.Write(rec, duplicated); err != nil {
			minikvlog.Errorf(logTag, "write %q failed: %v", rec.Key, err)
		}
	})
}

// Get returns the current Record for key, or KeyNotFound.
func (s *Store) Get(key string) (record.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed() {
		return record.Record{}, errs.New(errs.KeyNotFound)
	}
	rec, ok := s.index[key]
	if !ok {
		return record.Record{}, errs.New(errs.KeyNotFound)
	}
	return rec, nil
}

// Delete removes key from the index and enqueues a tombstone write. A
// missing key is a no-op.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	if s.closed() {
		s.mu.Unlock()
		return errs.New(errs.InstanceClosed)
	}
	if _, ok := s.index[key]; !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.index, key)
	s.mu.Unlock()

	tomb := record.Tombstone(key)
	return s.looper.Post(func(w *iowriter.Writer) {
		if err := w.Write(tomb, true); err != nil {
			minikvlog.Errorf(logTag, "delete %q failed: %v", key, err)
		}
	})
}

// ClearData marks the Store Closing, empties the index, cancels any
// queued writes, and removes the data and meta files. Idempotent after
// the first call.
func (s *Store) ClearData() error {
	s.mu.Lock()
	if s.closed() {
		s.mu.Unlock()
		return nil
	}
	s.state.Store(int32(stateClosing))
	s.index = make(map[string]record.Record)
	metaPath := s.metaPath
	s.mu.Unlock()

	s.looper.PostAndKill(func(w *iowriter.Writer) {
		if err := w.RemoveFile(); err != nil {
			minikvlog.Errorf(logTag, "remove data file: %v", err)
		}
		if err := os.Remove(metaPath); err != nil && !os.IsNotExist(err) {
			minikvlog.Warnf(logTag, "remove meta file: %v", err)
		}
	})
	s.state.Store(int32(stateClosed))

	internMu.Lock()
	delete(interned, s.dir)
	delete(refcount, s.dir)
	internMu.Unlock()

	return nil
}

// Release drops one reference to the Store. When the last reference
// drops, the Store moves Open -> Closing -> Closed: pending writes are
// allowed to drain (unlike ClearData, nothing is cancelled), then the
// mmap and file handle are flushed and released.
func (s *Store) Release() error {
	internMu.Lock()
	refcount[s.dir]--
	remaining := refcount[s.dir]
	if remaining > 0 {
		internMu.Unlock()
		return nil
	}
	delete(interned, s.dir)
	delete(refcount, s.dir)
	internMu.Unlock()

	s.mu.Lock()
	if s.closed() {
		s.mu.Unlock()
		return nil
	}
	s.state.Store(int32(stateClosing))
	s.mu.Unlock()

	if err := s.looper.Post(func(w *iowriter.Writer) {
		if err := w.Close(); err != nil {
			minikvlog.Warnf(logTag, "close writer: %v", err)
		}
	}); err != nil {
		minikvlog.Warnf(logTag, "post close task: %v", err)
	}
	s.looper.Quit()

	s.state.Store(int32(stateClosed))
	return nil
}

// Dir is the resolved directory path this Store was opened on.
func (s *Store) Dir() string {
	return s.dir
}

// Stats summarises the Store's current state for diagnostics.
type Stats struct {
	Dir        string
	KeyCount   int
	FrameCount uint32
	NeedTrim   bool
	FileSize   int64
}

func (s *Store) Stats() (Stats, error) {
	s.mu.RLock()
	if s.closed() {
		s.mu.RUnlock()
		return Stats{}, errs.New(errs.InstanceClosed)
	}
	keyCount := len(s.index)
	s.mu.RUnlock()

	type snapshot struct {
		frames   uint32
		needTrim bool
		size     int64
	}
	ch := make(chan snapshot, 1)
	err := s.looper.Post(func(w *iowriter.Writer) {
		size, err := w.FileSize()
		if err != nil {
			minikvlog.Warnf(logTag, "stat file size: %v", err)
		}
		ch <- snapshot{frames: w.Position(), needTrim: w.NeedTrim(), size: size}
	})
	if err != nil {
		return Stats{}, err
	}
	snap := <-ch
	return Stats{
		Dir:        s.dir,
		KeyCount:   keyCount,
		FrameCount: snap.frames,
		NeedTrim:   snap.needTrim,
		FileSize:   snap.size,
	}, nil
}
