// Package iowriter implements the single-threaded append/trim/grow state
// machine, built around a codec.Codec / keystream.Stream pair selected
// once at open time.
package iowriter

import (
	"github.com/wesleyyan-sb/minikv/internal/codec"
	"github.com/wesleyyan-sb/minikv/internal/errs"
	"github.com/wesleyyan-sb/minikv/internal/fconfig"
	"github.com/wesleyyan-sb/minikv/internal/keystream"
	"github.com/wesleyyan-sb/minikv/internal/minikvlog"
	"github.com/wesleyyan-sb/minikv/internal/mmap"
	"github.com/wesleyyan-sb/minikv/internal/record"
)

const logTag = "minikv:writer"

// Writer owns the mmap, the Config, the frame counter, and (in encrypted
// builds) the keystream. It is only ever touched from the I/O Looper's
// worker goroutine.
type Writer struct {
	config   *fconfig.Config
	mm       *mmap.Map
	codec    codec.Codec
	stream   *keystream.Stream // nil in unencrypted builds
	metaPath string            // only meaningful when stream != nil

	position uint32
	needTrim bool
}

// New builds a Writer over an already-open Config/Map pair, with position
// the frame count already present (from an initial Replay).
func New(config *fconfig.Config, mm *mmap.Map, c codec.Codec, stream *keystream.Stream, metaPath string, position uint32) *Writer {
	return &Writer{config: config, mm: mm, codec: c, stream: stream, metaPath: metaPath, position: position}
}

// Position is the next frame ordinal (== number of frames currently in the
// file at any quiescent moment).
func (w *Writer) Position() uint32 {
	return w.position
}

// NeedTrim reports the writer's sticky trim bit.
func (w *Writer) NeedTrim() bool {
	return w.needTrim
}

func (w *Writer) fits(frame []byte) bool {
	return w.mm.WriteOffset()+uint64(len(frame)) <= uint64(w.mm.Len()-mmap.HeaderSize)
}

// Write is the Looper's single entry point. duplicated is true when the
// in-memory index already held the key before this put (or this is a
// delete of an existing key); it sets needTrim for the writer's life until
// the next trim actually runs.
func (w *Writer) Write(rec record.Record, duplicated bool) error {
	if duplicated {
		w.needTrim = true
	}

	frame, err := w.codec.EncodeFrame(rec.Encode(), w.position)
	if err != nil {
		return err
	}

	if w.fits(frame) {
		if err := w.mm.Append(frame); err != nil {
			return err
		}
		w.position++
		return nil
	}

	if w.needTrim {
		return w.compact(rec)
	}

	return w.growAndAppend(frame)
}

func (w *Writer) growAndAppend(frame []byte) error {
	for !w.fits(frame) {
		if err := w.grow(); err != nil {
			return err
		}
	}
	if err := w.mm.Append(frame); err != nil {
		return err
	}
	w.position++
	return nil
}

func (w *Writer) grow() error {
	newSize, err := w.config.Expand()
	if err != nil {
		return err
	}
	if err := w.mm.Close(); err != nil {
		return err
	}
	rebuilt, err := mmap.Open(w.config.File(), int(newSize))
	if err != nil {
		return err
	}
	w.mm = rebuilt
	return nil
}

// compact rewrites the file keeping only the latest frame per live key,
// folding in the incoming record that didn't fit.
func (w *Writer) compact(incoming record.Record) error {
	entries, _, err := Replay(w.mm, w.codec)
	if err != nil {
		return err
	}
	if incoming.IsTombstone() {
		delete(entries, incoming.Key)
	} else {
		entries[incoming.Key] = incoming
	}

	w.mm.Reset()
	w.position = 0

	if w.stream != nil {
		if err := w.stream.Reinit(w.metaPath); err != nil {
			return err
		}
	}

	for _, rec := range entries {
		frame, err := w.codec.EncodeFrame(rec.Encode(), w.position)
		if err != nil {
			return err
		}
		for !w.fits(frame) {
			if err := w.grow(); err != nil {
				return err
			}
		}
		if err := w.mm.Append(frame); err != nil {
			return err
		}
		w.position++
	}

	w.needTrim = false
	minikvlog.Debugf(logTag, "compacted to %d live frames", len(entries))
	return nil
}

// RemoveFile unmaps and deletes the data file, used by clear_data. The
// meta file is not touched here; the Store's clear task removes it.
func (w *Writer) RemoveFile() error {
	if err := w.mm.Close(); err != nil {
		minikvlog.Warnf(logTag, "close mmap during remove: %v", err)
	}
	return w.config.RemoveFile()
}

// Close flushes and releases the mmap and file handle without deleting
// anything, used when the last handle to a Store drops.
func (w *Writer) Close() error {
	if err := w.mm.Close(); err != nil {
		return err
	}
	return w.config.Close()
}

// FileSize reports the current on-disk data file size.
func (w *Writer) FileSize() (int64, error) {
	return w.config.FileSize()
}

// Replay reconstructs the key->Record map reachable from mm's current
// content by decoding frames in order. A frame whose integrity check
// fails is logged and skipped; replay continues with the next frame.
func Replay(mm *mmap.Map, c codec.Codec) (map[string]record.Record, uint32, error) {
	out := make(map[string]record.Record)
	w := mm.WriteOffset()
	var pos uint32
	var off uint64
	for off < w {
		buf, err := mm.Read(int(off), int(w-off))
		if err != nil {
			return nil, 0, errs.Wrap(errs.IOError, err)
		}
		rec, consumed, err := c.DecodeFrame(buf, pos)
		if err != nil {
			minikvlog.Warnf(logTag, "stopping replay at position %d: %v", pos, err)
			break
		}
		if consumed <= 0 {
			break
		}
		if rec == nil {
			minikvlog.Warnf(logTag, "skipping corrupt frame at position %d", pos)
		} else if rec.IsTombstone() {
			delete(out, rec.Key)
		} else {
			out[rec.Key] = *rec
		}
		off += uint64(consumed)
		pos++
	}
	return out, pos, nil
}
