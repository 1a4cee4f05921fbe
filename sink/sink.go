// Package sink implements the trajectory output sinks: CSV file append,
// in-memory buffering, and fan-out to multiple sinks. The channel-backed
// live sink for the monitor server is monitor.LiveSink.
package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"

	"gmbp/system"
)

// Row is one trajectory observation or terminal event: a replicate number,
// a time, and the state vector at that time.
type Row struct {
	Replicate int64
	Time      float64
	State     system.State
}

// Sink receives trajectory rows. Implementations must make WriteRow safe to
// call from a single writer goroutine; a sink that receives rows from
// several replicates receives them through one writer, so Sink itself need
// not be internally synchronized for concurrent writers. Callers serialize
// writes instead (see engine.RunReplicates, which merges per-replicate row
// channels onto a single writer goroutine).
type Sink interface {
	WriteRow(Row) error
	Close() error
}

// ErrOpenSink indicates the sink's backing resource could not be opened.
type ErrOpenSink struct {
	Path string
	Err  error
}

func (e *ErrOpenSink) Error() string {
	return fmt.Sprintf("sink: open %q: %v", e.Path, e.Err)
}
func (e *ErrOpenSink) Unwrap() error { return e.Err }

// FileSink appends CSV rows to a file: replicate,time,s0,s1,...,sK-1.
// The file is opened for append; the caller is responsible for any header
// line.
type FileSink struct {
	f  *os.File
	w  *csv.Writer
	mu sync.Mutex
}

// OpenFile opens (creating if absent) path for append and returns a
// FileSink.
func OpenFile(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, &ErrOpenSink{Path: path, Err: err}
	}
	return &FileSink{f: f, w: csv.NewWriter(f)}, nil
}

// WriteRow writes one CSV row and flushes immediately, so writes are
// append-only and line-atomic at the OS level.
func (fs *FileSink) WriteRow(row Row) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	record := make([]string, 0, len(row.State)+2)
	record = append(record, strconv.FormatInt(row.Replicate, 10))
	record = append(record, strconv.FormatFloat(row.Time, 'g', -1, 64))
	for _, v := range row.State {
		record = append(record, strconv.FormatInt(v, 10))
	}

	if err := fs.w.Write(record); err != nil {
		return fmt.Errorf("sink: write row: %w", err)
	}
	fs.w.Flush()
	return fs.w.Error()
}

// Close flushes and closes the underlying file.
func (fs *FileSink) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.w.Flush()
	if err := fs.w.Error(); err != nil {
		_ = fs.f.Close()
		return err
	}
	return fs.f.Close()
}

// BufferSink accumulates rows in memory, without a backing file; the tests
// use it to inspect trajectories.
type BufferSink struct {
	mu   sync.Mutex
	Rows []Row
}

func NewBuffer() *BufferSink { return &BufferSink{} }

func (bs *BufferSink) WriteRow(row Row) error {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.Rows = append(bs.Rows, Row{Replicate: row.Replicate, Time: row.Time, State: row.State.Clone()})
	return nil
}

func (bs *BufferSink) Close() error { return nil }

// Snapshot returns a copy of the rows written so far.
func (bs *BufferSink) Snapshot() []Row {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	out := make([]Row, len(bs.Rows))
	copy(out, bs.Rows)
	return out
}

// TeeSink fans a row out to every underlying sink. The first error from any
// sink is returned, but WriteRow is still attempted against every sink.
type TeeSink struct {
	Sinks []Sink
}

func Tee(sinks ...Sink) *TeeSink { return &TeeSink{Sinks: sinks} }

func (t *TeeSink) WriteRow(row Row) error {
	var firstErr error
	for _, s := range t.Sinks {
		if err := s.WriteRow(row); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (t *TeeSink) Close() error {
	var firstErr error
	for _, s := range t.Sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
