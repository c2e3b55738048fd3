// Package adapter wires the dsv core into an io.Reader-shaped host and
// applies the mapHeaders/mapValues transformation hooks the core never
// observes (see the "Host stream adapter" entry in the core's
// SPEC_FULL.md). It is an external collaborator, not part of the
// core: it contains no parsing semantics of its own, only host
// plumbing and post-hoc field rewriting.
package adapter

import (
	"io"

	"github.com/rowstream/dsv"
)

// HeaderMapper renames or drops a header. Returning ok == false drops
// the column from every subsequent record.
type HeaderMapper func(header string, index int) (renamed string, ok bool)

// ValueMapper rewrites one cell's value after header renaming has been
// applied. header is the (possibly renamed) key the value will be
// stored under; index is the header's original position, or -1 for a
// surplus field beyond the header count.
type ValueMapper func(header string, index int, value string) string

// Stream pulls bytes from src, feeds them through parser, and exposes
// records one at a time via Next, mirroring the pull-based shape of
// bufio.Scanner rather than a channel: the core forbids internal
// concurrency, so there is no background goroutine to feed a channel.
type Stream struct {
	src    io.Reader
	parser *dsv.Parser

	mapHeaders HeaderMapper
	mapValues  ValueMapper

	buf []byte

	pending []dsv.Record
	done    bool
	err     error

	headerMapBuilt bool
	origHeaders    []string
	renamed        map[string]string // original header -> renamed header, absent if dropped
	indexOf        map[string]int    // original header -> 0-based index
}

// Option configures a Stream at construction.
type Option func(*Stream)

// WithHeaderMapper installs a HeaderMapper.
func WithHeaderMapper(m HeaderMapper) Option {
	return func(s *Stream) { s.mapHeaders = m }
}

// WithValueMapper installs a ValueMapper.
func WithValueMapper(m ValueMapper) Option {
	return func(s *Stream) { s.mapValues = m }
}

// WithBufferSize overrides the chunk size read from src on each pull.
func WithBufferSize(n int) Option {
	return func(s *Stream) {
		if n > 0 {
			s.buf = make([]byte, n)
		}
	}
}

const defaultReadSize = 64 * 1024

// New builds a Stream reading from src through parser.
func New(src io.Reader, parser *dsv.Parser, opts ...Option) *Stream {
	s := &Stream{
		src:    src,
		parser: parser,
		buf:    make([]byte, defaultReadSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Next returns the next mapped record, or io.EOF once the underlying
// parser has been flushed and every buffered record delivered. Any
// fatal parser error, or any non-EOF error from src, is returned once
// and then repeated on every subsequent call.
func (s *Stream) Next() (dsv.Record, error) {
	for {
		if len(s.pending) > 0 {
			rec := s.pending[0]
			s.pending = s.pending[1:]
			return s.remap(rec), nil
		}
		if s.err != nil {
			return nil, s.err
		}
		if s.done {
			return nil, io.EOF
		}

		n, rerr := s.src.Read(s.buf)
		if n > 0 {
			recs, perr := s.parser.Push(s.buf[:n])
			if perr != nil {
				s.err = perr
				continue
			}
			s.buildHeaderMapOnce()
			s.pending = recs
		}
		if rerr == io.EOF {
			recs, perr := s.parser.Flush()
			s.done = true
			if perr != nil {
				s.err = perr
				continue
			}
			s.buildHeaderMapOnce()
			s.pending = append(s.pending, recs...)
			continue
		}
		if rerr != nil {
			s.err = rerr
			continue
		}
	}
}

// Headers returns the renamed header list, or nil and false before
// headers are known. A column dropped by mapHeaders is omitted.
func (s *Stream) Headers() ([]string, bool) {
	orig, ok := s.parser.Headers()
	if !ok {
		return nil, false
	}
	s.buildHeaderMapOnce()
	if s.mapHeaders == nil {
		return orig, true
	}
	out := make([]string, 0, len(orig))
	for _, h := range orig {
		if renamed, keep := s.renamed[h]; keep {
			out = append(out, renamed)
		}
	}
	return out, true
}

func (s *Stream) buildHeaderMapOnce() {
	if s.headerMapBuilt {
		return
	}
	orig, ok := s.parser.Headers()
	if !ok {
		return
	}
	s.headerMapBuilt = true
	s.origHeaders = orig
	s.indexOf = make(map[string]int, len(orig))
	for i, h := range orig {
		s.indexOf[h] = i
	}
	if s.mapHeaders == nil {
		return
	}
	s.renamed = make(map[string]string, len(orig))
	for i, h := range orig {
		if renamed, keep := s.mapHeaders(h, i); keep {
			s.renamed[h] = renamed
		}
	}
}

// remap applies mapHeaders (rename/drop) and mapValues to one record.
// Synthetic "_k" keys for surplus fields beyond the header count are
// never renamed or dropped by mapHeaders, since that hook only governs
// named headers; mapValues still sees them, with index -1.
func (s *Stream) remap(rec dsv.Record) dsv.Record {
	if s.mapHeaders == nil && s.mapValues == nil {
		return rec
	}
	out := make(dsv.Record, len(rec))
	for key, value := range rec {
		idx, known := s.indexOf[key]
		outKey := key
		if known && s.renamed != nil {
			renamed, keep := s.renamed[key]
			if !keep {
				continue
			}
			outKey = renamed
		}
		if !known {
			idx = -1
		}
		if s.mapValues != nil {
			value = s.mapValues(outKey, idx, value)
		}
		out[outKey] = value
	}
	return out
}
