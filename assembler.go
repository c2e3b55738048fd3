package dsv

import (
	"bytes"
	"strconv"
	"strings"
)

// Record maps header name to decoded field value. Its key set equals
// the installed header list whenever Strict is true; in non-strict
// mode a short row leaves trailing headers mapped to "" and a long row
// gains synthetic "_k" keys for the surplus fields.
type Record map[string]string

// assembler is the row-assembly layer of §4.3. It implements fieldSink
// so the scanner can deliver fields and row boundaries directly into
// it, and accumulates completed records for the driver to drain.
type assembler struct {
	cfg Config

	lineIndex  int
	headers    []string
	headersSet bool

	rowData   []byte
	rowBounds []int
	fieldsBuf [][]byte

	out []Record
}

func newAssembler(cfg Config) *assembler {
	a := &assembler{cfg: cfg}
	if cfg.Headers == HeadersLiteral {
		a.headers = append([]string(nil), cfg.HeaderNames...)
		a.headersSet = true
	}
	return a
}

func (a *assembler) field(value []byte) {
	start := len(a.rowData)
	a.rowData = append(a.rowData, value...)
	a.rowBounds = append(a.rowBounds, start, len(a.rowData))
}

// currentFields materialises [][]byte views into rowData for the row
// that just closed. The returned slice is only valid until the next
// call to field or rowEnd.
func (a *assembler) currentFields() [][]byte {
	n := len(a.rowBounds) / 2
	if cap(a.fieldsBuf) < n {
		a.fieldsBuf = make([][]byte, n)
	}
	a.fieldsBuf = a.fieldsBuf[:n]
	for i := 0; i < n; i++ {
		s, e := a.rowBounds[2*i], a.rowBounds[2*i+1]
		a.fieldsBuf[i] = a.rowData[s:e]
	}
	return a.fieldsBuf
}

// rowEnd implements fieldSink. It applies skipLines, then header
// acquisition on the first surviving row, then record construction for
// every row after that, per §4.3.
func (a *assembler) rowEnd(offset int64) error {
	fields := a.currentFields()
	defer func() {
		a.rowData = a.rowData[:0]
		a.rowBounds = a.rowBounds[:0]
	}()

	if a.lineIndex < a.cfg.SkipLines {
		a.lineIndex++
		return nil
	}
	a.lineIndex++

	if !a.headersSet {
		if a.cfg.Headers == HeadersDisabled {
			a.headers = syntheticHeaders(len(fields))
			a.headersSet = true
			return a.buildRecord(fields, offset)
		}
		headers, err := a.decodeHeaders(fields, offset)
		if err != nil {
			return err
		}
		a.headers = headers
		a.headersSet = true
		return nil
	}

	return a.buildRecord(fields, offset)
}

func (a *assembler) decodeHeaders(fields [][]byte, offset int64) ([]string, error) {
	out := make([]string, len(fields))
	for i, f := range fields {
		v, ok := decodeField(f, false)
		if !ok {
			return nil, newParseError(offset, KindInvalidData, ErrInvalidData)
		}
		out[i] = v
	}
	return out, nil
}

func (a *assembler) buildRecord(fields [][]byte, offset int64) error {
	n := len(fields)
	headerCount := len(a.headers)

	if a.cfg.Strict && n != headerCount {
		return newParseError(offset, KindRowLengthMismatch, ErrRowLengthMismatch)
	}

	size := headerCount
	if n > size {
		size = n
	}
	rec := make(Record, size)

	for i := 0; i < headerCount; i++ {
		if i >= n {
			rec[a.headers[i]] = ""
			continue
		}
		v, ok := decodeField(fields[i], a.cfg.Raw)
		if !ok {
			return newParseError(offset, KindInvalidData, ErrInvalidData)
		}
		rec[a.headers[i]] = v
	}
	for i := headerCount; i < n; i++ {
		v, ok := decodeField(fields[i], a.cfg.Raw)
		if !ok {
			return newParseError(offset, KindInvalidData, ErrInvalidData)
		}
		rec[syntheticKey(i)] = v
	}

	a.out = append(a.out, rec)
	return nil
}

// drain returns and clears the records accumulated since the last
// drain call.
func (a *assembler) drain() []Record {
	if len(a.out) == 0 {
		return nil
	}
	out := a.out
	a.out = nil
	return out
}

func syntheticHeaders(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = syntheticKey(i)
	}
	return out
}

func syntheticKey(i int) string {
	return "_" + strconv.Itoa(i)
}

// decodeField converts a raw field's bytes into its record value. In
// raw mode the bytes pass through unchanged (a Go string is already
// just a byte sequence). Otherwise it is rejected if it contains a NUL
// byte, and any invalid UTF-8 is replaced with U+FFFD.
func decodeField(b []byte, raw bool) (string, bool) {
	if raw {
		return string(b), true
	}
	if bytes.IndexByte(b, 0) >= 0 {
		return "", false
	}
	return strings.ToValidUTF8(string(b), "�"), true
}
