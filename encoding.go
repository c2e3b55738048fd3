package dsv

import (
	"unicode/utf16"
	"unicode/utf8"
)

// encodingMode is the detected input encoding, §3's "encoding mode".
type encodingMode int

const (
	modeUnknown encodingMode = iota
	modeUTF8
	modeUTF8BOM
	modeUTF16LE
	modeUTF16BE
)

// encodingFront is the encoding front-end of §4.1. It sniffs a BOM from
// the first bytes of the stream, then turns every subsequent chunk into
// a UTF-8 byte view with no BOM, stashing an odd trailing byte between
// UTF-16 chunks.
//
// The transcoding in transcode below implements §4.1's algorithm
// directly on unicode/utf16 and unicode/utf8: the spec's own description
// ("surrogate pairs combined into a single code point... unpaired
// surrogates substituted with U+FFFD") is, verbatim, the documented
// contract of unicode/utf16.Decode. See DESIGN.md for why this ambient
// concern is implemented on the standard library rather than
// golang.org/x/text/encoding/unicode.
type encodingFront struct {
	mode  encodingMode
	sniff []byte // buffered bytes while the BOM decision is pending
	carry []byte // 0 or 1 trailing byte of a UTF-16 chunk, held for the next push
	buf   []uint16
	out   []byte

	// pendingHigh holds a high surrogate code unit whose low-surrogate
	// partner had not yet arrived when the chunk that produced it ended,
	// so the pair can still be combined correctly across the boundary.
	pendingHigh    uint16
	hasPendingHigh bool
}

// isHighSurrogate reports whether r is in the high (leading) half of a
// UTF-16 surrogate pair, D800-DBFF. Only a high surrogate can begin a
// valid pair and so is worth carrying forward; a lone low surrogate is
// invalid on its own and is replaced immediately.
func isHighSurrogate(r rune) bool {
	return r >= 0xD800 && r <= 0xDBFF
}

func newEncodingFront() *encodingFront {
	return &encodingFront{}
}

// push returns the UTF-8 view of chunk. The returned slice is either
// chunk itself (UTF-8 passthrough) or a buffer owned by the
// encodingFront, and is only valid until the next call to push or
// flush.
func (e *encodingFront) push(chunk []byte) ([]byte, error) {
	if e.mode == modeUnknown {
		e.sniff = append(e.sniff, chunk...)
		if len(e.sniff) < 2 {
			return nil, nil
		}
		switch {
		case e.sniff[0] == 0xFF && e.sniff[1] == 0xFE:
			e.mode = modeUTF16LE
			rest := append([]byte(nil), e.sniff[2:]...)
			e.sniff = nil
			return e.transcode(rest, false)
		case e.sniff[0] == 0xFE && e.sniff[1] == 0xFF:
			e.mode = modeUTF16BE
			rest := append([]byte(nil), e.sniff[2:]...)
			e.sniff = nil
			return e.transcode(rest, true)
		case e.sniff[0] == 0xEF && e.sniff[1] == 0xBB:
			if len(e.sniff) < 3 {
				// Hold the decision until the third byte arrives.
				return nil, nil
			}
			if e.sniff[2] == 0xBF {
				e.mode = modeUTF8BOM
				rest := e.sniff[3:]
				e.sniff = nil
				return rest, nil
			}
			e.mode = modeUTF8
			rest := e.sniff
			e.sniff = nil
			return rest, nil
		default:
			e.mode = modeUTF8
			rest := e.sniff
			e.sniff = nil
			return rest, nil
		}
	}

	switch e.mode {
	case modeUTF8, modeUTF8BOM:
		return chunk, nil
	case modeUTF16LE:
		return e.transcode(chunk, false)
	case modeUTF16BE:
		return e.transcode(chunk, true)
	default:
		return chunk, nil
	}
}

// flush finalises the encoding front-end. A held one-byte UTF-16 carry,
// or an unpaired high surrogate still awaiting its low half, at this
// point means the wire stream ended mid-code-unit or mid-surrogate-pair.
func (e *encodingFront) flush() error {
	if e.mode == modeUnknown && len(e.sniff) > 0 {
		// Fewer than 2 (or 3, for a pending EF BB decision) bytes ever
		// arrived: treat whatever was buffered as plain UTF-8.
		e.mode = modeUTF8
	}
	if len(e.carry) > 0 || e.hasPendingHigh {
		return &encodingError{}
	}
	return nil
}

// sniffedTail returns bytes that were buffered for BOM detection but
// never resolved into the UTF-8 view (the modeUnknown short-stream
// case handled by flush). Callers should push this through the scanner
// after flush confirms plain UTF-8.
func (e *encodingFront) sniffedTail() []byte {
	out := e.sniff
	e.sniff = nil
	return out
}

type encodingError struct{}

func (e *encodingError) Error() string { return "dsv: invalid encoding" }

// transcode converts a chunk of UTF-16 bytes (of the given endianness)
// into UTF-8, carrying an odd trailing byte forward to the next call.
func (e *encodingFront) transcode(chunk []byte, bigEndian bool) ([]byte, error) {
	if len(e.carry) > 0 {
		chunk = append(e.carry, chunk...)
		e.carry = nil
	}
	if len(chunk) == 0 {
		return nil, nil
	}
	if len(chunk)%2 == 1 {
		e.carry = append(e.carry[:0], chunk[len(chunk)-1])
		chunk = chunk[:len(chunk)-1]
	}

	unitCount := len(chunk) / 2
	if cap(e.buf) < unitCount {
		e.buf = make([]uint16, unitCount)
	}
	units := e.buf[:unitCount]
	for i := 0; i < unitCount; i++ {
		b0, b1 := chunk[2*i], chunk[2*i+1]
		if bigEndian {
			units[i] = uint16(b0)<<8 | uint16(b1)
		} else {
			units[i] = uint16(b1)<<8 | uint16(b0)
		}
	}

	e.out = e.out[:0]
	i := 0
	if e.hasPendingHigh {
		if unitCount == 0 {
			// Nothing arrived this call to pair against; keep holding
			// the high surrogate for the next one.
			return e.out, nil
		}
		e.hasPendingHigh = false
		r2 := utf16.DecodeRune(rune(e.pendingHigh), rune(units[0]))
		if r2 == utf8.RuneError {
			e.out = utf8.AppendRune(e.out, utf8.RuneError)
			// units[0] was not consumed by the failed pairing; let the
			// main loop below reprocess it from scratch.
		} else {
			e.out = utf8.AppendRune(e.out, r2)
			i = 1
		}
	}
	for ; i < len(units); i++ {
		r := rune(units[i])
		if isHighSurrogate(r) {
			if i+1 < len(units) {
				r2 := utf16.DecodeRune(r, rune(units[i+1]))
				if r2 == utf8.RuneError {
					e.out = utf8.AppendRune(e.out, utf8.RuneError)
					continue
				}
				e.out = utf8.AppendRune(e.out, r2)
				i++
				continue
			}
			// The low half may still be in the next chunk.
			e.hasPendingHigh = true
			e.pendingHigh = uint16(r)
			continue
		}
		if utf16.IsSurrogate(r) {
			// A low surrogate with no preceding high surrogate is
			// invalid on its own.
			e.out = utf8.AppendRune(e.out, utf8.RuneError)
			continue
		}
		e.out = utf8.AppendRune(e.out, r)
	}
	return e.out, nil
}
