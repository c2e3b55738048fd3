package dsv

import (
	"errors"
	"testing"
)

func FuzzParserChunkInvariance(f *testing.F) {
	seeds := []string{
		"",
		"a,b,c\n",
		"a,\"b,b\",c\n",
		"a,\"b\nc\",d\n",
		"\"unterminated\n",
		"a\"b,c\n",
		"one\r\ntwo\r\n",
		"trailing,newline\n",
		"a,b\n1,2,3\n",
		"#comment\na,b\n1,2\n",
	}
	for _, seed := range seeds {
		f.Add(seed, uint8(0))
	}

	f.Fuzz(func(t *testing.T, input string, splitSeed uint8) {
		if len(input) > 1<<12 {
			t.Skip()
		}

		whole, wholeErr := runScenario(t, [][]byte{[]byte(input)})

		if len(input) > 0 {
			split := int(splitSeed) % (len(input) + 1)
			chunked, chunkedErr := runScenario(t, [][]byte{[]byte(input[:split]), []byte(input[split:])})

			if !sameOutcome(wholeErr, chunkedErr) {
				t.Fatalf("split=%d whole=%v chunked=%v input=%q", split, wholeErr, chunkedErr, input)
			}
			if wholeErr == nil && !recordsMatch(whole, chunked) {
				t.Fatalf("split=%d records differ: whole=%#v chunked=%#v input=%q", split, whole, chunked, input)
			}
		}
	})
}

func runScenario(t *testing.T, chunks [][]byte) ([]Record, error) {
	t.Helper()
	p, err := NewParser(Config{})
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}

	var out []Record
	for _, chunk := range chunks {
		recs, err := p.Push(chunk)
		out = append(out, recs...)
		if err != nil {
			return out, err
		}
	}
	recs, err := p.Flush()
	out = append(out, recs...)
	return out, err
}

func sameOutcome(a, b error) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	var pa, pb *ParseError
	if errors.As(a, &pa) && errors.As(b, &pb) {
		return pa.Kind == pb.Kind
	}
	return a.Error() == b.Error()
}

func recordsMatch(a, b []Record) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for k, v := range a[i] {
			if b[i][k] != v {
				return false
			}
		}
	}
	return true
}
