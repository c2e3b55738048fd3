package dsv

// Parser is the public driver of §4.4. It owns configuration and
// lifecycle, and exposes the records the core assembles to external
// collaborators. A Parser is single-threaded and non-suspending: Push
// and Flush only ever return once they have fully consumed their
// argument (§5).
type Parser struct {
	cfg Config

	front     *encodingFront
	scan      *scanner
	asm       *assembler
	flushed   bool
	poisonErr error
}

// NewParser validates cfg, applies its documented defaults, and
// returns a ready-to-use Parser. It returns an error wrapping
// ErrInvalidConfig if cfg fails validation.
func NewParser(cfg Config) (*Parser, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	return &Parser{
		cfg:  cfg,
		front: newEncodingFront(),
		scan:  newScanner(cfg),
		asm:   newAssembler(cfg),
	}, nil
}

// Push feeds chunk through the encoding front-end, field scanner, and
// row assembler, returning every record assembled during this call.
// Chunk boundaries are never visible in the returned records (§8
// chunk-invariance). If a fatal error occurs partway through chunk,
// Push still returns the records completed before the failing byte
// was reached, alongside the error.
func (p *Parser) Push(chunk []byte) ([]Record, error) {
	if p.poisonErr != nil {
		return nil, p.poisonErr
	}
	if p.flushed {
		p.poisonErr = ErrParserClosed
		return nil, ErrParserClosed
	}

	view, err := p.front.push(chunk)
	if err != nil {
		return nil, p.poison(err)
	}
	if len(view) == 0 {
		return nil, nil
	}
	if err := p.scan.run(view, p.asm); err != nil {
		// Records assembled before the fatal byte was reached are still
		// valid output; only rows after the error are lost.
		return p.asm.drain(), p.poison(err)
	}
	return p.asm.drain(), nil
}

// Flush signals end of input: it closes any open field/row and returns
// the final batch of records. After Flush, further Push or Flush calls
// fail with the same terminal error.
func (p *Parser) Flush() ([]Record, error) {
	if p.poisonErr != nil {
		return nil, p.poisonErr
	}
	if p.flushed {
		p.poisonErr = ErrParserClosed
		return nil, ErrParserClosed
	}
	p.flushed = true

	if err := p.front.flush(); err != nil {
		return nil, p.poison(err)
	}
	if tail := p.front.sniffedTail(); len(tail) > 0 {
		if err := p.scan.run(tail, p.asm); err != nil {
			return p.asm.drain(), p.poison(err)
		}
	}
	if err := p.scan.flush(p.asm); err != nil {
		return p.asm.drain(), p.poison(err)
	}
	return p.asm.drain(), nil
}

// Headers returns the installed header list and true once headers have
// been observed, or nil and false before that.
func (p *Parser) Headers() ([]string, bool) {
	if !p.asm.headersSet {
		return nil, false
	}
	return append([]string(nil), p.asm.headers...), true
}

// poison records err as the terminal error and translates internal
// sentinel error types into the exported ParseError/sentinel pairing
// from §7.
func (p *Parser) poison(err error) error {
	wrapped := wrapFatal(err, p.scan.offset)
	p.poisonErr = wrapped
	return wrapped
}

func wrapFatal(err error, offset int64) error {
	if pe, ok := err.(*ParseError); ok {
		return pe
	}
	switch e := err.(type) {
	case *rowTooLargeError:
		return newParseError(e.offset, KindRowTooLarge, ErrRowTooLarge)
	case *unterminatedQuoteError:
		return newParseError(e.offset, KindUnterminatedQuote, ErrUnterminatedQuote)
	case *encodingError:
		return newParseError(offset, KindInvalidEncoding, ErrInvalidEncoding)
	default:
		return err
	}
}
