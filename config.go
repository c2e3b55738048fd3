package dsv

import "fmt"

// HeaderMode selects how the row assembler acquires header names.
type HeaderMode int

const (
	// HeadersInfer installs the first non-skipped, non-comment row as
	// headers. This is the default.
	HeadersInfer HeaderMode = iota
	// HeadersLiteral installs Config.HeaderNames literally and treats
	// the first data row as a record, not a header row.
	HeadersLiteral
	// HeadersDisabled synthesises _0, _1, ... as header names from the
	// first data row's width.
	HeadersDisabled
)

// CommentMode selects whether comment lines are recognised and skipped.
type CommentMode int

const (
	// CommentsDisabled treats every line as data, including lines that
	// begin with what would otherwise be a comment byte.
	CommentsDisabled CommentMode = iota
	// CommentsEnabled skips lines whose first byte equals
	// Config.CommentByte (or '#' if CommentByte is zero).
	CommentsEnabled
)

// Config is immutable parser configuration. The zero value is not
// ready to use; pass it to NewParser, which applies defaults and
// validates it.
type Config struct {
	// Separator is the single byte that delimits fields. Default ','.
	Separator byte
	// Quote is the single byte that delimits quoted fields. Default
	// '"'. Set QuoteDisabled to turn off quoting entirely.
	Quote byte
	// QuoteDisabled turns off quote handling: Quote is treated as an
	// ordinary byte.
	QuoteDisabled bool
	// Escape is the single byte that escapes a following Quote inside
	// a quoted field. Default: same as Quote (doubled-quote escaping).
	Escape byte
	// Newline is the single byte that terminates a row. Default '\n'.
	// A '\r' immediately preceding Newline is silently discarded.
	Newline byte

	// Headers selects how header names are acquired. Default
	// HeadersInfer.
	Headers HeaderMode
	// HeaderNames is used literally when Headers == HeadersLiteral.
	HeaderNames []string

	// SkipLines is the number of rows to discard before header
	// detection. Must be non-negative.
	SkipLines int

	// SkipComments selects comment-line handling.
	SkipComments CommentMode
	// CommentByte is the byte that marks a comment line when
	// SkipComments == CommentsEnabled. Default '#'.
	CommentByte byte

	// MaxRowBytes caps the cumulative bytes of one row, including
	// separators and the terminating newline. Must be positive.
	MaxRowBytes int

	// Strict rejects rows whose field count differs from the header
	// count.
	Strict bool

	// Raw emits field values as raw byte sequences rather than
	// decoded strings, and skips NUL-byte validation.
	Raw bool
}

const defaultMaxRowBytes = 1 << 20 // 1 MiB

// withDefaults returns a copy of cfg with zero-valued fields replaced by
// their documented defaults, and validates the result. It is called
// once by NewParser.
func (cfg Config) withDefaults() (Config, error) {
	if cfg.Separator == 0 {
		cfg.Separator = ','
	}
	if !cfg.QuoteDisabled && cfg.Quote == 0 {
		cfg.Quote = '"'
	}
	if cfg.QuoteDisabled {
		cfg.Escape = 0
	} else if cfg.Escape == 0 {
		cfg.Escape = cfg.Quote
	}
	if cfg.Newline == 0 {
		cfg.Newline = '\n'
	}
	if cfg.SkipComments == CommentsEnabled && cfg.CommentByte == 0 {
		cfg.CommentByte = '#'
	}
	if cfg.MaxRowBytes == 0 {
		cfg.MaxRowBytes = defaultMaxRowBytes
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// validate enforces the construction-time checks named in §7
// (InvalidConfig): SkipLines and MaxRowBytes bounds, and HeaderNames
// presence. Collisions between Separator/Quote/Escape/Newline/CommentByte
// are permitted by §6 and resolved by priority order in the scanner
// rather than rejected here.
func (cfg Config) validate() error {
	if cfg.SkipLines < 0 {
		return newParseError(0, KindInvalidConfig, fmt.Errorf("%w: skipLines must be non-negative", ErrInvalidConfig))
	}
	if cfg.MaxRowBytes <= 0 {
		return newParseError(0, KindInvalidConfig, fmt.Errorf("%w: maxRowBytes must be positive", ErrInvalidConfig))
	}
	if cfg.Headers == HeadersLiteral && len(cfg.HeaderNames) == 0 {
		return newParseError(0, KindInvalidConfig, fmt.Errorf("%w: headerNames must be non-empty when Headers is HeadersLiteral", ErrInvalidConfig))
	}
	return nil
}
