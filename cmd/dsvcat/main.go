// Command dsvcat is a thin demonstration binary over the dsv core,
// analogous to the teacher's examples/main.go. It is explicitly outside
// the core's scope (spec.md §1 lists "the command-line front-end" under
// "out of scope") and contains no parsing semantics: it only wires
// os.Stdin/a file argument into a Parser and prints records.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rowstream/dsv"
	"github.com/rowstream/dsv/adapter"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "dsvcat:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		separator   string
		quote       string
		noQuote     bool
		strict      bool
		raw         bool
		skipLines   int
		comment     string
		maxRowBytes int
		noHeaders   bool
	)

	cmd := &cobra.Command{
		Use:   "dsvcat [file]",
		Short: "Stream a DSV/CSV/TSV file through the dsv core and print JSON records",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := os.Stdin
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				src = f
			}

			cfg := dsv.Config{
				Strict:      strict,
				Raw:         raw,
				SkipLines:   skipLines,
				MaxRowBytes: maxRowBytes,
			}
			if separator != "" {
				cfg.Separator = separator[0]
			}
			if noQuote {
				cfg.QuoteDisabled = true
			} else if quote != "" {
				cfg.Quote = quote[0]
			}
			if comment != "" {
				cfg.SkipComments = dsv.CommentsEnabled
				cfg.CommentByte = comment[0]
			}
			if noHeaders {
				cfg.Headers = dsv.HeadersDisabled
			}

			parser, err := dsv.NewParser(cfg)
			if err != nil {
				return err
			}

			stream := adapter.New(src, parser)
			enc := json.NewEncoder(cmd.OutOrStdout())
			for {
				rec, err := stream.Next()
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return err
				}
				if err := enc.Encode(rec); err != nil {
					return err
				}
			}
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&separator, "separator", ",", "field separator byte")
	flags.StringVar(&quote, "quote", "\"", "quote byte")
	flags.BoolVar(&noQuote, "no-quote", false, "disable quote handling")
	flags.BoolVar(&strict, "strict", false, "reject rows whose field count differs from the header count")
	flags.BoolVar(&raw, "raw", false, "emit raw field bytes instead of validated UTF-8")
	flags.IntVar(&skipLines, "skip-lines", 0, "number of leading rows to discard before header detection")
	flags.StringVar(&comment, "comment", "", "treat lines starting with this byte as comments")
	flags.IntVar(&maxRowBytes, "max-row-bytes", 0, "maximum bytes per row (0 uses the library default)")
	flags.BoolVar(&noHeaders, "no-headers", false, "synthesize _0.._n headers instead of reading them from the first row")

	return cmd
}
