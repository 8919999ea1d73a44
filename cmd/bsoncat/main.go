// Command bsoncat renders a stream of concatenated BSON documents as
// newline-delimited extended JSON, optionally validating each document
// first. It exists to give the go-bson library a small, real consumer —
// modeled on mongo-tools' bsondump, trimmed to this package's scope.
package main

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	flags "github.com/jessevdk/go-flags"
	"github.com/pkg/errors"

	bson "github.com/cjntaylor/go-bson"
)

var usage = `<options> <file>

Render a .bson file (or stdin) as newline-delimited extended JSON.`

// Options mirrors bsondump's OutputOptions in shape: a handful of long
// flags, no positional-args magic beyond the one input file.
type Options struct {
	BSONFileName string `long:"bsonFile" value-name:"<path>" description:"path to BSON file to read; default is stdin"`
	OutFileName  string `long:"outFile" value-name:"<path>" description:"path to output file; default is stdout"`
	Legacy       bool   `long:"legacy" description:"render doubles/code the way the original C library did, instead of canonical extended JSON"`
	Validate     bool   `long:"validate" description:"validate each document before rendering; stop and report the first violation"`
	DollarKeys   bool   `long:"reject-dollar-keys" description:"with --validate, reject keys starting with '$'"`
	DotKeys      bool   `long:"reject-dot-keys" description:"with --validate, reject keys containing '.'"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	parser.Usage = usage
	args, err := parser.Parse()
	if err != nil {
		os.Exit(1)
	}
	if len(args) > 1 {
		fmt.Fprintf(os.Stderr, "too many positional arguments: %v\n", args)
		os.Exit(1)
	}
	if len(args) == 1 {
		if opts.BSONFileName != "" {
			fmt.Fprintln(os.Stderr, "cannot specify both a positional argument and --bsonFile")
			os.Exit(1)
		}
		opts.BSONFileName = args[0]
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "bsoncat: %v\n", err)
		os.Exit(1)
	}
}

func run(opts Options) error {
	in := os.Stdin
	if opts.BSONFileName != "" {
		f, err := os.Open(opts.BSONFileName)
		if err != nil {
			return errors.Wrap(err, "opening input")
		}
		defer f.Close()
		in = f
	}

	out := io.Writer(os.Stdout)
	if opts.OutFileName != "" {
		f, err := os.Create(opts.OutFileName)
		if err != nil {
			return errors.Wrap(err, "creating output")
		}
		defer f.Close()
		out = f
	}

	mode := bson.RenderModeCanonical
	if opts.Legacy {
		mode = bson.RenderModeLegacy
	}
	var flagBits bson.ValidateFlags
	if opts.Validate {
		flagBits |= bson.ValidateUTF8
	}
	if opts.DollarKeys {
		flagBits |= bson.ValidateDollarKeys
	}
	if opts.DotKeys {
		flagBits |= bson.ValidateDotKeys
	}

	rd := bufio.NewReader(in)
	w := bufio.NewWriter(out)
	defer w.Flush()

	for {
		doc, err := readOne(rd)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "reading document")
		}
		if opts.Validate {
			if ok, offset := bson.Validate(doc, flagBits); !ok {
				return errors.Errorf("validation failed at offset %d", offset)
			}
		}
		if _, err := fmt.Fprintln(w, doc.AsExtJSON(mode)); err != nil {
			return errors.Wrap(err, "writing output")
		}
	}
}

// readOne reads one length-prefixed BSON document from rd.
func readOne(rd *bufio.Reader) (*bson.Doc, error) {
	lenBytes, err := io.ReadAll(io.LimitReader(rd, 4))
	if err != nil {
		return nil, err
	}
	if len(lenBytes) == 0 {
		return nil, io.EOF
	}
	if len(lenBytes) != 4 {
		return nil, errors.New("truncated length prefix")
	}
	n := int(binary.LittleEndian.Uint32(lenBytes))
	if n < 5 {
		return nil, errors.New("declared document length too small")
	}
	buf := make([]byte, n)
	copy(buf, lenBytes)
	if _, err := io.ReadFull(rd, buf[4:]); err != nil {
		return nil, errors.Wrap(err, "reading document body")
	}
	return bson.NewFromData(buf)
}
