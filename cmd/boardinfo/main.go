// Command boardinfo prints a summary of a board file and can rewrite it in
// canonical form.
package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/dhackz/feather-of-despair/codec"
	"github.com/dhackz/feather-of-despair/persistence"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("boardinfo", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	strict := flags.Bool("strict", false, "fail on a truncated trailing record")
	entities := flags.Bool("entities", false, "list every entity")
	out := flags.StringP("out", "o", "", "write the re-encoded board to this file")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "usage: boardinfo [flags] <file|->\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		return 2
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return 2
	}

	var data []byte
	var err error
	if path := flags.Arg(0); path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		fmt.Fprintf(stderr, "boardinfo: read: %v\n", err)
		return 1
	}

	dec := codec.NewDecoder(bytes.NewReader(data))
	dec.Strict = *strict
	board, err := dec.Decode()
	if err != nil {
		fmt.Fprintf(stderr, "boardinfo: %v\n", err)
		return 1
	}
	canonical, err := codec.Marshal(board)
	if err != nil {
		fmt.Fprintf(stderr, "boardinfo: encode: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "Size: %dx%d\n", board.Size.Width, board.Size.Height)
	fmt.Fprintf(stdout, "Scale: %d\n", board.Scale)
	fmt.Fprintf(stdout, "Entities: %d\n", len(board.Entities))
	fmt.Fprintf(stdout, "Bytes: %d\n", len(data))
	if n := dec.Abandoned(); n > 0 {
		fmt.Fprintf(stdout, "Abandoned: %d trailing bytes\n", n)
	}
	fmt.Fprintf(stdout, "Digest: %s\n", persistence.Digest(canonical))
	if !bytes.Equal(data, canonical) {
		fmt.Fprintln(stdout, "Canonical: no")
	}

	if *entities {
		for i, e := range board.Entities {
			fmt.Fprintf(stdout, "  [%d] (%d, %d) %s movement=%t vision=%t\n",
				i, e.Position.X, e.Position.Y, e.Tile.Type, e.Tile.MovementBlocking, e.Tile.VisionBlocking)
		}
	}

	if *out != "" {
		if err := os.WriteFile(*out, canonical, 0o644); err != nil {
			fmt.Fprintf(stderr, "boardinfo: write: %v\n", err)
			return 1
		}
	}
	return 0
}
