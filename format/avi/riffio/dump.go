package riffio

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// maxDumpDepth bounds recursion on crafted files whose lists nest without end.
const maxDumpDepth = 16

// FprintTree writes one line per chunk of rng (offset, size, ID and list type),
// descending into lists. depth sets the initial indentation.
func FprintTree(w io.Writer, r io.ReaderAt, rng Range, depth int) error {
	c, err := First(r, rng)
	for ; err == nil; c, err = Next(r, rng, c) {
		indent := strings.Repeat("  ", depth)
		if !c.IsList() {
			if _, err = fmt.Fprintf(w, "%s%-10d %-10d %s\n", indent, c.Offset, c.Size, c.ID); err != nil {
				return err
			}
			continue
		}
		if _, err = fmt.Fprintf(w, "%s%-10d %-10d %s %s\n", indent, c.Offset, c.Size, c.ID, c.ListType); err != nil {
			return err
		}
		if c.ListType == MOVI || depth >= maxDumpDepth {
			continue
		}
		children, cerr := ChildRange(c)
		if cerr != nil {
			return cerr
		}
		if children.End > rng.End {
			children.End = rng.End
		}
		if err = FprintTree(w, r, children, depth+1); err != nil {
			return err
		}
	}
	if errors.Is(err, ErrEndOfRange) {
		return nil
	}
	return err
}

// FprintMovi lists the sample chunks of a movi list, which FprintTree skips.
func FprintMovi(w io.Writer, r io.ReaderAt, movi Chunk, depth int) error {
	rng, err := ChildRange(movi)
	if err != nil {
		return err
	}
	return FprintTree(w, r, rng, depth)
}
