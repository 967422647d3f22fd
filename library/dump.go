package library

import (
	"fmt"
	"io"
)

// DumpSection is one table read back from a database file.
type DumpSection struct {
	Kind  Kind
	Lines []string
}

// ParseDump reads a file produced by WriteDatabaseFile. Each section is a
// catalog kind name, a blank line, the rows, and a blank line.
func ParseDump(r io.Reader) ([]DumpSection, error) {
	const (
		wantHeader = iota
		wantGap
		inRows
	)

	var (
		sections []DumpSection
		cur      *DumpSection
		state    = wantHeader
	)
	err := scanLines(r, func(n int, line string) error {
		switch state {
		case wantHeader:
			if line == "" {
				return nil
			}
			if !IsKind(line) {
				return fmt.Errorf("line %d: %q is not a table name: %w", n, line, ErrMalformedDump)
			}
			sections = append(sections, DumpSection{Kind: Kind(line)})
			cur = &sections[len(sections)-1]
			state = wantGap
		case wantGap:
			if line != "" {
				return fmt.Errorf("line %d: want blank line after %s header: %w", n, cur.Kind, ErrMalformedDump)
			}
			state = inRows
		case inRows:
			if line == "" {
				state = wantHeader
				return nil
			}
			cur.Lines = append(cur.Lines, line)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if state == wantGap {
		return nil, fmt.Errorf("truncated section %s: %w", cur.Kind, ErrMalformedDump)
	}
	return sections, nil
}
