package library

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by table operations. Callers compare with errors.Is.
var (
	ErrAlreadyExists    = errors.New("table already exists")
	ErrTableNotFound    = errors.New("table not found")
	ErrRecordNotFound   = errors.New("record not found")
	ErrUnknownTableKind = errors.New("unknown table kind")
	ErrConditionInvalid = errors.New("conditions invalid")
	ErrMalformedRecord  = errors.New("malformed record")
	ErrNameCollision    = errors.New("file name collides with an existing table")
	ErrNoTablesFound    = errors.New("no table found")
	ErrInvalidName      = errors.New("invalid table name")
	ErrMalformedDump    = errors.New("malformed database file")
)

// UnknownKindError reports a table name that is not part of the catalog.
type UnknownKindError struct {
	Name string
}

func (e *UnknownKindError) Error() string {
	names := make([]string, len(catalog))
	for i, s := range catalog {
		names[i] = string(s.Kind)
	}
	return fmt.Sprintf("unknown table kind %q: defined tables are %s", e.Name, strings.Join(names, ", "))
}

func (e *UnknownKindError) Is(target error) bool { return target == ErrUnknownTableKind }

// MalformedRecordError describes a line that could not be decoded.
// Line is 1-based and zero when the text did not come from a table file.
type MalformedRecordError struct {
	Table  string
	Line   int
	Text   string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s line %d: malformed record %q: %s", e.Table, e.Line, e.Text, e.Reason)
	}
	return fmt.Sprintf("%s: malformed record %q: %s", e.Table, e.Text, e.Reason)
}

func (e *MalformedRecordError) Is(target error) bool { return target == ErrMalformedRecord }
