// Package query splits one line of the command language into a Command.
package query

import (
	"errors"
	"strings"
)

// Type identifies a command.
type Type int

const (
	Invalid Type = iota
	CreateTable
	Insert
	Select
	Update
	Delete
	Drop
	ReadFile
	WriteFile
	Help
	Exit
)

var keywords = map[string]Type{
	"create_table": CreateTable,
	"insert":       Insert,
	"select":       Select,
	"update":       Update,
	"delete":       Delete,
	"drop":         Drop,
	"read_file":    ReadFile,
	"write_file":   WriteFile,
	"help":         Help,
	"exit":         Exit,
}

func (t Type) String() string {
	for k, v := range keywords {
		if v == t {
			return k
		}
	}
	return "invalid"
}

// Command is a parsed line. Only the fields used by Type are set.
type Command struct {
	Type  Type
	Table string

	// Select condition.
	Field string
	Op    string
	Value string

	// Key is the row key of update and delete.
	Key string
	// Row is the insert payload or the update attributes.
	Row string
}

// ErrEmptyQuery is returned for a blank line.
var ErrEmptyQuery = errors.New("empty query")

// ParseError reports a line that names a command but lacks its arguments,
// or names no known command.
type ParseError struct {
	Type Type
	Msg  string
}

func (e *ParseError) Error() string { return e.Msg }

const (
	msgTableMissing     = "Table name missing"
	msgRowMissing       = "Row values missing"
	msgCondMissing      = "Conditions missing"
	msgCondIncomplete   = "Conditions incomplete"
	msgKeyMissing       = "Record id not found!"
	msgValueMissing     = "Record value not found!"
	msgInvalidQueryType = "Invalid query type"
)

const blanks = " \t\r\n"

// next cuts the first whitespace separated word off s.
func next(s string) (word, rest string) {
	s = strings.TrimLeft(s, blanks)
	i := strings.IndexAny(s, blanks)
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i+1:]
}

// Parse splits line into a Command. Payloads that run to the end of the
// line (insert rows, update attributes, select values) are kept whole with
// the surrounding whitespace trimmed.
func Parse(line string) (Command, error) {
	word, rest := next(line)
	if word == "" {
		return Command{}, ErrEmptyQuery
	}
	typ, ok := keywords[word]
	if !ok {
		return Command{}, &ParseError{Type: Invalid, Msg: msgInvalidQueryType}
	}
	cmd := Command{Type: typ}
	fail := func(msg string) (Command, error) {
		return Command{}, &ParseError{Type: typ, Msg: msg}
	}

	if typ == Help || typ == Exit {
		return cmd, nil
	}

	cmd.Table, rest = next(rest)
	if cmd.Table == "" {
		return fail(msgTableMissing)
	}

	switch typ {
	case Insert:
		cmd.Row = strings.Trim(rest, blanks)
		if cmd.Row == "" {
			return fail(msgRowMissing)
		}
	case Select:
		cmd.Field, rest = next(rest)
		if cmd.Field == "" {
			return fail(msgCondMissing)
		}
		cmd.Op, rest = next(rest)
		if cmd.Op == "" {
			return fail(msgCondIncomplete)
		}
		cmd.Value = unquote(strings.Trim(rest, blanks))
		if cmd.Value == "" {
			return fail(msgCondIncomplete)
		}
	case Update:
		cmd.Key, rest = next(rest)
		if cmd.Key == "" {
			return fail(msgKeyMissing)
		}
		cmd.Row = strings.Trim(rest, blanks)
		if cmd.Row == "" {
			return fail(msgValueMissing)
		}
	case Delete:
		cmd.Key, _ = next(rest)
		if cmd.Key == "" {
			return fail(msgKeyMissing)
		}
	}
	return cmd, nil
}

// unquote drops one pair of surrounding double quotes.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// HelpText lists the commands.
const HelpText = `Following are the valid query commands:
help
create_table [table_name]
insert [table_name] [row values]
select [table_name] [field] [==|!=] [value]
update [table_name] [row_id] [row values]
delete [table_name] [row_id]
read_file [table_name]
drop [table_name]
write_file [file_name]
exit`
