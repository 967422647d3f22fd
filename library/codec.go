package library

import (
	"fmt"
	"strconv"
	"strings"
)

// lineScanner walks one record line token by token. It never reads past
// the end of the line; a missing token is reported by ok == false.
type lineScanner struct {
	s   string
	pos int
}

func (ls *lineScanner) skipSpaces() {
	for ls.pos < len(ls.s) && ls.s[ls.pos] == ' ' {
		ls.pos++
	}
}

// word returns the next space-delimited token.
func (ls *lineScanner) word() (string, bool) {
	ls.skipSpaces()
	if ls.pos >= len(ls.s) {
		return "", false
	}
	start := ls.pos
	for ls.pos < len(ls.s) && ls.s[ls.pos] != ' ' {
		ls.pos++
	}
	return ls.s[start:ls.pos], true
}

// text returns the next string field: a "quoted" segment that may hold
// spaces, or a bare word ending at a space or quote.
func (ls *lineScanner) text() (string, error) {
	ls.skipSpaces()
	if ls.pos >= len(ls.s) {
		return "", fmt.Errorf("missing field")
	}
	if ls.s[ls.pos] == '"' {
		end := strings.IndexByte(ls.s[ls.pos+1:], '"')
		if end < 0 {
			return "", fmt.Errorf("unterminated quoted string")
		}
		v := ls.s[ls.pos+1 : ls.pos+1+end]
		ls.pos += end + 2
		return v, nil
	}
	start := ls.pos
	for ls.pos < len(ls.s) && ls.s[ls.pos] != ' ' && ls.s[ls.pos] != '"' {
		ls.pos++
	}
	return ls.s[start:ls.pos], nil
}

// ParseDate parses DD-MM-YYYY.
func ParseDate(s string) (Date, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("date %q: want DD-MM-YYYY", s)
	}
	var n [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return Date{}, fmt.Errorf("date %q: want DD-MM-YYYY", s)
		}
		n[i] = v
	}
	return Date{Day: n[0], Month: n[1], Year: n[2]}, nil
}

func parseBool(s string) (bool, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n > 0, nil
	}
	return strconv.ParseBool(s)
}

func trimLineEnd(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}

// Decode parses one line of a table of the given kind.
func Decode(kind Kind, line string) (Record, error) {
	s, ok := Lookup(string(kind))
	if !ok {
		return nil, &UnknownKindError{Name: string(kind)}
	}
	return s.Decode(line)
}

// Decode parses one line into the schema's typed record. Content after
// the last field is ignored.
func (s *Schema) Decode(line string) (Record, error) {
	line = trimLineEnd(line)
	ls := &lineScanner{s: line}
	values := make([]Value, len(s.Fields))

	fail := func(f Field, reason string) (Record, error) {
		return nil, &MalformedRecordError{Table: string(s.Kind), Text: line, Reason: f.Name + ": " + reason}
	}

	for i, f := range s.Fields {
		if f.Type == StringField {
			v, err := ls.text()
			if err != nil {
				return fail(f, err.Error())
			}
			values[i] = StringValue(v)
			continue
		}

		tok, ok := ls.word()
		if !ok {
			return fail(f, "missing field")
		}
		switch f.Type {
		case IntField:
			n, err := strconv.Atoi(tok)
			if err != nil {
				return fail(f, fmt.Sprintf("%q is not an integer", tok))
			}
			values[i] = IntValue(n)
		case DateField:
			d, err := ParseDate(tok)
			if err != nil {
				return fail(f, err.Error())
			}
			values[i] = DateValue(d)
		case BoolField:
			n, err := strconv.Atoi(tok)
			if err != nil {
				return fail(f, fmt.Sprintf("%q is not 0 or 1", tok))
			}
			values[i] = BoolValue(n != 0)
		}
	}
	return s.build(values), nil
}

// Encode renders a record in its on-disk layout, without the newline.
// Strings are quoted. A string or date that could not be decoded back is
// rejected.
func Encode(r Record) (string, error) {
	var sb strings.Builder
	for i, v := range r.Values() {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if v.Type == StringField {
			if strings.ContainsAny(v.Str, "\"\n\r") {
				return "", &MalformedRecordError{
					Table:  string(r.Kind()),
					Text:   v.Str,
					Reason: "string fields may not contain quotes or line breaks",
				}
			}
			sb.WriteByte('"')
			sb.WriteString(v.Str)
			sb.WriteByte('"')
			continue
		}
		if v.Type == DateField && (v.Date.Day < 0 || v.Date.Month < 0 || v.Date.Year < 0) {
			return "", &MalformedRecordError{
				Table:  string(r.Kind()),
				Text:   v.Date.String(),
				Reason: "date components may not be negative",
			}
		}
		writeValue(&sb, v)
	}
	return sb.String(), nil
}

// Format renders a record the way select prints it: space separated,
// strings unquoted.
func Format(r Record) string {
	var sb strings.Builder
	for i, v := range r.Values() {
		if i > 0 {
			sb.WriteByte(' ')
		}
		writeValue(&sb, v)
	}
	return sb.String()
}

// FormatValue renders one field the way Format does.
func FormatValue(v Value) string {
	var sb strings.Builder
	writeValue(&sb, v)
	return sb.String()
}

func writeValue(sb *strings.Builder, v Value) {
	switch v.Type {
	case IntField:
		sb.WriteString(strconv.Itoa(v.Int))
	case StringField:
		sb.WriteString(v.Str)
	case DateField:
		sb.WriteString(v.Date.String())
	case BoolField:
		if v.Bool {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
}
