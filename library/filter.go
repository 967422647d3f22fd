package library

import (
	"fmt"
	"strconv"
)

// Operator compares a record field with a literal.
type Operator string

const (
	OpEqual    Operator = "=="
	OpNotEqual Operator = "!="
)

// Condition is the predicate of a select: field, operator and literal.
type Condition struct {
	Field string
	Op    Operator
	Value string
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %s", c.Field, c.Op, c.Value)
}

// matcher is a condition bound to a schema with its literal parsed to the
// field's type.
type matcher struct {
	index int
	op    Operator
	lit   Value
}

func compileCondition(s *Schema, c Condition) (matcher, error) {
	idx, ok := s.FieldIndex(c.Field)
	if !ok {
		return matcher{}, fmt.Errorf("%s has no field %q: %w", s.Kind, c.Field, ErrConditionInvalid)
	}
	if c.Op != OpEqual && c.Op != OpNotEqual {
		return matcher{}, fmt.Errorf("operator %q: %w", c.Op, ErrConditionInvalid)
	}

	lit := Value{Type: s.Fields[idx].Type}
	switch lit.Type {
	case IntField:
		n, err := strconv.Atoi(c.Value)
		if err != nil {
			return matcher{}, fmt.Errorf("%s wants an integer, got %q: %w", c.Field, c.Value, ErrConditionInvalid)
		}
		lit.Int = n
	case BoolField:
		b, err := parseBool(c.Value)
		if err != nil {
			return matcher{}, fmt.Errorf("%s wants 0 or 1, got %q: %w", c.Field, c.Value, ErrConditionInvalid)
		}
		lit.Bool = b
	case DateField:
		d, err := ParseDate(c.Value)
		if err != nil {
			return matcher{}, fmt.Errorf("%s: %v: %w", c.Field, err, ErrConditionInvalid)
		}
		lit.Date = d
	case StringField:
		lit.Str = c.Value
	}
	return matcher{index: idx, op: c.Op, lit: lit}, nil
}

func (m matcher) match(r Record) bool {
	v := r.Values()[m.index]
	switch v.Type {
	case DateField:
		// == needs every component equal; != needs any component to differ.
		if m.op == OpEqual {
			return v.Date.Day == m.lit.Date.Day && v.Date.Month == m.lit.Date.Month && v.Date.Year == m.lit.Date.Year
		}
		return v.Date.Day != m.lit.Date.Day || v.Date.Month != m.lit.Date.Month || v.Date.Year != m.lit.Date.Year
	case IntField:
		return (v.Int == m.lit.Int) == (m.op == OpEqual)
	case BoolField:
		return (v.Bool == m.lit.Bool) == (m.op == OpEqual)
	default:
		return (v.Str == m.lit.Str) == (m.op == OpEqual)
	}
}

// Matches evaluates a condition against a single record.
func Matches(r Record, c Condition) (bool, error) {
	s, ok := Lookup(string(r.Kind()))
	if !ok {
		return false, &UnknownKindError{Name: string(r.Kind())}
	}
	m, err := compileCondition(s, c)
	if err != nil {
		return false, err
	}
	return m.match(r), nil
}
