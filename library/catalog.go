package library

// Kind names one of the fixed table kinds. The kind is also the file name
// of the table under the store root.
type Kind string

const (
	KindBook          Kind = "book"
	KindCategory      Kind = "category"
	KindAuthor        Kind = "author"
	KindBookAuthor    Kind = "book_author"
	KindPublisher     Kind = "publisher"
	KindBookCopy      Kind = "book_copy"
	KindMemberAccount Kind = "member_account"
	KindCheckout      Kind = "checkout"
	KindHold          Kind = "hold"
	KindWaitlist      Kind = "waitlist"
	KindNotification  Kind = "notification"
)

// FieldType is the storage type of a record field.
type FieldType int

const (
	IntField FieldType = iota
	StringField
	DateField
	BoolField
)

func (t FieldType) String() string {
	switch t {
	case IntField:
		return "int"
	case StringField:
		return "string"
	case DateField:
		return "date"
	case BoolField:
		return "bool"
	}
	return "unknown"
}

// Field is one positional column of a table kind.
type Field struct {
	Name string
	Type FieldType
}

// Schema describes the positional layout of a table kind and how to build
// its typed record from decoded values.
type Schema struct {
	Kind   Kind
	Fields []Field

	build func(v []Value) Record
	index map[string]int
}

// FieldIndex returns the position of the named field.
func (s *Schema) FieldIndex(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// FieldNames returns the column names in file order.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

func newSchema(kind Kind, build func(v []Value) Record, fields ...Field) *Schema {
	s := &Schema{Kind: kind, Fields: fields, build: build, index: make(map[string]int, len(fields))}
	for i, f := range fields {
		s.index[f.Name] = i
	}
	return s
}

// catalog lists every recognized kind in dump order.
var catalog = []*Schema{
	newSchema(KindBook, buildBook,
		Field{"id", IntField}, Field{"title", StringField}, Field{"category_id", IntField}),
	newSchema(KindCategory, buildCategory,
		Field{"id", IntField}, Field{"name", StringField}),
	newSchema(KindAuthor, buildAuthor,
		Field{"id", IntField}, Field{"name", StringField}),
	newSchema(KindBookAuthor, buildBookAuthor,
		Field{"book_id", IntField}, Field{"author_id", IntField}),
	newSchema(KindPublisher, buildPublisher,
		Field{"id", IntField}, Field{"name", StringField}),
	newSchema(KindBookCopy, buildBookCopy,
		Field{"id", IntField}, Field{"book_id", IntField}, Field{"publisher_id", IntField}, Field{"year_published", IntField}),
	newSchema(KindMemberAccount, buildMemberAccount,
		Field{"id", IntField}, Field{"first_name", StringField}, Field{"last_name", StringField}, Field{"email", StringField}),
	newSchema(KindCheckout, buildCheckout,
		Field{"id", IntField}, Field{"checkout_date", DateField}, Field{"return_date", DateField},
		Field{"book_copy_id", IntField}, Field{"member_id", IntField}, Field{"is_returned", BoolField}),
	newSchema(KindHold, buildHold,
		Field{"id", IntField}, Field{"checkout_date", DateField}, Field{"return_date", DateField},
		Field{"book_copy_id", IntField}, Field{"member_id", IntField}),
	newSchema(KindWaitlist, buildWaitlist,
		Field{"book_id", IntField}, Field{"member_id", IntField}),
	newSchema(KindNotification, buildNotification,
		Field{"id", IntField}, Field{"sent_at", DateField}, Field{"member_id", IntField}, Field{"message", StringField}),
}

var catalogByName = func() map[string]*Schema {
	m := make(map[string]*Schema, len(catalog))
	for _, s := range catalog {
		m[string(s.Kind)] = s
	}
	return m
}()

// Lookup returns the schema for a table name.
func Lookup(name string) (*Schema, bool) {
	s, ok := catalogByName[name]
	return s, ok
}

// Kinds returns all table kinds in catalog order.
func Kinds() []Kind {
	kinds := make([]Kind, len(catalog))
	for i, s := range catalog {
		kinds[i] = s.Kind
	}
	return kinds
}

// IsKind reports whether name is a recognized table kind.
func IsKind(name string) bool {
	_, ok := catalogByName[name]
	return ok
}
