package library

import "fmt"

// Date is a calendar day stored on disk as DD-MM-YYYY.
type Date struct {
	Day   int `json:"day"`
	Month int `json:"month"`
	Year  int `json:"year"`
}

func (d Date) String() string {
	return fmt.Sprintf("%02d-%02d-%04d", d.Day, d.Month, d.Year)
}

// Value is a single decoded field. Only the member matching Type is set.
type Value struct {
	Type FieldType
	Int  int
	Str  string
	Date Date
	Bool bool
}

func IntValue(n int) Value       { return Value{Type: IntField, Int: n} }
func StringValue(s string) Value { return Value{Type: StringField, Str: s} }
func DateValue(d Date) Value     { return Value{Type: DateField, Date: d} }
func BoolValue(b bool) Value     { return Value{Type: BoolField, Bool: b} }

// Record is a typed row of one table kind.
type Record interface {
	Kind() Kind
	// Values returns the fields in file order.
	Values() []Value
}

// Book is a title in the catalog.
type Book struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	CategoryID int    `json:"category_id"`
}

func (Book) Kind() Kind { return KindBook }
func (b Book) Values() []Value {
	return []Value{IntValue(b.ID), StringValue(b.Title), IntValue(b.CategoryID)}
}

// Category groups books.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func (Category) Kind() Kind        { return KindCategory }
func (c Category) Values() []Value { return []Value{IntValue(c.ID), StringValue(c.Name)} }

// Author writes books.
type Author struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func (Author) Kind() Kind        { return KindAuthor }
func (a Author) Values() []Value { return []Value{IntValue(a.ID), StringValue(a.Name)} }

// Publisher prints book copies.
type Publisher struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func (Publisher) Kind() Kind        { return KindPublisher }
func (p Publisher) Values() []Value { return []Value{IntValue(p.ID), StringValue(p.Name)} }

// BookAuthor links a book to one of its authors.
type BookAuthor struct {
	BookID   int `json:"book_id"`
	AuthorID int `json:"author_id"`
}

func (BookAuthor) Kind() Kind         { return KindBookAuthor }
func (ba BookAuthor) Values() []Value { return []Value{IntValue(ba.BookID), IntValue(ba.AuthorID)} }

// BookCopy is a physical copy of a book.
type BookCopy struct {
	ID            int `json:"id"`
	BookID        int `json:"book_id"`
	PublisherID   int `json:"publisher_id"`
	YearPublished int `json:"year_published"`
}

func (BookCopy) Kind() Kind { return KindBookCopy }
func (c BookCopy) Values() []Value {
	return []Value{IntValue(c.ID), IntValue(c.BookID), IntValue(c.PublisherID), IntValue(c.YearPublished)}
}

// MemberAccount represents a registered library member.
type MemberAccount struct {
	ID        int    `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

func (MemberAccount) Kind() Kind { return KindMemberAccount }
func (m MemberAccount) Values() []Value {
	return []Value{IntValue(m.ID), StringValue(m.FirstName), StringValue(m.LastName), StringValue(m.Email)}
}

// Checkout records a book copy lent to a member.
type Checkout struct {
	ID           int  `json:"id"`
	CheckoutDate Date `json:"checkout_date"`
	ReturnDate   Date `json:"return_date"`
	BookCopyID   int  `json:"book_copy_id"`
	MemberID     int  `json:"member_id"`
	IsReturned   bool `json:"is_returned"`
}

func (Checkout) Kind() Kind { return KindCheckout }
func (c Checkout) Values() []Value {
	return []Value{
		IntValue(c.ID), DateValue(c.CheckoutDate), DateValue(c.ReturnDate),
		IntValue(c.BookCopyID), IntValue(c.MemberID), BoolValue(c.IsReturned),
	}
}

// Hold reserves a book copy for a member over a date range.
type Hold struct {
	ID           int  `json:"id"`
	CheckoutDate Date `json:"checkout_date"`
	ReturnDate   Date `json:"return_date"`
	BookCopyID   int  `json:"book_copy_id"`
	MemberID     int  `json:"member_id"`
}

func (Hold) Kind() Kind { return KindHold }
func (h Hold) Values() []Value {
	return []Value{
		IntValue(h.ID), DateValue(h.CheckoutDate), DateValue(h.ReturnDate),
		IntValue(h.BookCopyID), IntValue(h.MemberID),
	}
}

// Waitlist queues a member for a book.
type Waitlist struct {
	BookID   int `json:"book_id"`
	MemberID int `json:"member_id"`
}

func (Waitlist) Kind() Kind        { return KindWaitlist }
func (w Waitlist) Values() []Value { return []Value{IntValue(w.BookID), IntValue(w.MemberID)} }

// Notification is a message sent to a member.
type Notification struct {
	ID       int    `json:"id"`
	SentAt   Date   `json:"sent_at"`
	MemberID int    `json:"member_id"`
	Message  string `json:"message"`
}

func (Notification) Kind() Kind { return KindNotification }
func (n Notification) Values() []Value {
	return []Value{IntValue(n.ID), DateValue(n.SentAt), IntValue(n.MemberID), StringValue(n.Message)}
}

// Builders receive values already checked against the schema.

func buildBook(v []Value) Record {
	return Book{ID: v[0].Int, Title: v[1].Str, CategoryID: v[2].Int}
}

func buildCategory(v []Value) Record  { return Category{ID: v[0].Int, Name: v[1].Str} }
func buildAuthor(v []Value) Record    { return Author{ID: v[0].Int, Name: v[1].Str} }
func buildPublisher(v []Value) Record { return Publisher{ID: v[0].Int, Name: v[1].Str} }

func buildBookAuthor(v []Value) Record {
	return BookAuthor{BookID: v[0].Int, AuthorID: v[1].Int}
}

func buildBookCopy(v []Value) Record {
	return BookCopy{ID: v[0].Int, BookID: v[1].Int, PublisherID: v[2].Int, YearPublished: v[3].Int}
}

func buildMemberAccount(v []Value) Record {
	return MemberAccount{ID: v[0].Int, FirstName: v[1].Str, LastName: v[2].Str, Email: v[3].Str}
}

func buildCheckout(v []Value) Record {
	return Checkout{
		ID: v[0].Int, CheckoutDate: v[1].Date, ReturnDate: v[2].Date,
		BookCopyID: v[3].Int, MemberID: v[4].Int, IsReturned: v[5].Bool,
	}
}

func buildHold(v []Value) Record {
	return Hold{ID: v[0].Int, CheckoutDate: v[1].Date, ReturnDate: v[2].Date, BookCopyID: v[3].Int, MemberID: v[4].Int}
}

func buildWaitlist(v []Value) Record {
	return Waitlist{BookID: v[0].Int, MemberID: v[1].Int}
}

func buildNotification(v []Value) Record {
	return Notification{ID: v[0].Int, SentAt: v[1].Date, MemberID: v[2].Int, Message: v[3].Str}
}
