package library

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testWriter routes log output through t.Log.
type testWriter struct {
	t *testing.T
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

func testLogger(t *testing.T) *slog.Logger {
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func tempManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{Root: t.TempDir(), Logger: testLogger(t)})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func readFile(t *testing.T, m *Manager, name string) string {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(m.Store().Root(), name))
	require.NoError(t, err)
	return string(raw)
}

func formatAll(rs []Record) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = Format(r)
	}
	return out
}

func TestBookScenario(t *testing.T) {
	m := tempManager(t)
	require.NoError(t, m.CreateTable("book"))
	require.NoError(t, m.Insert("book", `1 "Dune" 3`))

	byID := Condition{Field: "id", Op: OpEqual, Value: "1"}

	got, err := m.Select("book", byID)
	require.NoError(t, err)
	assert.Equal(t, []string{"1 Dune 3"}, formatAll(got))

	got, err = m.Select("book", Condition{Field: "id", Op: OpNotEqual, Value: "1"})
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, m.Update("book", "1", `"Dune2" 3`))
	got, err = m.Select("book", byID)
	require.NoError(t, err)
	assert.Equal(t, []string{"1 Dune2 3"}, formatAll(got))

	require.NoError(t, m.DeleteRow("book", "1"))
	got, err = m.Select("book", byID)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.ErrorIs(t, m.DeleteRow("book", "1"), ErrRecordNotFound)
}

func TestCreateAndDropTable(t *testing.T) {
	m := tempManager(t)

	require.NoError(t, m.CreateTable("author"))
	require.ErrorIs(t, m.CreateTable("author"), ErrAlreadyExists)
	assert.True(t, m.TableExists("author"))

	require.NoError(t, m.DropTable("author"))
	assert.False(t, m.TableExists("author"))
	require.ErrorIs(t, m.DropTable("author"), ErrTableNotFound)
}

func TestInsertMissingTable(t *testing.T) {
	m := tempManager(t)
	require.ErrorIs(t, m.Insert("book", `1 "Dune" 3`), ErrTableNotFound)
	assert.False(t, m.TableExists("book"))
}

func TestInsertRecord(t *testing.T) {
	m := tempManager(t)
	require.NoError(t, m.CreateTable("member_account"))

	rec := MemberAccount{ID: 4, FirstName: "Ursula", LastName: "Le Guin", Email: "ukl@example.org"}
	require.NoError(t, m.InsertRecord(rec))

	got, err := m.Scan("member_account")
	require.NoError(t, err)
	assert.Equal(t, []Record{rec}, got)
	assert.Equal(t, "4 \"Ursula\" \"Le Guin\" \"ukl@example.org\"\n", readFile(t, m, "member_account"))
}

func TestValidateInserts(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(Config{Root: dir, ValidateInserts: true, Logger: testLogger(t)})
	require.NoError(t, err)

	require.NoError(t, m.CreateTable("book"))
	require.ErrorIs(t, m.Insert("book", `1 "Dune"`), ErrMalformedRecord)
	require.NoError(t, m.Insert("book", `1 "Dune" 3`))

	// Tables outside the catalog take any text.
	require.NoError(t, m.CreateTable("notes"))
	require.NoError(t, m.Insert("notes", "anything at all"))

	assert.Equal(t, "1 \"Dune\" 3\n", readFile(t, m, "book"))
}

func TestUpdateAbsentKeyLeavesFileUntouched(t *testing.T) {
	m := tempManager(t)
	require.NoError(t, m.CreateTable("book"))
	require.NoError(t, m.Insert("book", `1 "Dune" 3`))
	require.NoError(t, m.Insert("book", `2 "Emma" 1`))
	before := readFile(t, m, "book")

	require.ErrorIs(t, m.Update("book", "9", `"Nope" 1`), ErrRecordNotFound)
	require.ErrorIs(t, m.DeleteRow("book", "9"), ErrRecordNotFound)
	require.ErrorIs(t, m.Update("book", "", `"Nope" 1`), ErrRecordNotFound)

	assert.Equal(t, before, readFile(t, m, "book"))

	entries, err := os.ReadDir(m.Store().Root())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestRewriteMissingTable(t *testing.T) {
	m := tempManager(t)
	require.ErrorIs(t, m.Update("hold", "1", "x"), ErrTableNotFound)
	require.ErrorIs(t, m.DeleteRow("hold", "1"), ErrTableNotFound)
	assert.False(t, m.TableExists("hold"))
}

func TestDeletePreservesOrder(t *testing.T) {
	m := tempManager(t)
	require.NoError(t, m.CreateTable("category"))
	for _, row := range []string{`1 "Poetry"`, `2 "Drama"`, `3 "History"`, `12 "Travel"`} {
		require.NoError(t, m.Insert("category", row))
	}

	require.NoError(t, m.DeleteRow("category", "2"))
	assert.Equal(t, "1 \"Poetry\"\n3 \"History\"\n12 \"Travel\"\n", readFile(t, m, "category"))

	// Keys compare as text, so 1 does not match 12.
	require.NoError(t, m.DeleteRow("category", "1"))
	assert.Equal(t, "3 \"History\"\n12 \"Travel\"\n", readFile(t, m, "category"))
}

func TestUpdateRewritesEveryMatchingRow(t *testing.T) {
	m := tempManager(t)
	require.NoError(t, m.CreateTable("waitlist"))
	for _, row := range []string{"5 1", "6 1", "5 2"} {
		require.NoError(t, m.Insert("waitlist", row))
	}

	require.NoError(t, m.Update("waitlist", "5", "9"))
	assert.Equal(t, "5 9\n6 1\n5 9\n", readFile(t, m, "waitlist"))
}

func TestSelectErrors(t *testing.T) {
	m := tempManager(t)

	_, err := m.Select("shelf", Condition{Field: "id", Op: OpEqual, Value: "1"})
	require.ErrorIs(t, err, ErrUnknownTableKind)

	_, err = m.Select("book", Condition{Field: "id", Op: OpEqual, Value: "1"})
	require.ErrorIs(t, err, ErrTableNotFound)

	require.NoError(t, m.CreateTable("book"))
	got, err := m.Select("book", Condition{Field: "isbn", Op: OpEqual, Value: "1"})
	require.ErrorIs(t, err, ErrConditionInvalid)
	assert.Empty(t, got)
}

func TestSelectMalformedRowReportsLine(t *testing.T) {
	m := tempManager(t)
	require.NoError(t, m.CreateTable("book"))
	require.NoError(t, m.Insert("book", `1 "Dune" 3`))
	require.NoError(t, m.Insert("book", `2 "Emma"`))
	require.NoError(t, m.Insert("book", `3 "Kim" 2`))

	_, err := m.Select("book", Condition{Field: "id", Op: OpEqual, Value: "3"})
	require.ErrorIs(t, err, ErrMalformedRecord)

	var me *MalformedRecordError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, 2, me.Line)
	assert.Equal(t, "book", me.Table)
}

func TestSelectDates(t *testing.T) {
	m := tempManager(t)
	require.NoError(t, m.CreateTable("checkout"))
	require.NoError(t, m.Insert("checkout", "1 01-02-2024 15-02-2024 4 5 0"))
	require.NoError(t, m.Insert("checkout", "2 01-02-2024 16-02-2024 4 6 1"))

	got, err := m.Select("checkout", Condition{Field: "checkout_date", Op: OpEqual, Value: "1-2-2024"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = m.Select("checkout", Condition{Field: "return_date", Op: OpNotEqual, Value: "15-02-2024"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2 01-02-2024 16-02-2024 4 6 1"}, formatAll(got))
}

func TestWriteDatabaseFile(t *testing.T) {
	m := tempManager(t)
	require.NoError(t, m.CreateTable("category"))
	require.NoError(t, m.CreateTable("book"))
	require.NoError(t, m.Insert("category", `3 "Fiction"`))
	require.NoError(t, m.Insert("book", `1 "Dune" 3`))
	require.NoError(t, m.Insert("book", `2 "Emma" 3`))

	kinds, err := m.WriteDatabaseFile("combined")
	require.NoError(t, err)
	assert.Equal(t, []Kind{KindBook, KindCategory}, kinds)

	want := "book\n\n1 \"Dune\" 3\n2 \"Emma\" 3\n\ncategory\n\n3 \"Fiction\"\n\n"
	assert.Equal(t, want, readFile(t, m, "combined"))
}

func TestWriteDatabaseFileCollision(t *testing.T) {
	m := tempManager(t)
	require.NoError(t, m.CreateTable("book"))
	require.NoError(t, m.Insert("book", `1 "Dune" 3`))
	before := readFile(t, m, "book")

	_, err := m.WriteDatabaseFile("book")
	require.ErrorIs(t, err, ErrNameCollision)
	assert.Equal(t, before, readFile(t, m, "book"))

	entries, err := os.ReadDir(m.Store().Root())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRewriteKeepsFileMode(t *testing.T) {
	m := tempManager(t)
	require.NoError(t, m.CreateTable("book"))
	require.NoError(t, m.Insert("book", `1 "Dune" 3`))
	require.NoError(t, m.Insert("book", `2 "Emma" 3`))
	path := filepath.Join(m.Store().Root(), "book")

	before, err := os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, m.Update("book", "1", `"Dune2" 3`))
	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.Mode().Perm(), after.Mode().Perm())

	require.NoError(t, os.Chmod(path, 0o640))
	require.NoError(t, m.DeleteRow("book", "2"))
	after, err = os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), after.Mode().Perm())

	_, err = m.WriteDatabaseFile("combined")
	require.NoError(t, err)
	dump, err := os.Stat(filepath.Join(m.Store().Root(), "combined"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), dump.Mode().Perm())
}

func TestSelectIsRepeatable(t *testing.T) {
	m := tempManager(t)
	require.NoError(t, m.CreateTable("author"))
	require.NoError(t, m.Insert("author", `1 "Le Guin"`))
	require.NoError(t, m.Insert("author", `2 "Herbert"`))
	require.NoError(t, m.Insert("author", `3 "Le Guin"`))
	before := readFile(t, m, "author")

	cond := Condition{Field: "name", Op: OpEqual, Value: "Le Guin"}
	first, err := m.Select("author", cond)
	require.NoError(t, err)
	second, err := m.Select("author", cond)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"1 Le Guin", "3 Le Guin"}, formatAll(first))
	assert.Equal(t, before, readFile(t, m, "author"))
}

func TestWriteDatabaseFileCollisionAfterEarlierSections(t *testing.T) {
	m := tempManager(t)
	require.NoError(t, m.CreateTable("book"))
	require.NoError(t, m.CreateTable("category"))
	require.NoError(t, m.Insert("book", `1 "Dune" 3`))
	require.NoError(t, m.Insert("category", `3 "Fiction"`))
	before := readFile(t, m, "category")

	// book is streamed into the temp file before category collides.
	_, err := m.WriteDatabaseFile("category")
	require.ErrorIs(t, err, ErrNameCollision)
	assert.Equal(t, before, readFile(t, m, "category"))

	entries, err := os.ReadDir(m.Store().Root())
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp file left behind")
}

func TestWriteDatabaseFileNoTables(t *testing.T) {
	m := tempManager(t)

	_, err := m.WriteDatabaseFile("combined")
	require.ErrorIs(t, err, ErrNoTablesFound)
	assert.False(t, m.TableExists("combined"))
}

func TestLoadDump(t *testing.T) {
	src := tempManager(t)
	require.NoError(t, src.CreateTable("author"))
	require.NoError(t, src.CreateTable("book_author"))
	require.NoError(t, src.Insert("author", `1 "Frank Herbert"`))
	require.NoError(t, src.Insert("book_author", "1 1"))
	require.NoError(t, src.Insert("book_author", "2 1"))
	require.NoError(t, src.CreateTable("hold"))
	_, err := src.WriteDatabaseFile("all")
	require.NoError(t, err)

	sections, err := ParseDump(bytes.NewBufferString(readFile(t, src, "all")))
	require.NoError(t, err)

	dst := tempManager(t)
	counts, err := dst.LoadDump(sections, false)
	require.NoError(t, err)
	assert.Equal(t, map[Kind]int{KindAuthor: 1, KindBookAuthor: 2, KindHold: 0}, counts)
	assert.Equal(t, readFile(t, src, "book_author"), readFile(t, dst, "book_author"))

	_, err = dst.LoadDump(sections, false)
	require.ErrorIs(t, err, ErrAlreadyExists)

	require.NoError(t, dst.Insert("author", `2 "Extra"`))
	_, err = dst.LoadDump(sections, true)
	require.NoError(t, err)
	assert.Equal(t, readFile(t, src, "author"), readFile(t, dst, "author"))
}
