package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"librarydb/library"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes the root command with input on stdin.
func runCLI(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	if errOut.Len() > 0 {
		t.Log(errOut.String())
	}
	return out.String(), err
}

func session(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func TestShellScenario(t *testing.T) {
	root := t.TempDir()
	out, err := runCLI(t, session(
		"create_table book",
		`insert book 1 "Dune" 3`,
		"select book id == 1",
		"select book id != 1",
		`update book 1 "Dune2" 3`,
		"select book id == 1",
		"delete book 1",
		"select book id == 1",
		"delete book 1",
		"exit",
	), "--root", root)
	require.NoError(t, err)

	want := strings.Join([]string{
		"cmd> Table 'book' created successfully.",
		"cmd> Data inserted successfully!",
		"cmd> 1 Dune 3",
		"cmd> cmd> Record updated successfully!",
		"cmd> 1 Dune2 3",
		"cmd> Record deleted successfully!",
		"cmd> cmd> Record id not found!",
		"cmd> ",
	}, "\n")
	assert.Equal(t, want, out)
}

func TestShellMessages(t *testing.T) {
	tests := []struct {
		name  string
		setup []string
		line  string
		want  string
	}{
		{"create twice", []string{"create_table author"}, "create_table author", "Table 'author' already exists.\n"},
		{"insert missing table", nil, "insert hold 1 01-01-2024 02-01-2024 3 4", "Table hold does not exist!\nRun: create_table hold\n"},
		{"select unknown kind", nil, "select shelf id == 1", "Defined databases for selection include book, category, author, book_author, publisher, book_copy, member_account, checkout, hold, waitlist, notification\n"},
		{"select missing table", nil, "select book id == 1", "Table not exist!\n"},
		{"select bad field", []string{"create_table book"}, "select book isbn == 1", "conditions invalid\n"},
		{"update absent key", []string{"create_table book"}, `update book 4 "X" 1`, "Record not found!\n"},
		{"update missing table", nil, `update book 4 "X" 1`, "Table book not found!\n"},
		{"delete missing table", nil, "delete book 4", "Table book does not exist!\n"},
		{"drop", []string{"create_table book"}, "drop book", "Table dropped successfully!\n"},
		{"drop missing table", nil, "drop book", "Table book does not exist!!\n"},
		{"read_file", []string{"create_table waitlist", "insert waitlist 3 4"}, "read_file waitlist", "3 4\n"},
		{"read_file missing table", nil, "read_file waitlist", "Table waitlist not found!\n"},
		{"write_file collision", []string{"create_table book"}, "write_file book", "File already exist!\n"},
		{"write_file no tables", nil, "write_file combined", "No table found!\n"},
		{"write_file ok", []string{"create_table book"}, "write_file combined", ""},
		{"parse error", nil, "select book", "Conditions missing\n"},
		{"unknown command", nil, "truncate book", "Invalid query type\n"},
		{"help", nil, "help", "Following are the valid query commands:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr, err := library.NewManager(library.Config{Root: t.TempDir()})
			require.NoError(t, err)

			var out bytes.Buffer
			sh := &shell{mgr: mgr, out: &out, output: "plain", logger: slog.New(slog.DiscardHandler)}
			for _, line := range tt.setup {
				_, err := sh.execute(line)
				require.NoError(t, err, line)
			}
			out.Reset()

			quit, _ := sh.execute(tt.line)
			assert.False(t, quit)
			if tt.want == "" {
				assert.Empty(t, out.String())
				return
			}
			assert.True(t, strings.HasPrefix(out.String(), tt.want), "got %q", out.String())
		})
	}
}

func TestShellFailuresKeepPrompting(t *testing.T) {
	out, err := runCLI(t, session("drop book", "", "create_table book"), "--root", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "cmd> Table book does not exist!!\ncmd> cmd> Table 'book' created successfully.\ncmd> \n", out)
}

func TestShellTableOutput(t *testing.T) {
	root := t.TempDir()
	out, err := runCLI(t, session(
		"create_table category",
		`insert category 1 "Poetry"`,
		`insert category 2 "Drama"`,
		"select category name != Poetry",
	), "--root", root, "--output", "table")
	require.NoError(t, err)

	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "Drama")
	assert.NotContains(t, out, "Poetry\n")
	assert.Contains(t, out, "(1 rows)")
}

func TestExec(t *testing.T) {
	root := t.TempDir()

	_, err := runCLI(t, "", "--root", root, "exec", "create_table", "book")
	require.NoError(t, err)
	_, err = runCLI(t, "", "--root", root, "exec", "insert", "book", `2 "Emma" 1`)
	require.NoError(t, err)

	out, err := runCLI(t, "", "--root", root, "exec", "select", "book", "title", "==", "Emma")
	require.NoError(t, err)
	assert.Equal(t, "2 Emma 1\n", out)

	out, err = runCLI(t, "", "--root", root, "exec", "delete", "book", "9")
	require.ErrorIs(t, err, errCommandFailed)
	assert.Equal(t, "Record id not found!\n", out)
}

func TestExportSQLite(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "book"), []byte("1 \"Dune\" 3\n2 \"Emma\" 1\n"), 0o644))

	dbPath := filepath.Join(t.TempDir(), "library.db")
	out, err := runCLI(t, "", "--root", root, "export-sqlite", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "book")
	assert.Contains(t, out, "2 rows")
	assert.Contains(t, out, "Exported 1 tables")
}

func TestValidateInsertsFlag(t *testing.T) {
	root := t.TempDir()
	out, err := runCLI(t, session("create_table book", `insert book 1 "Dune"`), "--root", root, "--validate-inserts")
	require.NoError(t, err)
	assert.Contains(t, out, "The data insertion failed")

	raw, err := os.ReadFile(filepath.Join(root, "book"))
	require.NoError(t, err)
	assert.Empty(t, raw)
}
