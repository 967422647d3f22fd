package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"librarydb/library"
	"librarydb/query"

	"github.com/chzyer/readline"
)

// errCommandFailed marks a command whose failure was already reported to
// the user.
var errCommandFailed = errors.New("command failed")

// shell runs command lines against a Manager and writes user facing
// messages to out.
type shell struct {
	mgr    *library.Manager
	out    io.Writer
	output string
	logger *slog.Logger
}

// runLines reads commands from r until exit or end of input. It prints the
// prompt before every line so piped sessions read like interactive ones.
func (s *shell) runLines(r io.Reader, prompt string) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for {
		fmt.Fprint(s.out, prompt)
		if !sc.Scan() {
			fmt.Fprintln(s.out)
			return sc.Err()
		}
		if quit, _ := s.execute(sc.Text()); quit {
			return nil
		}
	}
}

// runReadline is the interactive loop used when stdin is a terminal.
func (s *shell) runReadline(prompt, historyFile string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize shell: %w", err)
	}
	defer func() { _ = rl.Close() }()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if quit, _ := s.execute(line); quit {
			return nil
		}
	}
}

// execute runs one line. It returns whether the session should end and,
// when the command failed, errCommandFailed.
func (s *shell) execute(line string) (quit bool, err error) {
	cmd, err := query.Parse(line)
	if errors.Is(err, query.ErrEmptyQuery) {
		return false, nil
	}
	if err != nil {
		fmt.Fprintln(s.out, err)
		return false, errCommandFailed
	}

	switch cmd.Type {
	case query.Exit:
		return true, nil
	case query.Help:
		fmt.Fprintln(s.out, query.HelpText)
		return false, nil
	case query.CreateTable:
		err = s.handleCreateTable(cmd)
	case query.Insert:
		err = s.handleInsert(cmd)
	case query.Select:
		err = s.handleSelect(cmd)
	case query.Update:
		err = s.handleUpdate(cmd)
	case query.Delete:
		err = s.handleDelete(cmd)
	case query.Drop:
		err = s.handleDrop(cmd)
	case query.ReadFile:
		err = s.handleReadFile(cmd)
	case query.WriteFile:
		err = s.handleWriteFile(cmd)
	default:
		fmt.Fprintln(s.out, "Unrecognized query.")
		return false, errCommandFailed
	}
	if err != nil {
		s.logger.Debug("command failed", "command", cmd.Type.String(), "table", cmd.Table, "error", err)
		return false, errCommandFailed
	}
	return false, nil
}

// ------------------ Handlers ------------------

func (s *shell) handleCreateTable(cmd query.Command) error {
	err := s.mgr.CreateTable(cmd.Table)
	switch {
	case err == nil:
		fmt.Fprintf(s.out, "Table '%s' created successfully.\n", cmd.Table)
	case errors.Is(err, library.ErrAlreadyExists):
		fmt.Fprintf(s.out, "Table '%s' already exists.\n", cmd.Table)
	default:
		fmt.Fprintf(s.out, "Failed to create '%s' table: %v\n", cmd.Table, err)
	}
	return err
}

func (s *shell) handleInsert(cmd query.Command) error {
	err := s.mgr.Insert(cmd.Table, cmd.Row)
	switch {
	case err == nil:
		fmt.Fprintln(s.out, "Data inserted successfully!")
	case errors.Is(err, library.ErrTableNotFound):
		fmt.Fprintf(s.out, "Table %s does not exist!\nRun: create_table %s\n", cmd.Table, cmd.Table)
	default:
		fmt.Fprintf(s.out, "The data insertion failed: %v\n", err)
	}
	return err
}

func (s *shell) handleSelect(cmd query.Command) error {
	cond := library.Condition{Field: cmd.Field, Op: library.Operator(cmd.Op), Value: cmd.Value}
	records, err := s.mgr.Select(cmd.Table, cond)
	switch {
	case err == nil:
		schema, _ := library.Lookup(cmd.Table)
		return renderRecords(s.out, schema, records, s.output)
	case errors.Is(err, library.ErrUnknownTableKind):
		fmt.Fprintf(s.out, "Defined databases for selection include %s\n", strings.Join(kindNames(), ", "))
	case errors.Is(err, library.ErrTableNotFound):
		fmt.Fprintln(s.out, "Table not exist!")
	case errors.Is(err, library.ErrConditionInvalid):
		fmt.Fprintln(s.out, "conditions invalid")
	default:
		fmt.Fprintln(s.out, err)
	}
	return err
}

func (s *shell) handleUpdate(cmd query.Command) error {
	err := s.mgr.Update(cmd.Table, cmd.Key, cmd.Row)
	switch {
	case err == nil:
		fmt.Fprintln(s.out, "Record updated successfully!")
	case errors.Is(err, library.ErrRecordNotFound):
		fmt.Fprintln(s.out, "Record not found!")
	case errors.Is(err, library.ErrTableNotFound):
		fmt.Fprintf(s.out, "Table %s not found!\n", cmd.Table)
	default:
		fmt.Fprintln(s.out, err)
	}
	return err
}

func (s *shell) handleDelete(cmd query.Command) error {
	err := s.mgr.DeleteRow(cmd.Table, cmd.Key)
	switch {
	case err == nil:
		fmt.Fprintln(s.out, "Record deleted successfully!")
	case errors.Is(err, library.ErrRecordNotFound):
		fmt.Fprintln(s.out, "Record id not found!")
	case errors.Is(err, library.ErrTableNotFound):
		fmt.Fprintf(s.out, "Table %s does not exist!\n", cmd.Table)
	default:
		fmt.Fprintln(s.out, err)
	}
	return err
}

func (s *shell) handleDrop(cmd query.Command) error {
	err := s.mgr.DropTable(cmd.Table)
	switch {
	case err == nil:
		fmt.Fprintln(s.out, "Table dropped successfully!")
	case errors.Is(err, library.ErrTableNotFound):
		fmt.Fprintf(s.out, "Table %s does not exist!!\n", cmd.Table)
	default:
		fmt.Fprintln(s.out, err)
	}
	return err
}

func (s *shell) handleReadFile(cmd query.Command) error {
	lines, err := s.mgr.ReadTable(cmd.Table)
	switch {
	case err == nil:
		for _, l := range lines {
			fmt.Fprintln(s.out, l)
		}
	case errors.Is(err, library.ErrTableNotFound):
		fmt.Fprintf(s.out, "Table %s not found!\n", cmd.Table)
	default:
		fmt.Fprintln(s.out, err)
	}
	return err
}

// handleWriteFile is silent on success.
func (s *shell) handleWriteFile(cmd query.Command) error {
	_, err := s.mgr.WriteDatabaseFile(cmd.Table)
	switch {
	case err == nil:
	case errors.Is(err, library.ErrNameCollision):
		fmt.Fprintln(s.out, "File already exist!")
	case errors.Is(err, library.ErrNoTablesFound):
		fmt.Fprintln(s.out, "No table found!")
	default:
		fmt.Fprintf(s.out, "Unable to create database file: %v\n", err)
	}
	return err
}

func kindNames() []string {
	kinds := library.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return names
}
