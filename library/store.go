package library

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Store keeps one plain text file per table under a root directory.
// It does not lock: only one process may use a root at a time.
type Store struct {
	root string
}

// NewStore opens the table directory at root, creating it if needed.
func NewStore(root string) (*Store, error) {
	if root == "" {
		root = "."
	}
	// Ensure directory exists so first-run succeeds.
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create table dir: %w", err)
	}
	return &Store{root: root}, nil
}

// Root returns the directory holding the table files.
func (s *Store) Root() string { return s.root }

// ValidateName rejects names that would escape the root directory.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, filepath.Separator) ||
		strings.ContainsAny(name, "\x00\n") {
		return fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	return nil
}

func (s *Store) path(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.root, name), nil
}

// Exists reports whether the table file is present.
func (s *Store) Exists(name string) bool {
	p, err := s.path(name)
	if err != nil {
		return false
	}
	fi, err := os.Stat(p)
	return err == nil && fi.Mode().IsRegular()
}

// Create makes an empty table. It fails if the file is already there.
func (s *Store) Create(name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%s: %w", name, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}
	return f.Close()
}

// checkRow rejects a row payload that would split into several lines.
func checkRow(name, row string) error {
	if strings.ContainsAny(row, "\n\r") {
		return &MalformedRecordError{Table: name, Text: row, Reason: "row may not contain line breaks"}
	}
	return nil
}

// Append adds one line to an existing table.
func (s *Store) Append(name, line string) (err error) {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := checkRow(name, line); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_APPEND|os.O_WRONLY, 0o644)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", name, ErrTableNotFound)
	}
	if err != nil {
		return fmt.Errorf("open table %s: %w", name, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close table %s: %w", name, cerr)
		}
	}()

	if _, err := io.WriteString(f, line+"\n"); err != nil {
		return fmt.Errorf("append to %s: %w", name, err)
	}
	return nil
}

// Scan calls fn for every line of the table in file order. Lines are
// passed without their terminator and are numbered from 1. Lines have no
// length limit.
func (s *Store) Scan(name string, fn func(n int, line string) error) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", name, ErrTableNotFound)
	}
	if err != nil {
		return fmt.Errorf("open table %s: %w", name, err)
	}
	defer f.Close()
	return scanLines(f, fn)
}

func scanLines(r io.Reader, fn func(n int, line string) error) error {
	br := bufio.NewReader(r)
	for n := 1; ; n++ {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			if ferr := fn(n, trimLineEnd(line)); ferr != nil {
				return ferr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read line %d: %w", n, err)
		}
	}
}

// ReadAll returns every line of the table.
func (s *Store) ReadAll(name string) ([]string, error) {
	var lines []string
	err := s.Scan(name, func(_ int, line string) error {
		lines = append(lines, line)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// Remove deletes the table file.
func (s *Store) Remove(name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", name, ErrTableNotFound)
		}
		return fmt.Errorf("remove table %s: %w", name, err)
	}
	return nil
}
