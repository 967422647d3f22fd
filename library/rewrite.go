package library

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// errDiscard tells replace to drop the temp file without reporting a failure.
var errDiscard = errors.New("discard rewrite")

// replace writes a new version of target through fill into a temp file in
// the root directory and renames it over target. If fill returns an error
// the temp file is removed and target is left untouched. The new file keeps
// the permissions of the one it replaces (0644 for a new file). The rename
// is the only step that changes target and the root directory is synced
// after it, so a crash leaves either the old or the new file in place.
func (s *Store) replace(target string, fill func(w *bufio.Writer) error) (err error) {
	dst, err := s.path(target)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.root, "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	w := bufio.NewWriter(tmp)
	if err := fill(w); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	mode := os.FileMode(0o644)
	if fi, serr := os.Stat(dst); serr == nil {
		mode = fi.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return fmt.Errorf("install %s: %w", target, err)
	}
	syncDir(s.root)
	return nil
}

// syncDir flushes a directory entry change to disk. Platforms that cannot
// sync a directory are ignored; the rename has already happened.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

// rowKey returns the leading run of ASCII digits of a line.
func rowKey(line string) string {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	return line[:i]
}

// rewriteRows streams the table through edit, which returns the
// replacement line and whether to keep it, for every line whose row key
// equals key. Other lines are copied verbatim. If no line matched the
// table is left untouched and ErrRecordNotFound is returned.
func (s *Store) rewriteRows(name, key string, edit func(line string) (string, bool)) error {
	if !s.Exists(name) {
		if err := ValidateName(name); err != nil {
			return err
		}
		return fmt.Errorf("%s: %w", name, ErrTableNotFound)
	}

	found := false
	err := s.replace(name, func(w *bufio.Writer) error {
		serr := s.Scan(name, func(_ int, line string) error {
			if key != "" && rowKey(line) == key {
				found = true
				out, keep := edit(line)
				if !keep {
					return nil
				}
				line = out
			}
			_, err := w.WriteString(line + "\n")
			return err
		})
		if serr != nil {
			return serr
		}
		if !found {
			return errDiscard
		}
		return nil
	})
	if errors.Is(err, errDiscard) {
		return fmt.Errorf("%s row %q: %w", name, key, ErrRecordNotFound)
	}
	return err
}

// UpdateRow replaces the row keyed by key with key followed by attrs.
func (s *Store) UpdateRow(name, key, attrs string) error {
	if err := checkRow(name, attrs); err != nil {
		return err
	}
	return s.rewriteRows(name, key, func(string) (string, bool) {
		return key + " " + attrs, true
	})
}

// DeleteRow removes the row keyed by key.
func (s *Store) DeleteRow(name, key string) error {
	return s.rewriteRows(name, key, func(string) (string, bool) {
		return "", false
	})
}

// WriteDump concatenates every existing catalog table into a new file
// called name. Each section is the kind's name, a blank line, the table's
// lines and a closing blank line. It returns the kinds written.
func (s *Store) WriteDump(name string) ([]Kind, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	var written []Kind
	err := s.replace(name, func(w *bufio.Writer) error {
		for _, schema := range catalog {
			kind := string(schema.Kind)
			if !s.Exists(kind) {
				continue
			}
			if kind == name {
				return fmt.Errorf("%s: %w", name, ErrNameCollision)
			}
			if err := writeSection(w, s, kind); err != nil {
				return err
			}
			written = append(written, schema.Kind)
		}
		if len(written) == 0 {
			return ErrNoTablesFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return written, nil
}

func writeSection(w io.StringWriter, s *Store, kind string) error {
	if _, err := w.WriteString(kind + "\n\n"); err != nil {
		return err
	}
	err := s.Scan(kind, func(_ int, line string) error {
		_, err := w.WriteString(line + "\n")
		return err
	})
	if err != nil {
		return err
	}
	_, err = w.WriteString("\n")
	return err
}
