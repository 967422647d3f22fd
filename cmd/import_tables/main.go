// Command import_tables recreates tables from a file written by write_file.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"librarydb/library"
)

func main() {
	root := flag.String("root", "./tables", "directory holding the table files")
	dump := flag.String("dump", "", "database file written by write_file")
	replace := flag.Bool("replace", false, "drop tables that already exist before loading them")
	validate := flag.Bool("validate", true, "reject rows that do not decode")
	flag.Parse()

	if *dump == "" {
		fmt.Fprintln(os.Stderr, "Error: -dump is required")
		flag.Usage()
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	f, err := os.Open(*dump)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening dump: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	sections, err := library.ParseDump(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", *dump, err)
		os.Exit(1)
	}

	manager, err := library.NewManager(library.Config{Root: *root, ValidateInserts: *validate, Logger: logger})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening tables: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Importing %d tables from %s into %s...\n", len(sections), *dump, *root)
	counts, err := manager.LoadDump(sections, *replace)

	fmt.Printf("%-15s %s\n", "Table", "Rows")
	for _, sec := range sections {
		n, ok := counts[sec.Kind]
		if !ok {
			continue
		}
		fmt.Printf("%-15s %d\n", sec.Kind, n)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Import stopped: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("\nImport complete!")
}
