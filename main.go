package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"librarydb/config"
	"librarydb/library"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Version is set at build time.
var Version = "0.1.0"

// app carries what PersistentPreRunE resolved to the subcommands.
type app struct {
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
}

func (a *app) openManager() (*library.Manager, error) {
	mgr, err := library.NewManager(library.Config{
		Root:            a.cfg.Root,
		ValidateInserts: a.cfg.ValidateInserts,
		Logger:          a.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open tables: %w", err)
	}
	return mgr, nil
}

func (a *app) newShell(mgr *library.Manager, out io.Writer) *shell {
	return &shell{mgr: mgr, out: out, output: a.cfg.Output, logger: a.logger}
}

// NewRootCmd builds the librarydb command tree. Without a subcommand it
// starts the command shell.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "librarydb",
		Short: "File backed library record store",
		Long: `librarydb keeps library records (books, members, checkouts, ...) in one
plain text file per table and manipulates them with a small command language.
Run it without arguments for an interactive shell; type help for the commands.`,
		Version: Version,
		Args:    cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}
			cfg, err := config.Load(a.cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = cfg.Logger(cmd.ErrOrStderr())
			if cfg.File != "" {
				a.logger.Debug("using config file", "file", cfg.File)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := a.openManager()
			if err != nil {
				return err
			}
			sh := a.newShell(mgr, cmd.OutOrStdout())

			if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
				return sh.runReadline(a.cfg.Prompt, a.cfg.HistoryFile)
			}
			return sh.runLines(cmd.InOrStdin(), a.cfg.Prompt)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: ./librarydb.yaml)")
	rootCmd.PersistentFlags().String("root", config.DefaultRoot, "directory holding the table files")
	rootCmd.PersistentFlags().StringP("output", "o", config.DefaultOutput, "select output format (plain|table)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging on stderr")
	rootCmd.PersistentFlags().Bool("validate-inserts", false, "reject inserted rows that do not decode")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{config.OutputPlain, config.OutputTable}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newExecCmd(a))
	rootCmd.AddCommand(newExportCmd(a))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func newExecCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <command...>",
		Short: "Run one command and exit",
		Example: `  librarydb exec create_table book
  librarydb exec insert book 1 '"Dune"' 3
  librarydb exec select book id == 1`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.openManager()
			if err != nil {
				return err
			}
			_, err = a.newShell(mgr, cmd.OutOrStdout()).execute(strings.Join(args, " "))
			return err
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export-sqlite <db-path>",
		Short: "Copy every table into a SQLite database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.openManager()
			if err != nil {
				return err
			}
			db, err := library.OpenDatabase(args[0])
			if err != nil {
				return err
			}
			defer db.Close()

			counts, err := db.Export(cmd.Context(), mgr)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, k := range library.Kinds() {
				if n, ok := counts[k]; ok {
					fmt.Fprintf(out, "%-15s %d rows\n", k, n)
				}
			}
			fmt.Fprintf(out, "Exported %d tables to %s\n", len(counts), args[0])
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "librarydb %s\n", Version)
		},
	}
}

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		if !errors.Is(err, errCommandFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
