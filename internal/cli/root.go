package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/roach88/fusionscope/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	NoColor    bool

	// Config is loaded before any subcommand runs.
	Config config.Config
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the fusionscope CLI.
func NewRootCommand() *cobra.Command {
	cmd, _ := newRootCommand()
	return cmd
}

func newRootCommand() (*cobra.Command, *RootOptions) {
	opts := &RootOptions{Config: config.Default()}

	cmd := &cobra.Command{
		Use:   "fusionscope",
		Short: "Inspect pending operation streams and fusion plans",
		Long: `fusionscope replays a scripted workload into a lazy-execution runtime and
reports what is queued: per-stream dependency graphs (ASCII or GraphViz DOT),
execution plans and a fusion summary. Snapshots can be archived to SQLite
and shown later.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ./"+config.DefaultFile+" if present)")
	cmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "disable colored output")

	cmd.AddCommand(NewGraphCommand(opts))
	cmd.AddCommand(NewDepsCommand(opts))
	cmd.AddCommand(NewSummaryCommand(opts))
	cmd.AddCommand(NewPlansCommand(opts))
	cmd.AddCommand(NewCaptureCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewListCommand(opts))

	return cmd, opts
}

// setup loads the config file, applies it under the flags and installs
// the logger.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return &ExitError{Code: ExitCommandError, ErrCode: ErrCodeInvalidConfig, Message: "failed to load config", Err: err}
	}
	o.Config = cfg

	if !cmd.Flags().Changed("format") {
		o.Format = cfg.Output.Format
	}
	if !slices.Contains(ValidFormats, o.Format) {
		return NewExitError(ExitCommandError, ErrCodeInvalidConfig,
			fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	o.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

func (o *RootOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

// formatter returns an OutputFormatter writing to the command's output.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	out := cmd.OutOrStdout()
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    out,
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
		Color:     o.colorEnabled(out),
	}
}

// colorEnabled reports whether banners written to w are colored: only on
// a terminal, and never when disabled by flag, config or NO_COLOR.
func (o *RootOptions) colorEnabled(w io.Writer) bool {
	if o.NoColor || !o.Config.Output.Color || color.NoColor {
		return false
	}
	f, ok := w.(*os.File)
	return ok && isTerminal(f)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Execute runs the CLI with args and returns the process exit code.
// Errors are reported in the selected format: the JSON envelope on stdout,
// or a text line on stderr.
func Execute(args []string, stdout, stderr io.Writer) int {
	cmd, opts := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	f := &OutputFormatter{Format: opts.Format, Writer: stderr, Verbose: opts.Verbose}
	if opts.Format == "json" {
		f.Writer = stdout
	} else {
		f.Format = "text"
	}
	_ = f.Error(ErrorCode(err), err.Error(), nil)

	// cobra's own flag and argument errors are usage errors
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		return ExitCommandError
	}
	return exitErr.Code
}
