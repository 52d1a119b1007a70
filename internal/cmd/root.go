// Package cmd implements the set-ui-version command line using Cobra.
// The command stamps a release version into the web UI's index.html by
// replacing a placeholder token in place.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jmgilman/uiversion/internal/config"
	"github.com/jmgilman/uiversion/internal/slogger"
	"github.com/jmgilman/uiversion/internal/stamp"
	"github.com/jmgilman/uiversion/internal/version"
)

// DefaultName is the program name used when os.Args[0] is unavailable.
const DefaultName = "set-ui-version"

// ErrUsage marks errors caused by a wrong invocation. They are reported with
// the one-line usage message rather than an error diagnostic.
var ErrUsage = errors.New("usage error")

type rootOptions struct {
	configPath  string
	dryRun      bool
	printConfig bool
	verbosity   int
}

// NewRootCmd builds the root command. name is the program name shown in
// usage output; fs is the filesystem the target file is read from and
// written to.
func NewRootCmd(name string, fs afero.Fs) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   name + " <version>",
		Short: "Stamp the UI version into the web UI index page",
		Long: `Replace every occurrence of the version placeholder in the web UI index
page with the given version string, rewriting the file in place.

By default the file is data/index.html (relative to the working directory)
and the placeholder is UI_VERSION_PLACEHOLDER. A file without the
placeholder is left unchanged. The version string is used verbatim, even
when it begins with a dash; -h, --help, --version and --print-config are the
only single arguments read as flags.`,
		Example: `  # Stamp data/index.html
  ` + name + ` 1.2.3

  # Preview the result without writing
  ` + name + ` --dry-run 1.2.3

  # Stamp another file with a custom token
  ` + name + ` --file web/index.html --placeholder @@VERSION@@ 1.2.3`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.printConfig && len(args) == 0 {
				return nil
			}
			if len(args) != 1 {
				return fmt.Errorf("%w: expected 1 argument, got %d", ErrUsage, len(args))
			}
			return nil
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger := slogger.New(slogger.Config{
				Verbosity: opts.verbosity,
				Prefix:    name,
				Output:    cmd.ErrOrStderr(),
			})
			ctx := slogger.WithLogger(cmd.Context(), logger)

			cfg, err := loadConfig(ctx, cmd.Flags(), opts.configPath)
			if err != nil {
				return err
			}
			logger.Debug("resolved config", "file", cfg.File, "placeholder", cfg.Placeholder)

			ctx = WithConfig(ctx, cfg)
			ctx = WithStamper(ctx, stamp.New(fs))
			cmd.SetContext(ctx)

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.printConfig {
				return runPrintConfig(cmd)
			}
			return runStamp(cmd, args[0], opts.dryRun)
		},
	}

	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	})

	flags := cmd.Flags()
	flags.StringP(config.KeyFile, "f", stamp.DefaultFile, "file to stamp")
	flags.StringP(config.KeyPlaceholder, "p", stamp.DefaultPlaceholder, "placeholder token to replace")
	flags.StringVar(&opts.configPath, "config", "", "config file (default "+config.DefaultConfigFile+" if present)")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "print the stamped content instead of writing it")
	flags.BoolVar(&opts.printConfig, "print-config", false, "print the resolved configuration and exit")
	flags.CountVarP(&opts.verbosity, "verbose", "v", "increase log verbosity (-v info, -vv debug)")

	return cmd
}

func loadConfig(ctx context.Context, flags *pflag.FlagSet, path string) (*config.Config, error) {
	loader := config.NewLoader(path)
	if err := loader.BindFlags(flags); err != nil {
		return nil, err
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if used := loader.UsedFile(); used != "" {
		slogger.L(ctx).Debug("read config file", "path", used)
	}
	return cfg, nil
}

func runPrintConfig(cmd *cobra.Command) error {
	cfg := ConfigFromContext(cmd.Context())
	if cfg == nil {
		return errors.New("config not initialized")
	}

	out, err := cfg.YAML()
	if err != nil {
		return err
	}

	_, err = cmd.OutOrStdout().Write(out)
	return err
}

func runStamp(cmd *cobra.Command, uiVersion string, dryRun bool) error {
	ctx := cmd.Context()

	cfg := ConfigFromContext(ctx)
	stamper := StamperFromContext(ctx)
	if cfg == nil || stamper == nil {
		return errors.New("command not initialized")
	}

	if dryRun {
		_, err := stamper.Preview(ctx, cfg.File, cfg.Placeholder, uiVersion, cmd.OutOrStdout())
		return err
	}

	_, err := stamper.Stamp(ctx, cfg.File, cfg.Placeholder, uiVersion)
	return err
}

// Run executes the command line in args (args[0] being the program path) and
// returns the process exit code.
//
// A lone argument is always the version, even when it looks like a flag or a
// shell-completion request. Only -h, --help, --version and --print-config keep
// their flag meaning when given alone.
func Run(ctx context.Context, args []string, fs afero.Fs, stdout, stderr io.Writer) int {
	name := programName(args)

	rest := []string{}
	if len(args) > 1 {
		rest = args[1:]
	}
	if len(rest) == 1 && isCompletionRequest(rest[0]) {
		rest = []string{"--", rest[0]}
	}

	err := execute(ctx, name, rest, fs, stdout, stderr)
	if errors.Is(err, ErrUsage) && len(rest) == 1 {
		err = execute(ctx, name, []string{"--", rest[0]}, fs, stdout, stderr)
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrUsage):
		fmt.Fprintf(stdout, "Usage: %s <version>\n", name)
		return 1
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
}

func execute(ctx context.Context, name string, args []string, fs afero.Fs, stdout, stderr io.Writer) error {
	root := NewRootCmd(name, fs)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

// isCompletionRequest reports whether cobra would route arg to its hidden
// shell-completion command.
func isCompletionRequest(arg string) bool {
	return arg == cobra.ShellCompRequestCmd || arg == cobra.ShellCompNoDescRequestCmd
}

// Main runs the command against the real process environment.
func Main() int {
	return Run(context.Background(), os.Args, afero.NewOsFs(), os.Stdout, os.Stderr)
}

func programName(args []string) string {
	if len(args) == 0 || args[0] == "" {
		return DefaultName
	}
	return strings.TrimSuffix(filepath.Base(args[0]), ".exe")
}
