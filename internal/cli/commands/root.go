package commands

import (
	"context"
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ontograph/ontograph/internal/config"
	"github.com/ontograph/ontograph/internal/logging"
	"github.com/ontograph/ontograph/internal/session"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// globalOptions holds the persistent flags shared by every command
type globalOptions struct {
	configPath string
	schemaPath string
	xsdPath    string
	builtinXSD bool
	noColor    bool
	verbose    bool
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "ontograph",
		Short: "Schema-driven entity modeling toolkit",
		Long: color.CyanString(`ontograph - schema-driven entity modeling

ontograph loads an object metamodel (classes, inheritance and typed
associations) and lets you inspect the resulting class hierarchy.

Schemas can be written as ObjectModel XML, YAML or JSON.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (default ./ontograph.yaml)")
	flags.StringVarP(&opts.schemaPath, "schema", "s", "", "metamodel file (.xml, .yaml, .yml or .json)")
	flags.StringVar(&opts.xsdPath, "xsd", "", "validate XML metamodels against this XSD")
	flags.BoolVar(&opts.builtinXSD, "validate", false, "validate XML metamodels against the bundled ObjectModel XSD")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newClassesCommand(opts))
	rootCmd.AddCommand(newDescribeCommand(opts))
	rootCmd.AddCommand(newCheckCommand(opts))
	rootCmd.AddCommand(newResolveCommand(opts))
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

// loadConfig reads the config file and applies flag overrides
func (o *globalOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.schemaPath != "" {
		cfg.Schema.Path = o.schemaPath
	}
	if o.xsdPath != "" {
		cfg.Schema.XSD = o.xsdPath
	}
	if o.builtinXSD {
		cfg.Schema.BuiltinXSD = true
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// logger builds the command logger; logs go to stderr so they never mix with output
func (o *globalOptions) logger(cfg *config.Config) (*zap.Logger, error) {
	logger, _, err := logging.New(logging.Options{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
	return logger, err
}

// openSession loads configuration and opens a session for the configured schema
func (o *globalOptions) openSession(ctx context.Context) (*session.Session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := o.logger(cfg)
	if err != nil {
		return nil, err
	}
	return session.Open(ctx, cfg, logger)
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			kv := newKeyValue(cmd)
			kv.AddRow("ontograph version", Version)
			kv.AddRow("Git commit", GitCommit)
			kv.AddRow("Build date", BuildDate)
			kv.AddRow("Go version", runtime.Version())
			kv.Render()
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		if _, reported := err.(reportedError); !reported {
			errorColor := color.New(color.FgRed, color.Bold)
			errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return err
	}
	return nil
}

// reportedError marks errors whose message was already written by the command
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

func noColor(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("no-color")
	return v || color.NoColor
}

func checkFormat(format string) error {
	switch format {
	case "table", "json":
		return nil
	}
	return fmt.Errorf("unsupported format %q (use table or json)", format)
}
