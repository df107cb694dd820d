package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jpfielding/rasterbmp.go/pkg/config"
	"github.com/jpfielding/rasterbmp.go/pkg/logging"
	"github.com/spf13/cobra"
)

// app is the state shared by the sub commands once the root flags are
// parsed.
type app struct {
	cfg *config.Config
	log io.Closer
}

// Execute runs the command line args. Errors are logged since the root
// silences cobra's own printing.
func Execute(ctx context.Context, gitsha string, args []string) error {
	root := NewRoot(ctx, gitsha)
	root.SetArgs(args)
	err := root.Execute()
	if err != nil {
		slog.ErrorContext(ctx, "command failed", slog.Any("error", err))
	}
	return err
}

func NewRoot(ctx context.Context, gitsha string) *cobra.Command {
	a := &app{cfg: config.Default()}
	cmd := &cobra.Command{
		Use:           "rasterbmp",
		Short:         "convert CUPS raster streams into BMP files",
		Long:          "rasterbmp decodes CUPS raster pages (RaS2 run length encoded or RaS3 raw) and writes one uncompressed bitmap per page",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(ctx, cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				a.log.Close()
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			printCommandTree(cmd.OutOrStdout(), cmd, 0)
		},
	}
	cmd.AddCommand(
		NewVersionCmd(ctx, gitsha),
		NewConvertCmd(ctx, a),
		NewFilterCmd(ctx, a),
		NewInspectCmd(ctx),
		NewSynthCmd(ctx),
	)
	pf := cmd.PersistentFlags()
	pf.String("config", "", "JSON config file")
	pf.String("log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	pf.String("log-file", "", "write logs to a rotating file instead of stderr")
	pf.Bool("log-json", false, "log as JSON")
	return cmd
}

// setup loads the config file, applies flag overrides and installs the
// default logger.
func (a *app) setup(ctx context.Context, cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") || path == "" {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-file") {
		cfg.LogFile, _ = flags.GetString("log-file")
	}
	if flags.Changed("log-json") {
		cfg.LogJSON, _ = flags.GetBool("log-json")
	}

	level, err := cfg.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	var w io.Writer = os.Stderr
	if cfg.LogFile != "" {
		rf := logging.RotatingFile(cfg.LogFile, cfg.LogMaxSizeMB, cfg.LogMaxBackups)
		a.log = rf
		w = rf
	}
	slog.SetDefault(logging.Logger(w, cfg.LogJSON, level))
	if err != nil {
		slog.WarnContext(ctx, "Invalid log level, defaulting to INFO", "level", cfg.LogLevel, "error", err)
		cfg.LogLevel = "INFO"
	}
	a.cfg = cfg
	return nil
}

func printCommandTree(w io.Writer, cmd *cobra.Command, indent int) {
	fmt.Fprintln(w, strings.Repeat("\t", indent), cmd.Use+":", cmd.Short)
	for _, subCmd := range cmd.Commands() {
		printCommandTree(w, subCmd, indent+1)
	}
}

func NewVersionCmd(ctx context.Context, gitsha string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "git sha for this build",
		Long:  "git sha for this build",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), gitsha)
		},
	}
	return cmd
}
