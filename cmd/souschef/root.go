package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/souschef/internal/config"
	"github.com/hammamikhairi/souschef/internal/logger"
)

// app holds the flags, configuration and logger shared by every command,
// plus the resources to release on exit.
type app struct {
	envFile  string
	logLevel string
	logFile  string

	cfg     config.Config
	log     *logger.Logger
	closers []func() error
}

// newRootCmd creates the top-level "souschef" command and registers all
// subcommands against a.
func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "souschef",
		Short:         "Hands-free cooking assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	f.StringVar(&a.logLevel, "log-level", "", "off, normal or verbose (overrides SOUSCHEF_LOG_LEVEL)")
	f.StringVar(&a.logFile, "log-file", "", `file to write logs to, "stderr" for the console (overrides SOUSCHEF_LOG_FILE)`)

	root.AddCommand(
		newServeCmd(a),
		newCookCmd(a),
		newParseCmd(a),
	)
	return root
}

// setup loads the configuration, applies flag overrides and opens the log.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.App.LogLevel = a.logLevel
	}
	if flags.Changed("log-file") {
		cfg.App.LogFile = a.logFile
	}
	a.cfg = cfg

	level, known := logger.ParseLevel(cfg.App.LogLevel)
	a.log = logger.New(level, a.openLog(cfg.App.LogFile))
	// Third-party packages log through the standard library.
	a.log.RedirectStdlib()
	if !known {
		a.log.Warn("unknown log level %q, using %s", cfg.App.LogLevel, level)
	}
	return nil
}

// openLog returns the log destination. Logs go to a file by default so
// the cook-mode screen stays clean.
func (a *app) openLog(path string) io.Writer {
	if path == "" || path == "stderr" {
		return os.Stderr
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not create log directory %s: %v (falling back to stderr)\n", dir, err)
			return os.Stderr
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", path, err)
		return os.Stderr
	}
	a.onClose(f.Close)
	return f
}

func (a *app) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.log != nil {
			a.log.Warn("close: %v", err)
		}
	}
	a.closers = nil
}
