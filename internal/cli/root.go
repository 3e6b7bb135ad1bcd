// Package cli implements the seqfile command line tool.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agilebank/seqfile/format"
	"github.com/agilebank/seqfile/layout"
	"github.com/agilebank/seqfile/record"
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	debug  bool
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	cmd := &cobra.Command{
		Use:          "seqfile",
		Short:        "Decode and encode positional flat files",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(a.debug)
			if err != nil {
				return err
			}
			a.logger = logger

			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = a.logger.Sync()
		},
	}

	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging on stderr")
	cmd.AddCommand(decodeCmd(a), encodeCmd(a))

	return cmd
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	return cfg.Build()
}

// options builds the record options for a layout definition.
func (a *app) options(def *layout.Definition) []record.Option {
	return []record.Option{
		record.WithFieldOptions(def.CodecOptions()...),
		record.WithLogger(a.logger),
	}
}

func parseCompression(s string) (format.CompressionType, error) {
	c, err := format.ParseCompressionType(s)
	if err != nil {
		return 0, fmt.Errorf("--compression: %w", err)
	}

	return c, nil
}

// openInput returns stdin for "-" or an empty path.
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}

	return os.Open(path)
}
