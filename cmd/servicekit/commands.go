package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/servicekit/internal/app"
	"github.com/samvad-hq/servicekit/internal/config"
	"github.com/samvad-hq/servicekit/internal/logger"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "servicekit",
		Short:         "Fetch JSON endpoints described in a catalog file",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newFetchCmd(), newPollCmd())
	return root
}

func newFetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <endpoint-id>",
		Short: "Fetch one catalog endpoint and print the decoded JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// stdout carries the payload; logs go to stderr.
			cfg, log, err := setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer logger.Close()

			payload, err := app.FetchOnce(cmd.Context(), cfg, log, args[0])
			if err != nil {
				return err
			}
			return writeIndented(cmd.OutOrStdout(), payload)
		},
	}
}

func newPollCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Poll every catalog endpoint and publish changed payloads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(os.Stdout)
			if err != nil {
				return err
			}
			defer logger.Close()

			logger.InfoObj("poller starting", "config", cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			p, err := app.NewPoller(ctx, cfg, log)
			if err != nil {
				logger.ErrorObj("failed to initialize poller", "error", err)
				return err
			}
			if err := p.Run(ctx); err != nil {
				return fmt.Errorf("poller run: %w", err)
			}
			return nil
		},
	}
}

func setup(logSink io.Writer) (*config.Config, logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.InitTo(cfg, logSink)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

func writeIndented(w io.Writer, payload json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, payload, "", "  "); err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}
