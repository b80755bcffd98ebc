package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"formroute/internal/form"
	"formroute/internal/gateway"
	"formroute/internal/middleware"
	"formroute/internal/server"
)

var payloadFile string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the form webhooks",
	Long: `Starts the webhook server:

  POST /hooks/schedule   {"values": [...]}
  POST /hooks/issue      {"response": {"items": [{"title": "...", "answer": ...}]}}
  GET  /healthz`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		gw, err := gateway.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer gw.Close()

		return server.New(gw, cfg.Server.Addr, cfg.Server.Token, logger).Start(ctx)
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Create calendar events from one schedule submission",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd.Context(), cmd.OutOrStdout(), middleware.EventScheduleRequest)
	},
}

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Route one issue report to department mailboxes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd.Context(), cmd.OutOrStdout(), middleware.EventIssueReport)
	},
}

func init() {
	for _, c := range []*cobra.Command{scheduleCmd, issueCmd} {
		c.Flags().StringVarP(&payloadFile, "file", "f", "-", "JSON payload file, - for stdin")
	}
}

func runOnce(ctx context.Context, out io.Writer, name middleware.EventName) error {
	p, err := readPayload(payloadFile)
	if err != nil {
		return err
	}
	gw, err := gateway.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer gw.Close()

	sum, err := gw.Handle(ctx, name, p)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(sum)
}

func readPayload(path string) (form.Payload, error) {
	if path == "" || path == "-" {
		return form.Decode(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return form.Payload{}, fmt.Errorf("open payload: %w", err)
	}
	defer f.Close()
	return form.Decode(f)
}
