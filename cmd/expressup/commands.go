package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/rpggio/expressup/internal/domain/journal"
	"github.com/rpggio/expressup/internal/express"
	"github.com/rpggio/expressup/internal/mcp"
)

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var remember bool
	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Log in to the design service; the password is read from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(opts.configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			user := args[0]
			fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
			password, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && password == "" {
				return fmt.Errorf("read password: %w", err)
			}
			password = strings.TrimRight(password, "\r\n")

			ok, err := a.client.Login(ctx, user, password, remember)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			if !ok {
				return fmt.Errorf("login rejected for %s", user)
			}

			out := cmd.OutOrStdout()
			if !remember {
				fmt.Fprintf(out, "Credentials accepted for %s (not remembered).\n", user)
				return nil
			}
			cookie := a.client.AuthCookie()
			if cookie != nil && cookie.Expires.IsZero() {
				cookie = nil
			}
			if err := a.identities.Remember(ctx, a.site(), user, cookie); err != nil {
				return err
			}
			if cookie == nil {
				fmt.Fprintf(out, "Logged in as %s, but the service issued no persistent session.\n", user)
				return nil
			}
			fmt.Fprintf(out, "Logged in as %s until %s.\n", user, cookie.Expires.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}
	cmd.Flags().BoolVar(&remember, "remember", true, "keep the session for later runs")
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the remembered session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(opts.configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			switch err := a.resumeSession(ctx); {
			case err == nil:
				if err := a.client.Logout(ctx); err != nil {
					a.logger.Warn("logout failed", "error", err)
				}
			case !errors.Is(err, ErrNotLoggedIn):
				a.logger.Warn("could not resume session", "error", err)
			}
			if err := a.identities.Forget(ctx, a.site()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <order-id>",
		Short: "Show what the design service recorded for an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(opts.configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.resumeSession(ctx); err != nil {
				return err
			}
			defer a.saveSession(context.WithoutCancel(ctx))

			records, err := a.client.GetStatus(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintf(out, "%s has not been uploaded.\n", args[0])
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tSTATUS\tDESCRIPTION")
			for _, rec := range records {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", rec.ID, rec.CreatedUTC.Local().Format("2006-01-02 15:04"),
					express.Classify(rec), express.Describe(rec, time.Local))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			for _, rec := range records {
				if express.Reviewable(rec) {
					fmt.Fprintf(out, "Review %s: %s\n", rec.ID, a.client.InspectURL(rec.ID))
				}
			}
			return nil
		},
	}
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var list journal.ListOptions
	var outcome string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded order outcomes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts.configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			if outcome != "" {
				o := journal.Outcome(outcome)
				list.Outcome = &o
			}
			entries, err := a.journal.Recent(cmd.Context(), list)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tRUN\tORDER\tOUTCOME\tMESSAGE")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					shortRunID(e.RunID), e.OrderID, e.Outcome, e.Message)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&list.RunID, "run", "", "only entries of this run")
	cmd.Flags().StringVar(&list.OrderID, "order", "", "only entries of this order")
	cmd.Flags().StringVar(&outcome, "outcome", "", "only entries with this outcome")
	cmd.Flags().IntVar(&list.Limit, "limit", 20, "maximum number of entries")
	return cmd
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the order tools to an MCP host over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(opts.configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			lookback, err := lookbackFor("", a.cfg.Orders.LookbackHours)
			if err != nil {
				return err
			}
			if err := a.resumeSession(ctx); err != nil {
				return err
			}
			defer a.saveSession(context.WithoutCancel(ctx))

			svc, err := a.batchService()
			if err != nil {
				return err
			}
			server := mcp.NewServer(mcp.Config{
				Services: mcp.Services{
					Batch:   svc,
					Status:  a.client,
					Journal: a.journal,
				},
				Version:  version,
				RootDir:  a.cfg.Orders.RootDir,
				Lookback: lookback,
				Logger:   a.logger,
			})

			a.logger.Info("starting stdio transport", "site", a.site())
			// Run blocks until stdin closes or the context is cancelled.
			if err := server.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				return fmt.Errorf("stdio server: %w", err)
			}
			return nil
		},
	}
}
