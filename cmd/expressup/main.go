package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rpggio/expressup/internal/domain/batch"
	"github.com/rpggio/expressup/internal/express"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "expressup: %v\n", err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	root       string
	lookback   string
	dryRun     bool
	upload     bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "expressup [order-dir]",
		Short: "Upload dental scan orders for design",
		Long: `expressup sends new dental scan orders to the Express design service.

With an order directory it checks that one order and, with --upload, sends it.
Without arguments it scans the orders root for orders created within the
lookback window and uploads every one that is new and qualifies.`,
		Version:      version,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runSingle(cmd, opts, args[0])
			}
			return runBatch(cmd, opts)
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML config file (default $EXPRESSUP_CONFIG_PATH)")
	cmd.Flags().StringVar(&opts.root, "root", "", "orders root directory (default orders.root_dir)")
	cmd.Flags().StringVar(&opts.lookback, "lookback", "", "only consider orders created within this many hours (default orders.lookback_hours)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "scan and select without uploading")
	cmd.Flags().BoolVar(&opts.upload, "upload", false, "single order: upload when new and qualifying (default orders.auto_upload)")
	cmd.AddCommand(
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newStatusCmd(opts),
		newHistoryCmd(opts),
		newServeCmd(opts),
	)
	return cmd
}

func runBatch(cmd *cobra.Command, opts *rootOptions) error {
	ctx := cmd.Context()
	a, err := newApp(opts.configPath, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	root := opts.root
	if root == "" {
		root = a.cfg.Orders.RootDir
	}
	if root == "" {
		return errors.New("no orders root: pass --root or set orders.root_dir")
	}
	lookback, err := lookbackFor(opts.lookback, a.cfg.Orders.LookbackHours)
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
	if opts.dryRun {
		_, err = svc.Scan(ctx, root, lookback)
	} else {
		_, err = svc.Run(ctx, root, lookback)
	}

	out := cmd.OutOrStdout()
	for _, item := range svc.Items() {
		fmt.Fprintf(out, "%-24s %-16s %s\n", item.OrderID, item.State, item.Message)
	}
	fmt.Fprintln(out, svc.Summary())
	if errors.Is(err, batch.ErrCancelled) {
		fmt.Fprintln(out, "Cancelled. Run again to upload the remaining orders.")
	}
	return err
}

func runSingle(cmd *cobra.Command, opts *rootOptions, dir string) error {
	ctx := cmd.Context()
	a, err := newApp(opts.configPath, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	upload := a.cfg.Orders.AutoUpload
	if cmd.Flags().Changed("upload") {
		upload = opts.upload
	}

	if err := a.resumeSession(ctx); err != nil {
		return err
	}
	defer a.saveSession(context.WithoutCancel(ctx))

	svc, err := a.batchService()
	if err != nil {
		return err
	}
	result, err := svc.HandleSingle(ctx, dir, upload)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %s\n", result.OrderID, result.Message)
	if result.Record != nil && express.Reviewable(*result.Record) {
		fmt.Fprintf(out, "Review: %s\n", a.client.InspectURL(result.Record.ID))
	}
	return nil
}

func lookbackFor(flag string, configured float64) (time.Duration, error) {
	if flag != "" {
		return batch.ParseLookback(flag)
	}
	return batch.LookbackHours(configured)
}
