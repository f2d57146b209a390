package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"wats-sdk/internal/api"
	"wats-sdk/internal/queue"
	"wats-sdk/internal/rules"
	"wats-sdk/internal/station"
	"wats-sdk/internal/transport"
	"wats-sdk/internal/uploader"
)

func newSubmitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "submit FILE",
		Short: "Submit a report to the server immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runSubmit,
	}
}

func runSubmit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	r, err := readReport(args[0])
	if err != nil {
		return err
	}
	station.New(cfg.Station).Fill(r.Head())
	if err := r.Validate(); err != nil {
		return err
	}

	logger := newLogger(cmd)
	client := api.New(transport.New(cfg.ServerURL, cfg.Token, cfg.Timeout(), logger), logger)
	if err := client.Reports.Submit(cmd.Context(), r); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "submitted", r.Head().ID)
	return nil
}

func newEnqueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enqueue FILE",
		Short: "Add a report to the offline queue",
		Args:  cobra.ExactArgs(1),
		RunE:  runEnqueue,
	}
	cmd.Flags().Int("priority", 0, "higher priority reports are uploaded first")
	return cmd
}

func runEnqueue(cmd *cobra.Command, args []string) error {
	priority, _ := cmd.Flags().GetInt("priority")
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	r, err := readReport(args[0])
	if err != nil {
		return err
	}
	station.New(cfg.Station).Fill(r.Head())

	wal, err := queue.Open(cfg.QueuePath)
	if err != nil {
		return err
	}
	defer wal.Close()

	// 只写入离线队列，由 flush 或上传服务负责提交
	up := uploader.New(nil, uploader.Options{WAL: wal, Logger: newLogger(cmd)})
	id, err := up.Enqueue(r, priority)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "queued", id)
	return nil
}

func newFlushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Upload every report waiting in the offline queue",
		Args:  cobra.NoArgs,
		RunE:  runFlush,
	}
}

func runFlush(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	rule, err := rules.Compile(cfg.SubmitRule)
	if err != nil {
		return err
	}
	wal, err := queue.Open(cfg.QueuePath)
	if err != nil {
		return err
	}
	defer wal.Close()

	logger := newLogger(cmd)
	client := api.New(transport.New(cfg.ServerURL, cfg.Token, cfg.Timeout(), logger), logger)
	up := uploader.New(client.Reports, uploader.Options{
		MaxWorkers: cfg.MaxWorkers,
		Rule:       rule,
		WAL:        wal,
		Logger:     logger,
	})
	n, err := up.RecoverPending()
	if err != nil {
		return err
	}
	err = up.Flush(cmd.Context())
	fmt.Fprintf(cmd.OutOrStdout(), "flushed %d report(s), %d failed\n", n, up.Failed())
	return err
}
