package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"wats-sdk/internal/report"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a WSJF report for identity errors and step problems",
		Args:  cobra.ExactArgs(1),
		RunE:  runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	r, err := readReport(args[0])
	if err != nil {
		return err
	}
	if err := r.Validate(); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if uut, ok := r.(*report.UUTReport); ok {
		problems := uut.Evaluate()
		for _, p := range problems {
			fmt.Fprintln(out, "problem:", p)
		}
		if len(problems) > 0 {
			return fmt.Errorf("%d step problem(s)", len(problems))
		}
	}
	h := r.Head()
	fmt.Fprintf(out, "OK %s %s %s/%s result=%s\n", h.Type, h.ID, h.PN, h.SN, h.Result)
	return nil
}

// view 是 show 命令的输出
type view struct {
	Summary     report.Summary `json:"summary" yaml:"summary"`
	FailedSteps []string       `json:"failedSteps,omitempty" yaml:"failedSteps,omitempty"`
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show FILE",
		Short: "Print a summary of a WSJF report",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
	cmd.Flags().String("format", "yaml", "output format (json|yaml)")
	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	r, err := readReport(args[0])
	if err != nil {
		return err
	}
	v := view{Summary: report.Summarize(r)}
	if uut, ok := r.(*report.UUTReport); ok {
		v.FailedSteps = report.FailedStepPaths(uut)
	}

	out := cmd.OutOrStdout()
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (json|yaml)", format)
	}
}
