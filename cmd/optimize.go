package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/pvihk/app"
	"github.com/kilianp07/pvihk/core/model"
	"github.com/kilianp07/pvihk/core/planner"
	"github.com/kilianp07/pvihk/infra/logger"
	"github.com/kilianp07/pvihk/infra/report"
)

var (
	inputPath  string
	reportPath string
	resultPath string
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Optimise an input file and write the PDF report",
	RunE:  optimize,
}

func init() {
	optimizeCmd.Flags().StringVarP(&inputPath, "input", "i", "", "input file (.json or .yaml)")
	optimizeCmd.Flags().StringVarP(&reportPath, "output", "o", "distribution.pdf", "PDF report")
	optimizeCmd.Flags().StringVar(&resultPath, "result", "", "optional JSON file receiving the distribution")
	_ = optimizeCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(optimizeCmd)
}

func optimize(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	in, err := model.LoadInput(inputPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	pl, err := planner.New(cfg.Planner, logger.New("planner"))
	if err != nil {
		return err
	}
	runner := app.NewRunner(pl, report.NewPDFEmitter(), cfg.Report, logger.New("runner"))
	defer runner.Close()

	out, res, err := runner.Run(ctx, in)
	if err != nil {
		return err
	}
	if err := os.WriteFile(reportPath, out.PDF, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if resultPath != "" {
		if err := writeJSON(resultPath, out); err != nil {
			return err
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d exams scheduled, report written to %s\n",
		out.Status, len(res.Assignments)-len(res.Unscheduled), reportPath)
	for _, e := range res.Unscheduled {
		fmt.Fprintf(cmd.OutOrStdout(), "not scheduled: %s\n", e.Name)
	}
	return nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
