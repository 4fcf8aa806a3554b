package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/pvihk/core/model"
	"github.com/kilianp07/pvihk/infra/importer"
	"github.com/kilianp07/pvihk/infra/logger"
)

var (
	candidatesPath string
	correctorsPath string
	dayOne         string
	dayTwo         string
	perExam        int
	inputOut       string
)

var inputCmd = &cobra.Command{
	Use:   "input",
	Short: "Build an input file from candidate and corrector lists",
	RunE:  buildInput,
}

func init() {
	f := inputCmd.Flags()
	f.StringVar(&candidatesPath, "candidates", "", "candidate list, one name per line")
	f.StringVar(&correctorsPath, "correctors", "", "corrector list (# version=2)")
	f.StringVar(&dayOne, "day1", "", "first exam day (YYYY-MM-DD)")
	f.StringVar(&dayTwo, "day2", "", "second exam day (YYYY-MM-DD)")
	f.IntVar(&perExam, "per-exam", model.DefaultCorrectorsPerExam, "correctors per exam")
	f.StringVarP(&inputOut, "output", "o", "input.json", "input file to write (.json or .yaml)")
	for _, name := range []string{"candidates", "correctors", "day1", "day2"} {
		_ = inputCmd.MarkFlagRequired(name)
	}
	rootCmd.AddCommand(inputCmd)
}

func buildInput(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	im := importer.New(cfg.Importer, logger.New("importer"))
	candidates, err := im.ReadCandidatesFile(candidatesPath)
	if err != nil {
		return err
	}
	correctors, err := im.ReadCorrectorsFile(correctorsPath)
	if err != nil {
		return err
	}
	in := importer.BuildInput(candidates, correctors, [2]string{dayOne, dayTwo}, cfg.Planner.DefaultTimeSlots, perExam)
	// Reject what the optimiser would reject before writing the file.
	if _, err := model.NewPlan(in, model.AllowSlotOverflow(cfg.Planner.AllowSlotOverflow)); err != nil {
		return err
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(inputOut)), ".")
	f, err := os.Create(inputOut)
	if err != nil {
		return err
	}
	if err := model.EncodeInput(f, in, format); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", inputOut, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d candidates and %d correctors written to %s\n", len(candidates), len(correctors), inputOut)
	return nil
}
