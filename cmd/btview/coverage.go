package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/btlib/internal/presentation/tui"
	"github.com/aretw0/btlib/internal/telemetry"
	"github.com/aretw0/btlib/pkg/domain"
	"github.com/spf13/cobra"
)

func newCoverageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coverage FILE...",
		Short: "Report execution coverage over one or more runs",
		Long: `Aggregates the execution logs of every FILE onto their tree and reports per-node
counts, status histograms and the coverage ratio.

.fbl files carry their own tree. Any other file is read as a text console log
and needs --tree. All runs must share the same tree structure.

With --record KEY the runs are also merged into the configured store and the
report covers every run recorded under KEY. With --threshold the command
fails when coverage is below the given ratio.

Formats: markdown (default), json, yaml.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCoverage,
	}
	cmd.Flags().String("tree", "", "Tree (.xml or .fbl) for text logs")
	cmd.Flags().Float64("threshold", 0, "Minimum coverage ratio in [0, 1] (overrides config)")
	cmd.Flags().String("record", "", "Merge the runs into the store under this key")
	return cmd
}

func runCoverage(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	threshold := e.cfg.Coverage.Threshold
	if cmd.Flags().Changed("threshold") {
		threshold, _ = cmd.Flags().GetFloat64("threshold")
	}
	if threshold < 0 || threshold > 1 {
		return fmt.Errorf("threshold must be within [0, 1], got %v", threshold)
	}

	var base *domain.Tree
	if path, _ := cmd.Flags().GetString("tree"); path != "" {
		if base, _, err = e.analyzer.LoadFile(path); err != nil {
			return err
		}
	}
	key, _ := cmd.Flags().GetString("record")

	acc := telemetry.NewAccumulator()
	for _, path := range args {
		tree, events, err := loadRun(e, path, base)
		if err != nil {
			return err
		}
		if err := acc.Add(tree, events, filepath.Base(path)); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if key != "" {
			if _, err := e.analyzer.Record(cmd.Context(), key, tree, events); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		}
		e.logger.Debug("Run loaded", "file", path, "events", len(events))
	}

	record := acc.Telemetry()
	title := strings.Join(args, ", ")
	if key != "" {
		if record, err = e.analyzer.Recorder().Load(cmd.Context(), key); err != nil {
			return err
		}
		title = key
	}
	summary, err := e.analyzer.Summarize(acc.Tree(), record)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	verdict, ok := tui.Verdict(summary.Coverage, threshold)
	switch format := formatFlag(cmd, "markdown"); format {
	case "markdown", "md":
		if err := tui.WriteMarkdown(out, tui.CoverageMarkdown(title, summary)); err != nil {
			return err
		}
		fmt.Fprintln(out, verdict)
	default:
		if err := encode(out, format, summary); err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), verdict)
	}

	if !ok {
		return fmt.Errorf("coverage %.1f%% is below the threshold of %.1f%%", summary.Coverage*100, threshold*100)
	}
	return nil
}

// loadRun returns the tree and events of one run file.
func loadRun(e *env, path string, base *domain.Tree) (*domain.Tree, []domain.Event, error) {
	if strings.EqualFold(filepath.Ext(path), ".fbl") {
		return e.analyzer.LoadFile(path)
	}
	if base == nil {
		return nil, nil, fmt.Errorf("%s: text logs need --tree", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log: %w", err)
	}
	defer f.Close()
	events, err := e.analyzer.DecodeTextLog(f)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return base, events, nil
}
