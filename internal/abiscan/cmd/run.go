package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"abiscan/internal/abicache"
	"abiscan/internal/logging"
)

func newRunCmd(a *app) *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run [input...]",
		Short: "Analyze many inputs non-interactively",
		Long: `Analyze every input in parallel and print one report per input, in
argument order. Inputs are files holding hex or literal hex strings. Identical
bytecode is analyzed once.`,
		Example: `
# Analyze a directory of dumps
abiscan run dumps/*.hex

# One JSON document for the whole batch
abiscan run --json -w 8 dumps/*.hex
  `,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOutput, _ := cmd.Flags().GetBool("json")
			quiet, _ := cmd.Flags().GetBool("quiet")

			lg := logging.NewLogger()
			defer lg.Close()

			start := time.Now()
			results, err := a.cache.AnalyzeAll(cmd.Context(), args, a.cfg.Workers)
			if err != nil {
				return err
			}

			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
					lg.Warn("undecodable input", "input", r.Input, "err", r.Err)
					continue
				}
				lg.Debug("analyzed", "input", r.Input, "hash", r.Entry.CodeHash.Hex(), "items", len(r.Entry.ABI))
			}
			hits, misses := a.cache.Stats()
			if !quiet {
				lg.Info("batch done",
					"inputs", len(results),
					"failed", failed,
					"analyzed", misses,
					"cached", hits,
					"elapsed", time.Since(start).Round(time.Millisecond))
			}

			if jsonOutput {
				err = writeBatchJSON(cmd.OutOrStdout(), results)
			} else {
				writeBatchText(cmd.OutOrStdout(), results, a)
			}
			if err != nil {
				return err
			}
			if failed == len(results) {
				return fmt.Errorf("no input could be analyzed")
			}
			return nil
		},
	}

	runCmd.Flags().BoolP("quiet", "q", false, "Hide the batch summary log line")
	runCmd.Flags().BoolP("json", "j", false, "Output one JSON array for the batch")
	runCmd.Flags().IntP("workers", "w", 0, "Inputs analyzed concurrently (default GOMAXPROCS)")
	return runCmd
}

func writeBatchJSON(w io.Writer, results []abicache.Result) error {
	out := make([]BatchOutput, len(results))
	for i, r := range results {
		out[i] = batchOutput(r)
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func writeBatchText(w io.Writer, results []abicache.Result, a *app) {
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "# %s\n", shortHash(r.Input))
		if r.Err != nil {
			fmt.Fprintf(w, "error: %v\n", r.Err)
			continue
		}
		fmt.Fprintf(w, "; code hash %s\n", r.Entry.CodeHash.Hex())
		for _, item := range r.Entry.ABI {
			fmt.Fprintln(w, descriptorLine(item, a.sigs))
		}
	}
}
