package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/nxadm/tail"
	"github.com/spf13/cobra"

	"abiscan/internal/abicache"
	"abiscan/internal/disasm"
	"abiscan/internal/logging"
)

func newWatchCmd(a *app) *cobra.Command {
	watchCmd := &cobra.Command{
		Use:   "watch [file]",
		Short: "Analyze bytecode lines appended to a file",
		Long: `Follow a file holding one hex bytecode per line and print one JSON object
per non-empty line as it arrives. Lines starting with # are skipped.`,
		Example: `
# Analyze contracts as a collector appends them
abiscan watch deployed.txt

# Analyze the current contents and exit
abiscan watch --follow=false deployed.txt
  `,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			follow, _ := cmd.Flags().GetBool("follow")
			return a.watch(cmd.Context(), args[0], follow, cmd.OutOrStdout())
		},
	}
	watchCmd.Flags().Bool("follow", true, "Keep waiting for new lines")
	return watchCmd
}

// watch tails path and writes a BatchOutput line per input line until ctx
// is done or, without follow, the end of the file is reached.
func (a *app) watch(ctx context.Context, path string, follow bool, w io.Writer) error {
	lg := logging.NewLogger()
	defer lg.Close()

	t, err := tail.TailFile(path, tail.Config{
		Follow:    follow,
		ReOpen:    follow,
		MustExist: true,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	defer t.Cleanup()
	defer t.Stop()

	enc := json.NewEncoder(w)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				return t.Wait()
			}
			if line.Err != nil {
				lg.Warn("tail error", "file", path, "err", line.Err)
				continue
			}
			out, skip := a.analyzeLine(line.Text)
			if skip {
				continue
			}
			if out.Error != "" {
				lg.Warn("undecodable input", "line", line.Num, "err", out.Error)
			} else {
				lg.Debug("analyzed", "line", line.Num, "hash", out.CodeHash, "items", len(out.ABI))
			}
			if err := enc.Encode(out); err != nil {
				return fmt.Errorf("failed to write result: %w", err)
			}
		}
	}
}

// analyzeLine analyzes one watched line. Blank lines and # comments are
// skipped.
func (a *app) analyzeLine(text string) (BatchOutput, bool) {
	text = strings.TrimSpace(text)
	if text == "" || strings.HasPrefix(text, "#") {
		return BatchOutput{}, true
	}

	r := abicache.Result{Input: shortHash(text)}
	code, err := disasm.ParseBytecode(text)
	if err != nil {
		r.Err = err
	} else {
		r.Entry = a.cache.Analyze(code)
	}
	return batchOutput(r), false
}
