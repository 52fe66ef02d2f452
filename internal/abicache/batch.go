package abicache

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"abiscan/internal/disasm"
)

// Result is the outcome for one batch input. Exactly one of Entry and Err is
// set.
type Result struct {
	Input string
	Entry *Entry
	Err   error
}

// ReadBytecode resolves a command-line input: the hex contents of the named
// file if one exists, otherwise the argument itself as hex.
func ReadBytecode(input string) ([]byte, error) {
	if fi, err := os.Stat(input); err == nil && !fi.IsDir() {
		data, err := os.ReadFile(input)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", input, err)
		}
		code, err := disasm.ParseBytecode(string(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", input, err)
		}
		return code, nil
	}
	return disasm.ParseBytecode(input)
}

// AnalyzeAll analyzes every input with at most workers running at once. The
// results are in input order. A bad input fails only its own result; the
// returned error is set only if ctx is cancelled.
func (c *Cache) AnalyzeAll(ctx context.Context, inputs []string, workers int) ([]Result, error) {
	results := make([]Result, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, input := range inputs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i].Input = input
			code, err := ReadBytecode(input)
			if err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Entry = c.Analyze(code)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
