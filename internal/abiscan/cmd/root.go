package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/pprof"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"abiscan/internal/abicache"
	"abiscan/internal/abiscan/log"
	"abiscan/internal/abiscan/styles"
	"abiscan/internal/analysis"
	"abiscan/internal/config"
	"abiscan/internal/ui/colorize"
)

// app is the state shared by all commands once flags are parsed.
type app struct {
	cfg   *config.Config
	sigs  *analysis.SignatureDB
	cache *abicache.Cache
}

// setup resolves configuration: file, then environment, then flags.
func (a *app) setup(cmd *cobra.Command) error {
	if _, err := ResolveCwd(cmd); err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("debug") {
		cfg.Debug, _ = flags.GetBool("debug")
	}
	if flags.Changed("signatures") {
		cfg.SignaturesFile, _ = flags.GetString("signatures")
	}
	if flags.Changed("no-color") {
		cfg.NoColor, _ = flags.GetBool("no-color")
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	cfg.Normalize()

	log.Setup("", cfg.Debug)
	if cfg.NoColor {
		colorize.Disable()
	}

	sigs, err := cfg.Signatures()
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.sigs = sigs
	a.cache = abicache.New(cfg.CacheSize, cfg.HistorySize)
	slog.Debug("Configuration loaded",
		"workers", cfg.Workers,
		"cacheSize", cfg.CacheSize,
		"historySize", cfg.HistorySize,
		"signatures", sigs.Len())
	return nil
}

// readInput resolves the single input of the root command. "-" reads hex
// from stdin.
func readInput(cmd *cobra.Command, input string) ([]byte, error) {
	if input != "-" {
		return abicache.ReadBytecode(input)
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return abicache.ReadBytecode(string(data))
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "abiscan [bytecode|file|-]",
		Short: "Recover a contract ABI from EVM bytecode",
		Long: `abiscan scans deployed EVM bytecode for its function dispatcher and event
topics and prints a best-effort ABI: selectors, payability, state mutability
and event hashes. Input is hex, either literal, from a file or from stdin.`,
		Example: `
# Explore a contract interactively
abiscan ./token.hex

# Print the recovered ABI as JSON
abiscan --json 0x6080604052...

# Print the summary and the annotated listing
abiscan --full ./token.hex
  `,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cpuprofile, _ := cmd.Flags().GetString("cpuprofile")
			if cpuprofile != "" {
				f, err := os.Create(cpuprofile)
				if err != nil {
					return fmt.Errorf("could not create CPU profile: %w", err)
				}
				defer f.Close()
				if err := pprof.StartCPUProfile(f); err != nil {
					return fmt.Errorf("could not start CPU profile: %w", err)
				}
				defer pprof.StopCPUProfile()
			}

			code, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			name := args[0]
			if len(name) > 42 {
				name = shortHash(name)
			}

			noTUI, _ := cmd.Flags().GetBool("no-tui")
			showFull, _ := cmd.Flags().GetBool("full")
			jsonOutput, _ := cmd.Flags().GetBool("json")

			// --full implies --no-tui
			if showFull {
				noTUI = true
			}
			// So does a piped stdout, which also gets no color.
			if !isTerminal(cmd.OutOrStdout()) {
				noTUI = true
				colorize.Disable()
			}

			switch {
			case jsonOutput:
				return writeABI(cmd.OutOrStdout(), a.cache.Analyze(code).ABI)
			case noTUI:
				return a.runNoTUI(cmd.OutOrStdout(), name, code, showFull)
			}

			program := tea.NewProgram(
				NewModel(name, code, a.cache, a.sigs),
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
			)
			if _, err := program.Run(); err != nil {
				slog.Error("TUI run error", "error", err)
				return fmt.Errorf("TUI error: %w", err)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringP("cwd", "c", "", "Current working directory")
	rootCmd.PersistentFlags().String("config", "", "TOML configuration file")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")
	rootCmd.PersistentFlags().StringP("signatures", "s", "", "File of extra function and event signatures")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable listing highlighting")

	rootCmd.Flags().BoolP("no-tui", "n", false, "Show summary without TUI")
	rootCmd.Flags().BoolP("full", "f", false, "Show the annotated listing too (implies --no-tui)")
	rootCmd.Flags().BoolP("json", "j", false, "Output the recovered ABI as JSON")
	rootCmd.Flags().String("cpuprofile", "", "Write CPU profile to file")

	rootCmd.AddCommand(
		newRunCmd(a),
		newWatchCmd(a),
		newSchemaCmd(),
	)
	return rootCmd
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}

// runNoTUI prints the markdown summary, and with full the listing after it.
func (a *app) runNoTUI(w io.Writer, name string, code []byte, full bool) error {
	e := a.cache.Analyze(code)
	summary := summaryMarkdown(name, code, e, a.sigs)

	if !full || !colorize.Enabled() {
		fmt.Fprint(w, summary)
	} else {
		renderer, err := styles.MarkdownRenderer(100)
		if err != nil {
			return fmt.Errorf("failed to create renderer: %w", err)
		}
		rendered, err := renderer.Render(summary)
		if err != nil {
			return fmt.Errorf("failed to render summary: %w", err)
		}
		fmt.Fprint(w, rendered)
	}

	if full {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "## Listing")
		fmt.Fprintln(w)
		fmt.Fprintln(w, colorize.Listing(listingText(code, e.Program, a.sigs)))
	}
	return nil
}

func Execute() {
	// Check if a plain output flag is present, or if output is being piped,
	// to bypass fang's markdown rendering
	plain := false
	for _, arg := range os.Args[1:] {
		switch arg {
		case "--no-tui", "-n", "--full", "-f", "--json", "-j":
			plain = true
		}
	}
	if !plain && !term.IsTerminal(os.Stdout.Fd()) {
		plain = true
	}

	rootCmd := newRootCmd()
	if plain {
		if err := rootCmd.Execute(); err != nil {
			os.Exit(1)
		}
		return
	}
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

func ResolveCwd(cmd *cobra.Command) (string, error) {
	cwd, _ := cmd.Flags().GetString("cwd")
	if cwd != "" {
		err := os.Chdir(cwd)
		if err != nil {
			return "", fmt.Errorf("failed to change directory: %w", err)
		}
		return cwd, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}
	return cwd, nil
}
