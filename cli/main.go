// Command eqsat simplifies Modelica-style arithmetic expressions by
// equality saturation. Expressions come from arguments, a file, or stdin
// (one per line); limits come from flags, EQSAT_* environment variables, or
// an optional config file, in that order of precedence.
package main

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/modelica-tools/eqsat/pkgs/engine"
	"github.com/modelica-tools/eqsat/pkgs/logging"
)

func main() {
	var (
		file       string
		configFile string
		savePath   string
		loadPath   string
		timing     bool
		debug      bool
	)

	v := viper.New()
	v.SetDefault("iter-limit", 10)
	v.SetDefault("node-limit", 1000)
	v.SetDefault("time-limit", 500*time.Millisecond)
	v.SetEnvPrefix("EQSAT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:   "eqsat [expression...]",
		Short: "Simplify Modelica-style expressions with equality saturation",
		Long: `eqsat parses prefix-notation expressions such as "(+ x (* 2 x))",
explores their algebraic equivalents with a rewrite-rule e-graph, and prints
the smallest equivalent form.`,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				v.SetConfigFile(configFile)
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("reading config: %w", err)
				}
			}
			if err := v.BindPFlag("iter-limit", cmd.Flags().Lookup("iter-limit")); err != nil {
				return err
			}
			if err := v.BindPFlag("node-limit", cmd.Flags().Lookup("node-limit")); err != nil {
				return err
			}
			if err := v.BindPFlag("time-limit", cmd.Flags().Lookup("time-limit")); err != nil {
				return err
			}

			logger := logging.New(os.Stderr, debug)

			eng := engine.MakeEngine(
				engine.WithIterLimit(v.GetInt("iter-limit")),
				engine.WithNodeLimit(v.GetInt("node-limit")),
				engine.WithTimeLimit(v.GetDuration("time-limit")),
				engine.WithLogger(logger),
			)
			defer engine.Release(eng)

			if loadPath != "" {
				if err := loadGraph(eng, loadPath); err != nil {
					return err
				}
			}

			exprs, err := collectExpressions(args, file)
			if err != nil {
				return err
			}
			if len(exprs) == 0 {
				return fmt.Errorf("no expressions given; pass them as arguments, via --file, or on stdin")
			}

			rules := engine.MakeRules()
			for _, src := range exprs {
				res, err := eng.SimplifyExpr(rules, src)
				if err != nil {
					cmd.SilenceUsage = true
					return err
				}
				fmt.Println(res.Expr)
				if timing {
					printTimings(res)
				}
			}

			if savePath != "" {
				if err := saveGraph(eng, savePath); err != nil {
					return err
				}
			}
			return nil
		},
	}

	rootCmd.Flags().StringVarP(&file, "file", "f", "", "Read expressions from a file, one per line")
	rootCmd.Flags().StringVar(&configFile, "config", "", "Config file with limit settings")
	rootCmd.Flags().Int("iter-limit", 10, "Maximum saturation iterations per expression")
	rootCmd.Flags().Int("node-limit", 1000, "Maximum e-nodes in the e-graph")
	rootCmd.Flags().Duration("time-limit", 500*time.Millisecond, "Wall-clock limit per expression")
	rootCmd.Flags().StringVar(&savePath, "save", "", "Save the e-graph to a file after simplifying")
	rootCmd.Flags().StringVar(&loadPath, "load", "", "Load a previously saved e-graph before simplifying")
	rootCmd.Flags().BoolVar(&timing, "timing", false, "Show pipeline timing breakdown")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Enable debug output")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// collectExpressions gathers inputs: explicit arguments win, then --file,
// then stdin. Blank lines and #-comments are skipped in file and stdin
// input.
func collectExpressions(args []string, file string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}

	in := os.Stdin
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		in = f
	}

	var exprs []string
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		exprs = append(exprs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return exprs, nil
}

func printTimings(res *engine.Result) {
	stages := []struct {
		name string
		d    time.Duration
	}{
		{"parse", res.Timings.Parse},
		{"run", res.Timings.Run},
		{"extract", res.Timings.Extract},
	}
	sort.Slice(stages, func(i, j int) bool { return stages[i].d > stages[j].d })
	for _, s := range stages {
		fmt.Fprintf(os.Stderr, "%-8s %s\n", s.name, s.d)
	}
	fmt.Fprintf(os.Stderr, "cost     %.0f -> %.0f (stop: %s)\n", res.InputCost, res.Cost, res.Stop)
}

func saveGraph(eng *engine.Engine, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("saving e-graph: %w", err)
	}
	if err := eng.SaveGraph(f); err != nil {
		f.Close()
		return fmt.Errorf("saving e-graph: %w", err)
	}
	return f.Close()
}

func loadGraph(eng *engine.Engine, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("loading e-graph: %w", err)
	}
	defer f.Close()
	if err := eng.LoadGraph(f); err != nil {
		return fmt.Errorf("loading e-graph: %w", err)
	}
	return nil
}
