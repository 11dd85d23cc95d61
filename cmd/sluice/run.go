package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/sluice/pkg/manifest"
	"github.com/aretw0/sluice/pkg/pipeline"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [manifest]",
	Short: "Execute a pipeline manifest",
	Long:  `Loads a YAML manifest and executes its operations in order against the configured backend, printing the final pipeline state to stdout.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path, _ := cmd.Flags().GetString("manifest")
		if !cmd.Flags().Changed("manifest") && len(args) > 0 {
			path = args[0]
		}

		m, err := manifest.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		eng, cleanup, err := buildEngine(cmd, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		exec := eng.NewExecution(m.Pipeline, m.Backend)
		ops, err := manifest.Compile(exec, m.Operations)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		final, runErr := eng.Run(cmd.Context(), exec, ops...)

		out, err := json.MarshalIndent(map[string]any{
			"pipeline":   m.Pipeline,
			"run_id":     exec.RunID,
			"data":       final.Data,
			"references": final.References,
		}, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(out))

		switch {
		case runErr == nil:
			printStatus("✔ pipeline completed", "#22c55e")
		case pipeline.IsFatal(runErr):
			printStatus(fmt.Sprintf("✘ pipeline aborted: %v", runErr), "#ef4444")
			os.Exit(1)
		default:
			printStatus(fmt.Sprintf("⚠ pipeline partial: %v", runErr), "#eab308")
			os.Exit(2)
		}
	},
}

// printStatus writes a run summary to stderr, colored only on a terminal.
func printStatus(msg, hex string) {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		fmt.Fprintln(os.Stderr, msg)
		return
	}
	p := termenv.ColorProfile()
	fmt.Fprintln(os.Stderr, termenv.String(msg).Foreground(p.Color(hex)))
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("manifest", "f", "pipeline.yaml", "Path to the pipeline manifest")
}
