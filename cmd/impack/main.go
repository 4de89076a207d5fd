// Package main implements the impack CLI.
package main

import (
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"impack/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "impack",
	Short: "Single-file bundler for scripted projects",
	Long:  `impack resolves imports, shakes unused definitions, inlines marked functions, and merges a project into one self-contained file.`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(packCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// useColor resolves the --color flag against the terminal, and flips
// the global color switch so every styled writer agrees.
func useColor(cmd *cobra.Command, out *os.File) bool {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		mode = "auto"
	}
	var on bool
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "on":
		on = true
	case "off":
		on = false
	default:
		on = isTerminal(out)
	}
	color.NoColor = !on
	return on
}
