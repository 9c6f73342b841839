// Package cli implements the castindex command tree: index, version, and
// the shared root command.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "castindex",
	Short: "castindex - semantic code indexing and embedding pipeline",
	Long: `castindex discovers source files, splits them into semantic chunks,
embeds those chunks, and stores the result for retrieval.`,
}

// Execute runs the root command. Called once from main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
