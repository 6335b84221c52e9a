package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/simp-lee/kepub"
)

var (
	outDir  string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:           "kepubc <book.epub>",
	Short:         "Convert an ePub to a Kobo KEPUB",
	Long:          "kepubc rewrites an ePub for Kobo devices: the cover image is flagged in the\npackage manifest and every sentence is tagged with a kobospan marker,\nenabling sentence-level reading features.",
	Args:          cobra.ExactArgs(1),
	RunE:          run,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Flags().StringVarP(&outDir, "out-dir", "o", "", "output directory (default: the input file's directory)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print per-document progress")
}

func run(cmd *cobra.Command, args []string) error {
	input := args[0]

	dir := outDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	output := filepath.Join(dir, outputName(filepath.Base(input)))

	conv, err := kepub.NewConverter()
	if err != nil {
		return err
	}
	if verbose {
		conv.SetLogger(func(format string, a ...any) {
			color.Cyan(format, a...)
		})
	}

	start := time.Now()
	if err := conv.Convert(input, output); err != nil {
		return err
	}
	color.Green("wrote %s (%s)", output, time.Since(start).Round(time.Millisecond))
	return nil
}

// outputName derives the KEPUB filename from the input filename.
// Kobo devices only enable kepub features for files ending in ".kepub.epub".
func outputName(base string) string {
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".kepub.epub"
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "kepubc: %v\n", err)
		os.Exit(1)
	}
}
