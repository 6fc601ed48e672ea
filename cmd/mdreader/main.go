// This CLI utility parses a Markdown source file into a Pandoc-style
// document tree and prints it.
//
// Usage:
//
//	mdreader [command]
//
// Available Commands:
//
//	completion  Generate the autocompletion script for the specified shell
//	help        Help about any command
//	parse       parse a Markdown source file into a document tree
//
// Flags:
//
//	-h, --help   help for mdreader
//
// Use "mdreader [command] --help" for more information about a command.
package main

import (
	"errors"
	"io"
	"os"

	"github.com/opendocs-go/mdreader/markdown"
	"github.com/sanity-io/litter"
	"github.com/spf13/cobra"
)

func prefix(msg string, err error) error {
	return errors.New(msg + err.Error())
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "mdreader",
		Short: "parse Markdown source files into a Pandoc-style document tree",
		Long: `This CLI utility parses a Markdown source file into a Pandoc-style
document tree and prints it.`,
	}

	var (
		strict  bool
		smart   bool
		raw     bool
		tabStop int
		columns int
	)
	prefixParse := "(parse) "
	parseCmd := &cobra.Command{
		Use:                   "parse [input]",
		Short:                 "parse a Markdown source file into a document tree",
		Long: `This command reads Markdown source text and prints the parsed
document tree in a readable dump format.

If no input file is specified, input is read from standard input.`,
		Args:                  cobra.MaximumNArgs(1),
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			src := os.Stdin
			if len(args) != 0 {
				f, err := os.Open(args[0])
				if err != nil {
					return prefix(prefixParse, err)
				}
				defer f.Close()
				src = f
			}
			data, err := io.ReadAll(src)
			if err != nil {
				return prefix(prefixParse, err)
			}
			doc, err := markdown.ReadMarkdown(markdown.Options{
				Strict:   strict,
				Smart:    smart,
				ParseRaw: raw,
				TabStop:  tabStop,
				Columns:  columns,
			}, string(data))
			if err != nil {
				return prefix(prefixParse, err)
			}
			litter.Dump(doc)
			return nil
		},
	}
	parseCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		if err != nil {
			return prefix(prefixParse, err)
		}
		return nil
	})
	parseCmd.Flags().BoolVar(&strict, "strict", false, "``restrict to original Markdown.pl syntax")
	parseCmd.Flags().BoolVar(&smart, "smart", false, "``enable smart typography (curly quotes, dashes, ellipses)")
	parseCmd.Flags().BoolVar(&raw, "raw", false, "``keep recognized raw HTML/LaTeX instead of discarding it")
	parseCmd.Flags().IntVar(&tabStop, "tab-stop", 4, "``column width of a tab for indentation purposes")
	parseCmd.Flags().IntVar(&columns, "columns", 80, "``column budget used for table width computation")

	rootCmd.AddCommand(parseCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
