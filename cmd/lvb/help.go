package main

import (
	"flag"
	"fmt"
	"os"
)

// printOrderedHelp prints a one-line usage summary followed by each named
// flag's help text in display order, rather than flag.PrintDefaults'
// alphabetical order (seed/steps/spr read better grouped ahead of the
// output/diagnostic flags than interleaved with them).
func printOrderedHelp(order []string) {
	fmt.Fprintln(os.Stderr, "usage: lvb [flags] <matrix-file>")
	for _, name := range order {
		f := flag.Lookup(name)
		if f == nil {
			continue
		}
		if f.DefValue != "" {
			fmt.Fprintf(os.Stderr, "  -%s (default %s)\n\t%s\n", f.Name, f.DefValue, f.Usage)
		} else {
			fmt.Fprintf(os.Stderr, "  -%s\n\t%s\n", f.Name, f.Usage)
		}
	}
}
