// Command sqllint fails when an inline SQL constant lacks its "--sql <uuid>"
// marker or reuses another statement's marker. Targets default to
// internal/sqlinline.
package main

import (
	"flag"
	"fmt"
	"os"
)

func main() {
	verbose := flag.Bool("v", false, "print the number of markers checked")
	flag.Parse()

	targets := flag.Args()
	if len(targets) == 0 {
		targets = []string{"internal/sqlinline"}
	}

	l := newLinter()
	for _, target := range targets {
		if err := l.lintPath(target); err != nil {
			fmt.Fprintf(os.Stderr, "sqllint: %s: %v\n", target, err)
			os.Exit(2)
		}
	}

	problems := l.sorted()
	for _, v := range problems {
		fmt.Fprintln(os.Stderr, v)
	}
	if len(problems) > 0 {
		fmt.Fprintf(os.Stderr, "sqllint: %d problem(s)\n", len(problems))
		os.Exit(1)
	}
	if *verbose {
		fmt.Printf("sqllint: %d markers ok\n", len(l.seen))
	}
}
