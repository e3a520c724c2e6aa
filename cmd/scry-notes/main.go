// Package main implements scry-notes, a terminal companion for the study-notes
// API. It lists and edits notes, and in watch mode it keeps a reading timer for
// every note and marks the note's topic completed once the reading time has
// elapsed.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(nil).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
