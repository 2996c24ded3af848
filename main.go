// The main package for the doaj-reviewer executable.
package main

import (
	"github.com/ikhwan-arief/DOAJ-Reviewer/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
