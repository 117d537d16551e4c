// The main package for the newshelper executable.
package main

import (
	"github.com/JakeFAU/news-helper/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
