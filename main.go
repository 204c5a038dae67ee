package main

import (
	"fmt"
	"os"

	"github.com/temirov/canonsync/cmd/cli"
	"github.com/temirov/canonsync/internal/utils"
)

const (
	exitErrorTemplateConstant = "%v\n"
)

// main executes the canonsync command-line application.
func main() {
	if executionError := cli.Execute(); executionError != nil {
		if utils.ShouldReport(executionError) {
			fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
		}
		os.Exit(utils.ExitCodeFor(executionError))
	}
}
