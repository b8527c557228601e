package main

import (
	"os"

	"github.com/projecteru2/prebake/cmd"
	cmdcore "github.com/projecteru2/prebake/cmd/core"
	"github.com/projecteru2/prebake/supervisor"
)

func main() {
	if err := cmd.Execute(); err != nil {
		cmdcore.PrintError(os.Stderr, err)
		os.Exit(supervisor.ExitCode(err))
	}
}
