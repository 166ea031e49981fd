package main

import (
	"os"

	"github.com/maxkimambo/gasrun/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
