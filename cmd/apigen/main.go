package main

import (
	"fmt"
	"os"

	"github.com/dyytojerry/lago-sub001/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "apigen:", err)
		os.Exit(cli.ExitCode(err))
	}
}
