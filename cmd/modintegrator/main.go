package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/roach88/modintegrator/internal/cli"
)

func main() {
	err := cli.NewRootCommand().ExecuteContext(context.Background())

	// Commands report their own failures; anything else (bad arguments,
	// unknown flags) still needs printing.
	var exitErr *cli.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
