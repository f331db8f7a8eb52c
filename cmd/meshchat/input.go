package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var errNoInput = errors.New("no input: pass a file argument or pipe data on stdin")

// stdinIsTerminal is swapped out in tests.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// readInput returns the contents named by arg. "-" reads stdin, as does an
// empty arg when stdin is not a terminal.
func readInput(cmd *cobra.Command, arg string) ([]byte, string, error) {
	if arg == "-" || (arg == "" && !stdinIsTerminal()) {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, "", fmt.Errorf("read stdin: %w", err)
		}
		return data, "stdin", nil
	}
	if arg == "" {
		return nil, "", errNoInput
	}

	data, err := os.ReadFile(arg)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", arg, err)
	}
	return data, arg, nil
}

func isRemote(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func optionalArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
