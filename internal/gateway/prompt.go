package gateway

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// TerminalPrompt asks for a directory on the controlling terminal.
// Returns nil when stdin is not a terminal: a headless host cannot prompt,
// which is unavailability, not denial.
func TerminalPrompt() PromptFunc {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil
	}
	return func(_ context.Context) (string, error) {
		fmt.Fprint(os.Stderr, "Directory for exported files (empty to decline): ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("reading directory prompt: %w", err)
		}
		return strings.TrimSpace(line), nil
	}
}

// FixedPrompt always grants the given directory. Used when the external
// directory is supplied by configuration instead of interactively.
func FixedPrompt(dir string) PromptFunc {
	return func(_ context.Context) (string, error) {
		return dir, nil
	}
}
