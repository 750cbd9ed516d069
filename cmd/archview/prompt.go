package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// stdinLines is shared so repeated prompts do not lose buffered input.
var stdinLines *bufio.Reader

// promptSecret reads a line from stdin without echo when stdin is a
// terminal, and as a plain line otherwise.
func promptSecret(cmd *cobra.Command, label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		if stdinLines == nil {
			stdinLines = bufio.NewReader(cmd.InOrStdin())
		}
		line, err := stdinLines.ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("reading %s: %w", strings.ToLower(label), err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%s: ", label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", strings.ToLower(label), err)
	}
	return string(b), nil
}

// promptNewSecret asks twice on a terminal and requires both to match.
func promptNewSecret(cmd *cobra.Command, label string) (string, error) {
	first, err := promptSecret(cmd, label)
	if err != nil {
		return "", err
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return first, nil
	}
	second, err := promptSecret(cmd, "Repeat "+strings.ToLower(label))
	if err != nil {
		return "", err
	}
	if first != second {
		return "", fmt.Errorf("entries do not match")
	}
	return first, nil
}
