package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	checkerr "github.com/mrz1836/safecheck/pkg/errors"
)

// Prompt hooks, replaced in tests.
//
//nolint:gochecknoglobals // test seams
var (
	promptSecretFn  = promptSecret
	promptConfirmFn = promptConfirmation
)

// promptSecret prompts for a value with hidden input when stdin is a
// terminal, and reads one line otherwise.
func promptSecret(prompt string, in io.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		out(os.Stderr, "%s", prompt)
		secret, err := term.ReadPassword(int(f.Fd()))
		outln(os.Stderr) // Add newline after hidden input
		if err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return strings.TrimSpace(string(secret)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", checkerr.WithSuggestion(checkerr.ErrInvalidInput, "no input provided")
	}
	return strings.TrimSpace(line), nil
}

// promptConfirmation asks a yes/no question, defaulting to no.
func promptConfirmation(question string, in io.Reader) bool {
	out(os.Stderr, "%s [y/N]: ", question)

	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && response == "" {
		return false
	}

	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}
