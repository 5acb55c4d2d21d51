package cli

import (
	"fmt"
	"os"

	"golang.org/x/term"

	droperr "github.com/mrz1836/crossdrop/pkg/errors"
)

// promptPasswordFn is swapped out by tests.
//
//nolint:gochecknoglobals // test seam
var promptPasswordFn = promptPassword

// promptPassword prompts for a password with hidden input.
// The caller is responsible for zeroing the returned bytes after use.
func promptPassword(prompt string) ([]byte, error) {
	fd := int(os.Stdin.Fd()) //nolint:gosec // G115: Fd() returns uintptr, safe conversion for term
	if !term.IsTerminal(fd) {
		return nil, droperr.WithSuggestion(droperr.ErrKeyRequired,
			"no terminal to prompt on; set "+EnvKeystorePassword)
	}

	_, _ = fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(os.Stderr) // Add newline after hidden input

	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}

	return password, nil
}
