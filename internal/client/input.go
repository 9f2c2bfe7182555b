// Package client handles user input validation and processing
package client

import (
	"bufio"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"jitsus/internal/network"

	"github.com/pkg/errors"
)

// InputHandler reads user input line by line
type InputHandler struct {
	scanner *bufio.Scanner
	display *Display
}

// NewInputHandler creates a new input handler
func NewInputHandler(in io.Reader, display *Display) *InputHandler {
	return &InputHandler{
		scanner: bufio.NewScanner(in),
		display: display,
	}
}

// ReadLine returns the next trimmed input line. ok is false at end of input.
func (ih *InputHandler) ReadLine() (string, bool) {
	if !ih.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(ih.scanner.Text()), true
}

// GetUsername prompts until a valid username is entered
func (ih *InputHandler) GetUsername() (string, error) {
	for {
		ih.display.Printf("Enter your username (1-%d characters): ", network.MaxNameLength)

		username, ok := ih.ReadLine()
		if !ok {
			if err := ih.scanner.Err(); err != nil {
				return "", errors.Wrap(err, "read username failed")
			}
			return "", io.EOF
		}

		if err := ValidateUsername(username); err != nil {
			ih.display.PrintWarning(err.Error())
			continue
		}
		return username, nil
	}
}

// ValidateUsername applies the server's name rules locally.
func ValidateUsername(username string) error {
	if username == "" {
		return errors.New("username must not be empty")
	}
	if utf8.RuneCountInString(username) > network.MaxNameLength {
		return errors.Errorf("username must be no more than %d characters long", network.MaxNameLength)
	}
	for _, r := range username {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return errors.New("username must not contain spaces or control characters")
		}
	}
	return nil
}
