package core

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrInvalidInput is returned when the prompt answer is not a non-negative
// integer.
var ErrInvalidInput = errors.New("invalid input")

// PromptIndex prints question to w and reads one line from r as a number.
func PromptIndex(r *bufio.Reader, w io.Writer, question string) (int, error) {
	fmt.Fprintln(w, question)
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("failed to read input: %w", err)
	}
	n, convErr := strconv.Atoi(strings.TrimSpace(line))
	if convErr != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidInput, strings.TrimSpace(line))
	}
	return n, nil
}
