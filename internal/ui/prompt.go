package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ConfirmItems lists items under a warning and asks whether to continue.
// Only "y" or "yes" confirm. Closed input without an answer declines.
func ConfirmItems(in io.Reader, out io.Writer, action string, items []string) (bool, error) {
	fmt.Fprintf(out, "\nWARNING: About to %s the following %d item(s):\n", action, len(items))
	for i, item := range items {
		fmt.Fprintf(out, "  %d. %s\n", i+1, item)
	}
	fmt.Fprint(out, "\nAre you sure you want to continue? (yes/no): ")

	input, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read user confirmation: %w", err)
	}

	input = strings.ToLower(strings.TrimSpace(input))
	return input == "yes" || input == "y", nil
}
