package bot

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCallback splits callback data of the form "<action>:<arg>".
func ParseCallback(data string) (action, arg string, ok bool) {
	action, arg, ok = strings.Cut(data, ":")
	if !ok || action == "" || arg == "" {
		return "", "", false
	}
	return action, arg, true
}

// ParseRow parses a non-negative row index.
func ParseRow(arg string) (int, error) {
	row, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || row < 0 {
		return 0, fmt.Errorf("invalid row %q", arg)
	}
	return row, nil
}
