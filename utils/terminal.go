package utils

import (
	"github.com/mattn/go-isatty"
)

// IsTerminal reports whether the file descriptor is attached to a terminal
func IsTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
