package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

func success(format string, a ...any) {
	green.Printf("✓ "+format, a...)
}

func info(format string, a ...any) {
	fmt.Printf(format, a...)
}

func heading(format string, a ...any) {
	cyan.Printf(format, a...)
}

func warning(format string, a ...any) {
	yellow.Printf("! "+format, a...)
}

// fail prints a formatted error to stderr and returns a plain error for
// cobra to exit with.
func fail(format string, a ...any) error {
	msg := fmt.Sprintf(format, a...)
	red.Fprintf(os.Stderr, "%s\n", msg)
	return fmt.Errorf("%s", msg)
}
