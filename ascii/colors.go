// Package ascii gives semantic names to terminal ANSI colors so the
// diagnostics and tree printers can be themed.
package ascii

import "fmt"

const (
	Reset  = "\033[0m"
	Red    = "\033[1;31m"
	Yellow = "\033[1;33m"
	Green  = "\033[1;32m"
	Cyan   = "\033[1;36m"
	Gray   = "\033[90m"

	// 256-color palette
	Orange = "\033[38;5;208m"
	Purple = "\033[1;38;5;99m"
	Pink   = "\033[1;38;5;127m"
)

// Theme maps the parts of the output to colors.  An empty string
// leaves that part uncolored, so the zero Theme prints plain text.
type Theme struct {
	// diagnostics
	Error   string
	Warning string
	Accent  string
	Muted   string

	// tree printers
	Operator string
	Operand  string
	Literal  string
	Span     string
}

// DefaultTheme works on both dark and light terminals
var DefaultTheme = Theme{
	Error:   Red,
	Warning: Yellow,
	Accent:  Cyan,
	Muted:   Gray,

	Operator: Purple,
	Operand:  Pink,
	Literal:  Green,
	Span:     Orange,
}

// Color formats its arguments wrapped in `color`
func Color(color, format string, args ...any) string {
	return fmt.Sprintf(color+format+Reset, args...)
}
