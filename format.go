package ometa

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/clarete/ometa/ascii"
)

// Reason describes in plain words what the parser expected at the
// position of the failure
func Reason(f *Failure) string {
	items := f.Expected
	switch len(items) {
	case 0:
		return "syntax error"
	case 1:
		item := items[0]
		switch {
		case item.Kind == KindMessage:
			return fmt.Sprint(item.Value)
		case item.Value == nil:
			return "expected " + article(item.Kind) + " " + item.Kind
		default:
			return fmt.Sprintf("expected the %s %s", item.Kind, quote(item.Value))
		}
	}
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = describe(item)
	}
	if len(parts) == 2 {
		return "expected one of " + parts[0] + " or " + parts[1]
	}
	last := len(parts) - 1
	return "expected one of " + strings.Join(parts[:last], ", ") + ", or " + parts[last]
}

// describe renders one item of a list of expectations
func describe(item Expectation) string {
	switch {
	case item.Kind == KindMessage:
		return fmt.Sprint(item.Value)
	case item.Value == nil:
		return article(item.Kind) + " " + item.Kind
	default:
		return quote(item.Value)
	}
}

func article(word string) string {
	if word != "" && strings.ContainsRune("aeiouAEIOU", rune(word[0])) {
		return "an"
	}
	return "a"
}

func quote(v any) string {
	switch t := v.(type) {
	case rune:
		return strconv.QuoteRune(t)
	case string:
		return strconv.Quote(t)
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprintf("%v", v)
}

// FormatFailure renders the line of `source` where `f` happened, a
// caret under the column and the reason of the failure:
//
//	1+*
//	  ^
//	Parse error at line 1, column 3: expected a digit
func FormatFailure(source string, f *Failure) string {
	return formatFailure(source, f, ascii.Theme{})
}

// HighlightFailure is FormatFailure with ANSI colors
func HighlightFailure(source string, f *Failure) string {
	return formatFailure(source, f, ascii.DefaultTheme)
}

func formatFailure(source string, f *Failure, theme ascii.Theme) string {
	if f.Position == NoPosition {
		return paint(theme.Error, "Parse error: ") + Reason(f)
	}
	pi := newPosIndex(source)
	loc := pi.LocationAt(f.Position)

	var s strings.Builder
	s.WriteString("\n")
	s.WriteString(pi.Line(loc.Line))
	s.WriteString("\n")
	s.WriteString(strings.Repeat(" ", loc.Column-1))
	s.WriteString(paint(theme.Accent, "^"))
	s.WriteString("\n")
	s.WriteString(paint(theme.Error, fmt.Sprintf("Parse error at line %d, column %d: ", loc.Line, loc.Column)))
	s.WriteString(Reason(f))
	return s.String()
}

func paint(color, text string) string {
	if color == "" {
		return text
	}
	return ascii.Color(color, "%s", text)
}
