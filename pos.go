package ometa

import (
	"fmt"
	"sort"
)

// Range is the span of tokens `[Start, End)` a grammar node was read
// from.  Positions are rune offsets for textual input.
type Range struct{ Start, End int }

func NewRange(start, end int) Range {
	return Range{Start: start, End: end}
}

func (r Range) String() string {
	if r.Start == r.End {
		return fmt.Sprintf("%d", r.Start)
	}
	return fmt.Sprintf("%d..%d", r.Start, r.End)
}

// Location is a human friendly position.  Both Line and Column start
// at 1 and Column counts runes.
type Location struct {
	Line   int
	Column int
	Cursor int
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// posIndex converts rune offsets into locations
type posIndex struct {
	runes []rune

	// lineStart holds the 0-based rune offset of each line start
	lineStart []int
}

func newPosIndex(source string) *posIndex {
	runes := []rune(source)
	// line 1 always starts at offset 0
	lineStart := make([]int, 1, 64)
	for i, r := range runes {
		if r == '\n' {
			lineStart = append(lineStart, i+1)
		}
	}
	return &posIndex{runes: runes, lineStart: lineStart}
}

// LocationAt returns the location of the rune offset `cursor`.
// Offsets out of the source are clamped to its bounds.
func (pi *posIndex) LocationAt(cursor int) Location {
	cursor = max(0, min(cursor, len(pi.runes)))

	// find first lineStart > cursor, then step back one
	lineIdx := sort.Search(len(pi.lineStart), func(i int) bool {
		return pi.lineStart[i] > cursor
	}) - 1
	if lineIdx < 0 {
		lineIdx = 0
	}
	return Location{
		Line:   lineIdx + 1,
		Column: cursor - pi.lineStart[lineIdx] + 1,
		Cursor: cursor,
	}
}

// Line returns the text of the 1-based line `n` without its line
// terminator
func (pi *posIndex) Line(n int) string {
	if n < 1 || n > len(pi.lineStart) {
		return ""
	}
	start := pi.lineStart[n-1]
	end := len(pi.runes)
	if n < len(pi.lineStart) {
		end = pi.lineStart[n] - 1
	}
	if end > start && pi.runes[end-1] == '\r' {
		end--
	}
	return string(pi.runes[start:end])
}
