package token

import (
	"fmt"
	gotoken "go/token"
)

// Position is the expanded file/line/column form of a position, reused from
// the standard library token package so that scanner.ErrorList (an alias of
// go/scanner.ErrorList) can consume it directly.
type Position = gotoken.Position

const (
	lineBits = 18
	colBits  = 32 - lineBits

	// MaxLines is the maximum 1-based line number value that can be encoded in
	// Pos.
	MaxLines = (1 << lineBits) - 1
	// MaxCols is the maximum 1-based column number value that can be encoded in
	// Pos.
	MaxCols = (1 << colBits) - 1

	lineMask = MaxLines
)

// Pos is an efficient encoding of a 1-based line and column position in a
// 32-bit unsigned integer. A value of 0 for either line or column should be
// interpreted as "unknown".
type Pos uint32

// MakePos creates a Pos value encoding the provided line and col. It is the
// caller's responsibility to ensure the values are > 0 and <= the maximum
// allowed.
func MakePos(line, col int) Pos {
	return Pos(col<<lineBits | line)
}

// LineCol returns the line and column values encoded in Pos.
func (p Pos) LineCol() (int, int) {
	l := p & lineMask
	c := p >> lineBits
	return int(l), int(c)
}

// Unknown returns true if either line or column value is unknown.
func (p Pos) Unknown() bool {
	l, c := p.LineCol()
	return l == 0 || c == 0
}

func (p Pos) String() string {
	l, c := p.LineCol()
	return fmt.Sprintf("%d:%d", l, c)
}

// File associates a filename with positions produced while scanning or
// parsing it. The CLI drives one file at a time, so a single source is
// tracked rather than a whole file set.
type File struct {
	Name string
}

// FormatPos renders pos with the file name, e.g. "main.kal:3:7".
func FormatPos(file *File, pos Pos) string {
	name := "<input>"
	if file != nil && file.Name != "" {
		name = file.Name
	}
	if pos.Unknown() {
		return name
	}
	return fmt.Sprintf("%s:%s", name, pos)
}
