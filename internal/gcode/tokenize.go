package gcode

import (
	"strconv"
	"strings"
)

// Letters recognised as command words. Anything else on a line is skipped.
const wordLetters = "GMXYZIJKFSR"

// Words holds the letter/value pairs of one line. Each letter is stored at most
// once; a repeated letter overwrites the earlier value.
type Words struct {
	values [len(wordLetters)]float64
	set    uint16
}

func letterIndex(letter byte) int {
	if letter >= 'a' && letter <= 'z' {
		letter -= 'a' - 'A'
	}
	return strings.IndexByte(wordLetters, letter)
}

// Set stores value under letter. Unknown letters are ignored.
func (w *Words) Set(letter byte, value float64) {
	i := letterIndex(letter)
	if i < 0 {
		return
	}
	w.values[i] = value
	w.set |= 1 << i
}

// Get returns the value for letter and whether the line carried it.
func (w Words) Get(letter byte) (float64, bool) {
	i := letterIndex(letter)
	if i < 0 || w.set&(1<<i) == 0 {
		return 0, false
	}
	return w.values[i], true
}

// Has reports whether the line carried letter.
func (w Words) Has(letter byte) bool {
	_, ok := w.Get(letter)
	return ok
}

// GetOr returns the value for letter, or def when absent.
func (w Words) GetOr(letter byte, def float64) float64 {
	if v, ok := w.Get(letter); ok {
		return v
	}
	return def
}

// Empty reports whether no words were found.
func (w Words) Empty() bool {
	return w.set == 0
}

// Len returns the number of distinct letters present.
func (w Words) Len() int {
	n := 0
	for s := w.set; s != 0; s &= s - 1 {
		n++
	}
	return n
}

// StripComments removes ';' comments and parenthesised comments. An unclosed
// '(' drops the rest of the line.
func StripComments(line string) string {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	if strings.IndexByte(line, '(') < 0 {
		return strings.TrimSpace(line)
	}

	var b strings.Builder
	b.Grow(len(line))
	depth := 0
	for i := 0; i < len(line); i++ {
		switch c := line[i]; {
		case c == '(':
			depth++
		case c == ')' && depth > 0:
			depth--
			// keep words on either side of the comment apart
			b.WriteByte(' ')
		case depth == 0:
			b.WriteByte(c)
		}
	}
	return strings.TrimSpace(b.String())
}

// Tokenize extracts letter/value pairs from a comment-free line. Fragments that
// do not form a letter followed by a number are skipped.
func Tokenize(line string) Words {
	var w Words
	for i := 0; i < len(line); i++ {
		if letterIndex(line[i]) < 0 {
			continue
		}
		value, next, ok := scanNumber(line, i+1)
		if !ok {
			continue
		}
		w.Set(line[i], value)
		i = next - 1
	}
	return w
}

// scanNumber reads [+-]?[0-9.]+ starting at pos and parses its longest valid
// decimal prefix. next is the index after the whole run of digits and dots.
func scanNumber(s string, pos int) (value float64, next int, ok bool) {
	start := pos
	if pos < len(s) && (s[pos] == '+' || s[pos] == '-') {
		pos++
	}
	runStart := pos
	for pos < len(s) && (s[pos] >= '0' && s[pos] <= '9' || s[pos] == '.') {
		pos++
	}
	if pos == runStart {
		return 0, start, false
	}

	// "1.2.3" parses as 1.2
	end := runStart
	dot := false
	for end < pos {
		if s[end] == '.' {
			if dot {
				break
			}
			dot = true
		}
		end++
	}

	v, err := strconv.ParseFloat(s[start:end], 64)
	if err != nil {
		return 0, pos, false
	}
	return v, pos, true
}
