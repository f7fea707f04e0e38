package svgconv

import (
	"fmt"
	"strconv"
	"strings"

	mt "github.com/rustyoz/Mtransform"
	gl "github.com/rustyoz/genericlexer"
)

// arity is the number of values each path command consumes per repetition.
var arity = map[byte]int{
	'M': 2, 'L': 2, 'T': 2,
	'H': 1, 'V': 1,
	'C': 6, 'S': 4, 'Q': 4,
	'A': 7,
	'Z': 0,
}

type pathParser struct {
	lex       *gl.Lexer
	transform mt.Transform
	segments  int

	cur, start Point
	// previous command and its last control point, for S and T reflection
	prevCmd  byte
	prevCtrl Point

	current *Polyline
	lines   []Polyline
}

// parsePathData flattens SVG path data into polylines in document space.
// Curves and arcs become segments chords each.
func parsePathData(d string, tf mt.Transform, segments int) ([]Polyline, error) {
	if strings.TrimSpace(d) == "" {
		return nil, nil
	}
	l, _ := gl.Lex("d", d)
	p := &pathParser{lex: l, transform: tf, segments: segments}

	for {
		it := p.lex.NextItem()
		switch it.Type {
		case gl.ItemError:
			return nil, fmt.Errorf("%w: %s", ErrPathData, it.Value)
		case gl.ItemEOS:
			p.flush()
			return p.lines, nil
		case gl.ItemLetter:
			if err := p.command(it.Value); err != nil {
				return nil, err
			}
		case gl.ItemNumber:
			return nil, fmt.Errorf("%w: number %q without a command", ErrPathData, it.Value)
		default:
			// separators
		}
	}
}

// numbers reads every number up to the next command letter.
func (p *pathParser) numbers() ([]float64, error) {
	var out []float64
	for {
		p.lex.ConsumeWhiteSpace()
		p.lex.ConsumeComma()
		p.lex.ConsumeWhiteSpace()
		if p.lex.PeekItem().Type != gl.ItemNumber {
			return out, nil
		}
		it := p.lex.NextItem()
		v, err := strconv.ParseFloat(it.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrPathData, it.Value)
		}
		out = append(out, v)
	}
}

func (p *pathParser) command(letter string) error {
	if len(letter) != 1 {
		return fmt.Errorf("%w: unexpected %q", ErrPathData, letter)
	}
	c := letter[0]
	rel := c >= 'a' && c <= 'z'
	upper := c &^ 0x20

	n, ok := arity[upper]
	if !ok {
		return fmt.Errorf("%w: unsupported command %q", ErrPathData, letter)
	}

	args, err := p.numbers()
	if err != nil {
		return err
	}

	if n == 0 {
		p.close()
		p.prevCmd = 'Z'
		return nil
	}
	if len(args) == 0 || len(args)%n != 0 {
		return fmt.Errorf("%w: %q takes %d values per segment, got %d", ErrPathData, letter, n, len(args))
	}

	for i := 0; i < len(args); i += n {
		cmd := upper
		// extra pairs after a moveto are implicit linetos
		if upper == 'M' && i > 0 {
			cmd = 'L'
		}
		p.segment(cmd, rel, args[i:i+n])
	}
	return nil
}

func (p *pathParser) abs(rel bool, x, y float64) Point {
	if rel {
		return Point{X: p.cur.X + x, Y: p.cur.Y + y}
	}
	return Point{X: x, Y: y}
}

func (p *pathParser) segment(cmd byte, rel bool, a []float64) {
	ctrl := Point{}
	switch cmd {
	case 'M':
		p.flush()
		p.cur = p.abs(rel, a[0], a[1])
		p.start = p.cur
		p.current = &Polyline{Points: []Point{apply(p.transform, p.cur)}}

	case 'L':
		p.lineTo(p.abs(rel, a[0], a[1]))

	case 'H':
		x := a[0]
		if rel {
			x += p.cur.X
		}
		p.lineTo(Point{X: x, Y: p.cur.Y})

	case 'V':
		y := a[0]
		if rel {
			y += p.cur.Y
		}
		p.lineTo(Point{X: p.cur.X, Y: y})

	case 'C':
		c1 := p.abs(rel, a[0], a[1])
		c2 := p.abs(rel, a[2], a[3])
		end := p.abs(rel, a[4], a[5])
		p.addPoints(cubicPoints(p.cur, c1, c2, end, p.segments))
		ctrl = c2

	case 'S':
		c1 := p.reflect('C', 'S')
		c2 := p.abs(rel, a[0], a[1])
		end := p.abs(rel, a[2], a[3])
		p.addPoints(cubicPoints(p.cur, c1, c2, end, p.segments))
		ctrl = c2

	case 'Q':
		c := p.abs(rel, a[0], a[1])
		end := p.abs(rel, a[2], a[3])
		p.addPoints(quadPoints(p.cur, c, end, p.segments))
		ctrl = c

	case 'T':
		c := p.reflect('Q', 'T')
		end := p.abs(rel, a[0], a[1])
		p.addPoints(quadPoints(p.cur, c, end, p.segments))
		ctrl = c

	case 'A':
		end := p.abs(rel, a[5], a[6])
		p.addPoints(arcPoints(p.cur, a[0], a[1], a[2], a[3] != 0, a[4] != 0, end, p.segments))
		p.cur = end
	}

	p.prevCmd = cmd
	p.prevCtrl = ctrl
}

// reflect returns the implied first control point of a smooth curve.
func (p *pathParser) reflect(kinds ...byte) Point {
	for _, k := range kinds {
		if p.prevCmd == k {
			return Point{X: 2*p.cur.X - p.prevCtrl.X, Y: 2*p.cur.Y - p.prevCtrl.Y}
		}
	}
	return p.cur
}

func (p *pathParser) ensureStarted() {
	if p.current == nil {
		p.start = p.cur
		p.current = &Polyline{Points: []Point{apply(p.transform, p.cur)}}
	}
}

func (p *pathParser) lineTo(pt Point) {
	p.ensureStarted()
	p.cur = pt
	p.current.Points = append(p.current.Points, apply(p.transform, pt))
}

func (p *pathParser) addPoints(pts []Point) {
	p.ensureStarted()
	for _, pt := range pts {
		p.current.Points = append(p.current.Points, apply(p.transform, pt))
		p.cur = pt
	}
}

func (p *pathParser) close() {
	if p.current != nil && len(p.current.Points) > 1 {
		p.current.Points = append(p.current.Points, p.current.Points[0])
		p.current.Closed = true
		p.lines = append(p.lines, *p.current)
	}
	p.current = nil
	p.cur = p.start
}

func (p *pathParser) flush() {
	if p.current != nil && len(p.current.Points) > 1 {
		p.lines = append(p.lines, *p.current)
	}
	p.current = nil
}
