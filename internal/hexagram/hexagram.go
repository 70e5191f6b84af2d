// Package hexagram simulates three-coin divination casts and names the
// resulting hexagrams.
package hexagram

// Line values follow the coin-toss convention: three coins, heads worth 3
// and tails worth 2, summed per line.
const (
	OldYin    = 6 // moving yin, flips to yang
	YoungYang = 7
	YoungYin  = 8
	OldYang   = 9 // moving yang, flips to yin
)

// Source is the random source behind a cast. *math/rand.Rand satisfies it,
// so tests can seed deterministic casts.
type Source interface {
	Intn(n int) int
}

// Line is one of the six lines of a cast, bottom to top.
type Line struct {
	Value  int    `json:"value"`
	Yang   bool   `json:"yang"`
	Moving bool   `json:"moving"`
	Symbol string `json:"symbol"`
}

// Hexagram is one complete cast. Lines[0] is the bottom line.
type Hexagram struct {
	Lines        [6]Line   `json:"lines"`
	Index        int       `json:"index"`
	Name         string    `json:"name"`
	UpperTrigram string    `json:"upper_trigram"`
	LowerTrigram string    `json:"lower_trigram"`
	SelfLine     int       `json:"self_line"`
	ResponseLine int       `json:"response_line"`
	Transformed  *Hexagram `json:"transformed,omitempty"`
}

// MovingLines returns the 1-based positions of moving lines, bottom to top.
func (h *Hexagram) MovingLines() []int {
	var out []int
	for i, l := range h.Lines {
		if l.Moving {
			out = append(out, i+1)
		}
	}
	return out
}

func newLine(value int) Line {
	yang := value == YoungYang || value == OldYang
	symbol := "▅▅▅ ▅▅▅"
	if yang {
		symbol = "▅▅▅▅▅▅▅"
	}
	return Line{
		Value:  value,
		Yang:   yang,
		Moving: value == OldYin || value == OldYang,
		Symbol: symbol,
	}
}

// Cast throws three coins per line, six lines bottom to top. With heads
// worth 3 and tails worth 2 the line value is 6 + heads, reproducing the
// traditional skew (moving lines rarer than static ones).
func Cast(src Source) *Hexagram {
	var values [6]int
	for i := 0; i < 6; i++ {
		heads := 0
		for c := 0; c < 3; c++ {
			if src.Intn(2) == 1 {
				heads++
			}
		}
		values[i] = 6 + heads
	}
	return FromValues(values)
}

// FromValues builds a hexagram from six explicit line values (bottom to
// top), deriving index, name, self/response lines and the transformed
// hexagram when moving lines exist.
func FromValues(values [6]int) *Hexagram {
	h := &Hexagram{}
	for i, v := range values {
		h.Lines[i] = newLine(v)
	}
	h.Index = indexOf(h.Lines)
	h.Name = Name(h.Index)
	h.UpperTrigram = TrigramName(h.Index >> 3)
	h.LowerTrigram = TrigramName(h.Index)

	// Simplified positional rule; the traditional eight-house derivation
	// is intentionally not used here.
	h.SelfLine = (h.Index % 6) + 1
	if h.SelfLine >= 4 {
		h.ResponseLine = h.SelfLine - 3
	} else {
		h.ResponseLine = h.SelfLine + 3
	}

	if hasMoving(values) {
		var flipped [6]int
		for i, v := range values {
			flipped[i] = flip(v)
		}
		t := &Hexagram{}
		for i, v := range flipped {
			t.Lines[i] = newLine(v)
		}
		t.Index = indexOf(t.Lines)
		t.Name = Name(t.Index)
		t.UpperTrigram = TrigramName(t.Index >> 3)
		t.LowerTrigram = TrigramName(t.Index)
		t.SelfLine = (t.Index % 6) + 1
		if t.SelfLine >= 4 {
			t.ResponseLine = t.SelfLine - 3
		} else {
			t.ResponseLine = t.SelfLine + 3
		}
		h.Transformed = t
	}
	return h
}

// indexOf packs the six lines into a 6-bit number, top line as MSB,
// yang lines as 1.
func indexOf(lines [6]Line) int {
	idx := 0
	for i := 5; i >= 0; i-- {
		idx <<= 1
		if lines[i].Yang {
			idx |= 1
		}
	}
	return idx
}

func hasMoving(values [6]int) bool {
	for _, v := range values {
		if v == OldYin || v == OldYang {
			return true
		}
	}
	return false
}

// flip turns a moving line into its settled opposite: old yin becomes
// young yang, old yang becomes young yin. Static lines pass through.
func flip(v int) int {
	switch v {
	case OldYin:
		return YoungYang
	case OldYang:
		return YoungYin
	default:
		return v
	}
}
