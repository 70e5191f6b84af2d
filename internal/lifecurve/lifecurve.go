// Package lifecurve turns sparse model-supplied yearly scores into a dense
// 100-year candlestick-style series, or simulates one outright when no
// usable sparse data exists.
package lifecurve

import (
	"fmt"

	"github.com/yuanqi-lab/fortune-platform/internal/almanac"
)

const (
	seriesYears = 100

	// ChildhoodLabel is the luck-cycle sentinel for ages before the
	// first ten-year cycle starts.
	ChildhoodLabel = "童限"

	defaultCycleStartAge = 8
)

// Source is the random source for jitter and simulation. *math/rand.Rand
// satisfies it.
type Source interface {
	Intn(n int) int
	Float64() float64
}

// SparsePoint is one model-supplied anchor, typically every ~5 years.
type SparsePoint struct {
	Age     int     `json:"age"`
	Score   float64 `json:"score"`
	Summary string  `json:"summary"`
}

// Point is one year of the dense series.
type Point struct {
	Age       int     `json:"age"`
	Year      int     `json:"year"`
	GanZhi    string  `json:"ganzhi"`
	LuckCycle string  `json:"luck_cycle"`
	Open      float64 `json:"open"`
	Close     float64 `json:"close"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Summary   string  `json:"summary"`
	Narrative string  `json:"narrative"`
}

// Options tune a series build.
type Options struct {
	Source        Source
	CycleStartAge int // first decade-cycle age; 0 means default
}

// SummaryBand classifies a 0-100 score into the five display bands.
func SummaryBand(score float64) string {
	switch {
	case score >= 80:
		return "大吉"
	case score >= 70:
		return "吉"
	case score >= 60:
		return "平"
	case score >= 40:
		return "凶"
	default:
		return "大凶"
	}
}

// Interpolate builds the dense series from sparse anchors: exact anchor
// ages are used as-is, gaps are filled by linear interpolation (held flat
// past the outermost anchors) with small random jitter, and each year's
// open chains from the previous year's close.
func Interpolate(sparse []SparsePoint, birthYear int, opts Options) []Point {
	byAge := make(map[int]SparsePoint, len(sparse))
	for _, p := range sparse {
		if p.Age >= 1 && p.Age <= seriesYears {
			byAge[p.Age] = p
		}
	}

	cycleStart := opts.CycleStartAge
	if cycleStart <= 0 {
		cycleStart = defaultCycleStartAge
	}

	out := make([]Point, 0, seriesYears)
	prevClose := 0.0
	for age := 1; age <= seriesYears; age++ {
		var score float64
		var summary string
		exact := false

		if p, ok := byAge[age]; ok {
			exact = true
			score = clamp(p.Score, 0, 100)
			summary = p.Summary
		} else {
			score = interpolateAt(byAge, age)
			if opts.Source != nil {
				score += opts.Source.Float64()*3 - 1.5
			}
			score = clamp(score, 10, 95)
		}
		if summary == "" {
			summary = SummaryBand(score)
		}

		open := prevClose
		if age == 1 {
			open = score
		}
		high := clamp(max(open, score)+2, 0, 100)
		low := clamp(min(open, score)-2, 0, 100)

		year := birthYear + age - 1
		out = append(out, Point{
			Age:       age,
			Year:      year,
			GanZhi:    almanac.GanZhiYear(year),
			LuckCycle: cycleLabel(age, cycleStart, birthYear),
			Open:      open,
			Close:     score,
			High:      high,
			Low:       low,
			Summary:   summary,
			Narrative: narrativeFor(year, exact),
		})
		prevClose = score
	}
	return out
}

// interpolateAt linearly interpolates between the nearest anchors around
// age, holds flat when only one side exists, and falls back to 50 with no
// anchors at all.
func interpolateAt(byAge map[int]SparsePoint, age int) float64 {
	prevAge, nextAge := 0, 0
	for a := age - 1; a >= 1; a-- {
		if _, ok := byAge[a]; ok {
			prevAge = a
			break
		}
	}
	for a := age + 1; a <= seriesYears; a++ {
		if _, ok := byAge[a]; ok {
			nextAge = a
			break
		}
	}

	switch {
	case prevAge > 0 && nextAge > 0:
		p, n := byAge[prevAge], byAge[nextAge]
		ratio := float64(age-prevAge) / float64(nextAge-prevAge)
		return p.Score + (n.Score-p.Score)*ratio
	case prevAge > 0:
		return byAge[prevAge].Score
	case nextAge > 0:
		return byAge[nextAge].Score
	default:
		return 50
	}
}

// Simulate produces the same shape from pure random walks, used when the
// model returned nothing parseable. The decade trend re-rolls every ten
// years and the close is pulled back toward the [30,90] band.
func Simulate(birthYear int, opts Options) []Point {
	src := opts.Source
	cycleStart := opts.CycleStartAge
	if cycleStart <= 0 {
		cycleStart = defaultCycleStartAge
	}

	out := make([]Point, 0, seriesYears)
	prevClose := 45 + src.Float64()*20
	trend := src.Float64()*4 - 2
	for age := 1; age <= seriesYears; age++ {
		if (age-cycleStart)%10 == 0 {
			trend = src.Float64()*4 - 2
		}

		close := prevClose + trend + src.Float64()*10 - 5
		// mean reversion toward the habitable band
		if close < 30 {
			close += (30 - close) * 0.5
		} else if close > 90 {
			close -= (close - 90) * 0.5
		}
		close = clamp(close, 0, 100)

		open := prevClose
		if age == 1 {
			open = close
		}
		high := clamp(max(open, close)+src.Float64()*3, 0, 100)
		low := clamp(min(open, close)-src.Float64()*3, 0, 100)

		year := birthYear + age - 1
		out = append(out, Point{
			Age:       age,
			Year:      year,
			GanZhi:    almanac.GanZhiYear(year),
			LuckCycle: cycleLabel(age, cycleStart, birthYear),
			Open:      open,
			Close:     close,
			High:      high,
			Low:       low,
			Summary:   SummaryBand(close),
			Narrative: narrativeFor(year, false),
		})
		prevClose = close
	}
	return out
}

// cycleLabel names the active ten-year luck cycle by the ganzhi of its
// first year, e.g. "甲子运".
func cycleLabel(age, cycleStart, birthYear int) string {
	if age < cycleStart {
		return ChildhoodLabel
	}
	decadeStartAge := cycleStart + (age-cycleStart)/10*10
	return almanac.GanZhiYear(birthYear+decadeStartAge-1) + "运"
}

var elementNarratives = map[string]string{
	"木": "流年属木，宜生发进取",
	"火": "流年属火，势盛而忌躁",
	"土": "流年属土，稳中可守成",
	"金": "流年属金，利决断收敛",
	"水": "流年属水，宜流转应变",
}

func narrativeFor(year int, anchored bool) string {
	elem := almanac.FiveElementOfStem(year - 1984)
	n := elementNarratives[elem]
	if anchored {
		return n
	}
	return fmt.Sprintf("%s（推演）", n)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
