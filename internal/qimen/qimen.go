// Package qimen builds nine-palace Qimen Dunjia charts from calendar time.
// Rotation follows fixed tables; the dun split and bureau numbers use
// calendar-month approximations of the solar-term rules.
package qimen

import (
	"time"

	"github.com/yuanqi-lab/fortune-platform/internal/almanac"
)

const (
	DunYang = "阳遁"
	DunYin  = "阴遁"

	// CenterGate is the sentinel gate of palace 5; the center palace
	// carries no deity.
	CenterGate     = "中门"
	centerPosition = 5
)

var nineStars = [9]string{"天蓬", "天任", "天冲", "天辅", "天英", "天芮", "天柱", "天心", "天禽"}

var eightGates = [8]string{"休门", "生门", "伤门", "杜门", "景门", "死门", "惊门", "开门"}

var eightDeities = [8]string{"值符", "腾蛇", "太阴", "六合", "白虎", "玄武", "九地", "九天"}

// earthStemSeq is the fixed earth-plate stem for palaces 1..9.
var earthStemSeq = [9]int{4, 5, 6, 7, 8, 9, 3, 2, 1} // 戊己庚辛壬癸丁丙乙

// bureau numbers per calendar month (index month-1), one table per dun.
var yangBureaus = [12]int{1, 7, 4, 3, 9, 6, 2, 8, 5, 1, 7, 4}
var yinBureaus = [12]int{9, 3, 6, 7, 1, 4, 8, 2, 5, 9, 3, 6}

// Palace is one cell of the 3x3 grid. Deity is empty at the center.
type Palace struct {
	Position   int    `json:"position"`
	EarthStem  string `json:"earth_stem"`
	HeavenStem string `json:"heaven_stem"`
	Star       string `json:"star"`
	Gate       string `json:"gate"`
	Deity      string `json:"deity"`
}

// Chart is a complete nine-palace chart for one instant.
type Chart struct {
	DunType  string              `json:"dun_type"`
	Bureau   int                 `json:"bureau"`
	DutyStar string              `json:"duty_star"`
	DutyGate string              `json:"duty_gate"`
	Pillars  almanac.FourPillars `json:"pillars"`
	Palaces  [9]Palace           `json:"palaces"`
}

// BuildChart constructs the chart for the given time. Deterministic: the
// same instant always yields the same chart.
func BuildChart(t time.Time) *Chart {
	pillars := almanac.PillarsFor(t)
	month := int(t.Month())

	dun := DunYin
	if month == 12 || month <= 5 {
		dun = DunYang
	}

	var bureau int
	if dun == DunYang {
		bureau = yangBureaus[month-1]
	} else {
		bureau = yinBureaus[month-1]
	}

	dutyStarIdx := pillars.Day.Stem % 9
	dutyGateIdx := pillars.Hour.Stem % 8

	c := &Chart{
		DunType:  dun,
		Bureau:   bureau,
		DutyStar: nineStars[dutyStarIdx],
		DutyGate: eightGates[dutyGateIdx],
		Pillars:  pillars,
	}

	deity := 0
	for i := 0; i < 9; i++ {
		p := Palace{
			Position:   i + 1,
			EarthStem:  almanac.Stems[earthStemSeq[i]],
			HeavenStem: almanac.Stems[(earthStemSeq[i]+bureau-1)%10],
			Star:       nineStars[(dutyStarIdx+i)%9],
		}
		if p.Position == centerPosition {
			p.Gate = CenterGate
		} else {
			p.Gate = eightGates[(dutyGateIdx+i)%8]
			p.Deity = eightDeities[deity%8]
			deity++
		}
		c.Palaces[i] = p
	}
	return c
}
