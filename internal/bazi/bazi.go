// Package bazi builds four-pillar birth charts with five-element tallies
// and the fixed zodiac/guardian/constellation lookups.
package bazi

import (
	"errors"
	"fmt"
	"time"

	"github.com/yuanqi-lab/fortune-platform/internal/almanac"
)

// ErrInvalidInput marks an unparseable birth date or time.
var ErrInvalidInput = errors.New("bazi: invalid birth input")

// Element strength classifications from the 8-component tally.
const (
	ElementStrong   = "旺"
	ElementBalanced = "平"
	ElementWeak     = "弱"
	ElementAbsent   = "缺"
)

var elements = [5]string{"木", "火", "土", "金", "水"}

// guardianDeities maps the zodiac index (鼠=0) to the birth guardian.
var guardianDeities = [12]string{
	"千手观音", "虚空藏菩萨", "虚空藏菩萨", "文殊菩萨",
	"普贤菩萨", "普贤菩萨", "大势至菩萨", "大日如来",
	"大日如来", "不动尊菩萨", "阿弥陀佛", "阿弥陀佛",
}

// constellation cutovers: before the Nth day of month M the previous sign
// still applies.
var constellationCutover = [13]int{0, 20, 19, 21, 20, 21, 22, 23, 23, 23, 24, 23, 22}

// constellations[m-1] is the sign that begins in month m.
var constellations = [12]string{
	"水瓶座", "双鱼座", "白羊座", "金牛座", "双子座", "巨蟹座",
	"狮子座", "处女座", "天秤座", "天蝎座", "射手座", "摩羯座",
}

// Input is the raw birth data as entered by the user.
type Input struct {
	Date   string `json:"date"`   // "2006-01-02"
	Time   string `json:"time"`   // "15:04", optional
	Gender string `json:"gender"` // free-form, carried through to the prompt
	Name   string `json:"name"`
}

// Chart is a complete BaZi reading.
type Chart struct {
	Pillars       almanac.FourPillars `json:"pillars"`
	Gender        string              `json:"gender"`
	Zodiac        string              `json:"zodiac"`
	GuardianDeity string              `json:"guardian_deity"`
	Constellation string              `json:"constellation"`
	TimeSlot      almanac.TimeSlot    `json:"time_slot"`
	ElementCount  map[string]int      `json:"element_count"`
	ElementState  map[string]string   `json:"element_state"`
}

// BuildChart parses the birth input and derives the chart. The only
// failure mode is ErrInvalidInput from an unparseable date or time.
func BuildChart(in Input) (*Chart, error) {
	birth, err := parseBirth(in)
	if err != nil {
		return nil, err
	}

	pillars := almanac.PillarsFor(birth)
	count := tally(pillars)

	state := make(map[string]string, len(elements))
	for _, e := range elements {
		state[e] = classify(count[e])
	}

	// Zodiac and guardian follow the pillar year, so a January birth
	// belongs to the previous animal.
	zodiacIdx := pillars.Year.Branch
	month := int(birth.Month())
	constIdx := month - 1
	if birth.Day() < constellationCutover[month] {
		constIdx = (constIdx + 11) % 12
	}

	return &Chart{
		Pillars:       pillars,
		Gender:        in.Gender,
		Zodiac:        zodiacName(zodiacIdx),
		GuardianDeity: guardianDeities[zodiacIdx],
		Constellation: constellations[constIdx],
		TimeSlot:      almanac.TimeSlotOf(birth.Hour()),
		ElementCount:  count,
		ElementState:  state,
	}, nil
}

func parseBirth(in Input) (time.Time, error) {
	if in.Date == "" {
		return time.Time{}, fmt.Errorf("%w: empty date", ErrInvalidInput)
	}
	hm := in.Time
	if hm == "" {
		hm = "00:00"
	}
	t, err := time.Parse("2006-01-02 15:04", in.Date+" "+hm)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q %q", ErrInvalidInput, in.Date, in.Time)
	}
	return t, nil
}

// tally counts the element of every stem and branch across the four
// pillars: always 8 components total.
func tally(p almanac.FourPillars) map[string]int {
	count := make(map[string]int, 5)
	for _, e := range elements {
		count[e] = 0
	}
	for _, pl := range [4]almanac.Pillar{p.Year, p.Month, p.Day, p.Hour} {
		count[almanac.FiveElementOfStem(pl.Stem)]++
		count[almanac.FiveElementOfBranch(pl.Branch)]++
	}
	return count
}

func classify(n int) string {
	switch {
	case n > 2:
		return ElementStrong
	case n > 1:
		return ElementBalanced
	case n == 1:
		return ElementWeak
	default:
		return ElementAbsent
	}
}

func zodiacName(branch int) string {
	// Branch index equals zodiac index: 子=鼠 ... 亥=猪.
	names := [12]string{"鼠", "牛", "虎", "兔", "龙", "蛇", "马", "羊", "猴", "鸡", "狗", "猪"}
	return names[branch]
}
