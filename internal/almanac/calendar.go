// Package almanac computes sexagenary (干支) calendar attributes for wall-clock
// dates: the year/month/day/hour stem-branch pillars plus five-element and
// zodiac lookups. Solar-term boundaries are approximated with fixed calendar
// cutover days; the approximation is deliberate and shared by every chart
// builder on top of this package.
package almanac

import (
	"fmt"
	"time"
)

const (
	// 1984 began a sexagenary cycle: 甲子 year.
	epochYear = 1984
	// yearCutover: dates before Feb 4 belong to the previous pillar year.
	yearCutoverMonth = 2
	yearCutoverDay   = 4
)

// dayEpoch is a known 甲子 day.
var dayEpoch = time.Date(1949, 10, 1, 0, 0, 0, 0, time.UTC)

// Pillar is one stem-branch pair of the 60 cycle.
type Pillar struct {
	Stem   int `json:"stem"`
	Branch int `json:"branch"`
}

func (p Pillar) StemName() string   { return Stems[p.Stem] }
func (p Pillar) BranchName() string { return Branches[p.Branch] }
func (p Pillar) String() string     { return Stems[p.Stem] + Branches[p.Branch] }

// Name is the display form, e.g. "甲子".
func (p Pillar) Name() string { return p.String() }

// FourPillars are the year, month, day and hour pillars of one instant.
type FourPillars struct {
	Year  Pillar `json:"year"`
	Month Pillar `json:"month"`
	Day   Pillar `json:"day"`
	Hour  Pillar `json:"hour"`
}

// TimeSlot is one of the twelve two-hour divisions of the day.
type TimeSlot struct {
	Name       string `json:"name"`
	RangeLabel string `json:"range"`
}

// mod normalizes into [0, n) even for negative a, so dates before the
// epochs still yield valid cycle indices.
func mod(a, n int) int {
	return ((a % n) + n) % n
}

// PillarsFor computes all four pillars for the given instant. It never
// fails: any finite time has a valid position in each cycle.
func PillarsFor(t time.Time) FourPillars {
	return FourPillars{
		Year:  YearPillar(t),
		Month: MonthPillar(t),
		Day:   DayPillar(t),
		Hour:  HourPillar(t),
	}
}

// YearPillar returns the year pillar, cutting over on Feb 4.
func YearPillar(t time.Time) Pillar {
	y := pillarYear(t)
	return Pillar{Stem: mod(y-epochYear, 10), Branch: mod(y-epochYear, 12)}
}

// pillarYear applies the Feb 4 cutover.
func pillarYear(t time.Time) int {
	y := t.Year()
	m := int(t.Month())
	if m < yearCutoverMonth || (m == yearCutoverMonth && t.Day() < yearCutoverDay) {
		y--
	}
	return y
}

// MonthPillar returns the month pillar. The branch follows the fixed
// cutover table; the stem is derived from the year stem via the
// five-tigers rule.
func MonthPillar(t time.Time) Pillar {
	offset := solarMonthOffset(t)
	yearStem := YearPillar(t).Stem
	stem := mod(firstMonthStem[yearStem%5]+offset, 10)
	branch := mod(offset+2, 12) // first solar month is 寅, branch index 2
	return Pillar{Stem: stem, Branch: branch}
}

// solarMonthOffset returns 0 for the 寅 month (from around Feb 4), 1 for
// the 卯 month, and so on.
func solarMonthOffset(t time.Time) int {
	m := int(t.Month())
	offset := m - 2
	if t.Day() < monthCutoverDay[m] {
		offset--
	}
	return mod(offset, 12)
}

// DayPillar returns the day pillar as a whole-day offset from the epoch.
func DayPillar(t time.Time) Pillar {
	civil := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	days := int(civil.Sub(dayEpoch).Hours() / 24)
	return Pillar{Stem: mod(days, 10), Branch: mod(days, 12)}
}

// HourPillar returns the hour pillar. Slot 0 (子) covers 23:00-01:00; the
// stem follows the five-rats rule from the same civil day's day stem.
func HourPillar(t time.Time) Pillar {
	branch := ((t.Hour() + 1) / 2) % 12
	dayStem := DayPillar(t).Stem
	stem := mod(firstHourStem[dayStem%5]+branch, 10)
	return Pillar{Stem: stem, Branch: branch}
}

// FiveElementOfStem returns the wuxing element of a stem index.
func FiveElementOfStem(stem int) string {
	return stemElements[mod(stem, 10)]
}

// FiveElementOfBranch returns the wuxing element of a branch index.
func FiveElementOfBranch(branch int) string {
	return branchElements[mod(branch, 12)]
}

// ZodiacAnimal returns the animal of a calendar year (Feb 4 cutover is the
// caller's concern; pass the pillar year for strict correctness).
func ZodiacAnimal(year int) string {
	return zodiacAnimals[mod(year-epochYear, 12)]
}

// TimeSlotOf names the two-hour division containing the given hour of day.
func TimeSlotOf(hour int) TimeSlot {
	idx := ((mod(hour, 24)) + 1) / 2 % 12
	return TimeSlot{
		Name:       Branches[idx] + "时",
		RangeLabel: hourRangeLabels[idx],
	}
}

// GanZhiYear formats a year's pillar, e.g. GanZhiYear(2000) => "庚辰".
func GanZhiYear(year int) string {
	return fmt.Sprintf("%s%s", Stems[mod(year-epochYear, 10)], Branches[mod(year-epochYear, 12)])
}
