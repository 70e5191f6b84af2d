package bazi

import (
	"errors"
	"testing"
	"time"

	"github.com/yuanqi-lab/fortune-platform/internal/almanac"
)

func TestBuildChartNoonMillennium(t *testing.T) {
	c, err := BuildChart(Input{Date: "2000-01-01", Time: "12:00", Gender: "male"})
	if err != nil {
		t.Fatalf("build chart: %v", err)
	}

	// Jan 1 is before the Feb 4 cutover, so the year pillar is 1999's.
	if got, want := c.Pillars.Year, almanac.YearPillar(time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)); got != want {
		t.Fatalf("year pillar = %s, want %s", got, want)
	}
	if c.Pillars.Year.String() != "己卯" {
		t.Fatalf("year pillar = %s, want 己卯", c.Pillars.Year)
	}

	// 4 pillars x 2 components each.
	sum := 0
	for _, n := range c.ElementCount {
		sum += n
	}
	if sum != 8 {
		t.Fatalf("element tally sums to %d, want 8", sum)
	}
	if len(c.ElementState) != 5 {
		t.Fatalf("element states = %d, want 5", len(c.ElementState))
	}

	if c.Zodiac != "兔" {
		t.Fatalf("zodiac = %s, want 兔", c.Zodiac)
	}
	if c.GuardianDeity != "文殊菩萨" {
		t.Fatalf("guardian = %s, want 文殊菩萨", c.GuardianDeity)
	}
	if c.Constellation != "摩羯座" {
		t.Fatalf("constellation = %s, want 摩羯座", c.Constellation)
	}
	if c.TimeSlot.Name != "午时" {
		t.Fatalf("time slot = %s, want 午时", c.TimeSlot.Name)
	}
}

func TestElementClassification(t *testing.T) {
	cases := []struct {
		n    int
		want string
	}{
		{0, ElementAbsent},
		{1, ElementWeak},
		{2, ElementBalanced},
		{3, ElementStrong},
		{5, ElementStrong},
	}
	for _, tc := range cases {
		if got := classify(tc.n); got != tc.want {
			t.Fatalf("classify(%d) = %s, want %s", tc.n, got, tc.want)
		}
	}
}

func TestBuildChartDefaultsTime(t *testing.T) {
	c, err := BuildChart(Input{Date: "1995-06-15", Gender: "female"})
	if err != nil {
		t.Fatalf("build chart: %v", err)
	}
	if c.Pillars.Hour.Branch != 0 {
		t.Fatalf("default hour branch = %d, want 子", c.Pillars.Hour.Branch)
	}
}

func TestBuildChartInvalidInput(t *testing.T) {
	for _, in := range []Input{
		{},
		{Date: "not-a-date"},
		{Date: "2000-13-40"},
		{Date: "2000-01-01", Time: "25:99"},
	} {
		_, err := BuildChart(in)
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("input %+v: err = %v, want ErrInvalidInput", in, err)
		}
	}
}
