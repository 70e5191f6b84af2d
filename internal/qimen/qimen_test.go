package qimen

import (
	"testing"
	"time"
)

func TestPalaceCompleteness(t *testing.T) {
	dates := []time.Time{
		time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 7, 15, 3, 0, 0, 0, time.UTC),
		time.Date(1987, 12, 31, 23, 30, 0, 0, time.UTC),
	}
	for _, d := range dates {
		c := BuildChart(d)
		seen := make(map[int]bool, 9)
		for _, p := range c.Palaces {
			if p.Position < 1 || p.Position > 9 {
				t.Fatalf("%s: palace position %d out of range", d, p.Position)
			}
			if seen[p.Position] {
				t.Fatalf("%s: duplicate palace position %d", d, p.Position)
			}
			seen[p.Position] = true

			if p.Position == 5 {
				if p.Gate != CenterGate {
					t.Fatalf("%s: center gate = %q, want %q", d, p.Gate, CenterGate)
				}
				if p.Deity != "" {
					t.Fatalf("%s: center deity = %q, want empty", d, p.Deity)
				}
				continue
			}
			if p.Gate == "" || p.Gate == CenterGate {
				t.Fatalf("%s: palace %d gate = %q", d, p.Position, p.Gate)
			}
			if p.Deity == "" {
				t.Fatalf("%s: palace %d has empty deity", d, p.Position)
			}
			if p.EarthStem == "" || p.HeavenStem == "" || p.Star == "" {
				t.Fatalf("%s: palace %d incomplete: %+v", d, p.Position, p)
			}
		}
		if len(seen) != 9 {
			t.Fatalf("%s: %d palaces, want 9", d, len(seen))
		}
	}
}

func TestDunSplitAndBureauRange(t *testing.T) {
	for m := 1; m <= 12; m++ {
		c := BuildChart(time.Date(2023, time.Month(m), 10, 10, 0, 0, 0, time.UTC))
		wantYang := m == 12 || m <= 5
		if (c.DunType == DunYang) != wantYang {
			t.Fatalf("month %d dun = %s", m, c.DunType)
		}
		if c.Bureau < 1 || c.Bureau > 9 {
			t.Fatalf("month %d bureau = %d", m, c.Bureau)
		}
	}
}

func TestChartDeterministic(t *testing.T) {
	d := time.Date(2010, 3, 21, 9, 15, 0, 0, time.UTC)
	a, b := BuildChart(d), BuildChart(d)
	if *a != *b {
		t.Fatal("same instant produced different charts")
	}
}
