package game

import (
	"math"
	"math/rand"
	"testing"

	"tigercity/internal/protocol"
)

func seededWeather(seed int64, cfg protocol.WeatherConfig) *Weather {
	w := NewWeather(rand.New(rand.NewSource(seed)))
	w.Init(cfg)
	return w
}

func TestWeather_InitDefaults(t *testing.T) {
	w := seededWeather(1, protocol.WeatherConfig{})
	cond, intensity, inTrans := w.UITuple()
	if cond != "clear" || intensity != 0.1 || inTrans {
		t.Fatalf("defaults = %s/%v/%v", cond, intensity, inTrans)
	}
	if w.SpeedMultiplier() != 1.0 {
		t.Fatalf("clear multiplier = %v", w.SpeedMultiplier())
	}
}

func TestWeather_RowsNormalizeToOne(t *testing.T) {
	w := seededWeather(1, protocol.WeatherConfig{
		Initial:    protocol.WeatherInitial{Condition: "CLEAR", Intensity: 0.2},
		Conditions: []string{"clear", "rain", "fog"},
		Transition: map[string]map[string]float64{
			"clear": {"RAIN": 2, "clear": 6}, // unnormalized, mixed case
			"fog":   {"fog": 1},              // pure self-loop
		},
	})

	row := w.TransitionRow("clear")
	sum := 0.0
	for _, p := range row {
		sum += p
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Fatalf("clear row sums to %v", sum)
	}
	if math.Abs(row["rain"]-0.25) > 1e-9 || math.Abs(row["clear"]-0.75) > 1e-9 {
		t.Fatalf("clear row = %v", row)
	}

	// A self-loop-only row is replaced by the built-in distribution.
	fog := w.TransitionRow("fog")
	if len(fog) < 2 {
		t.Fatalf("degenerate fog row kept: %v", fog)
	}
	sum = 0
	for _, p := range fog {
		sum += p
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Fatalf("fog fallback row sums to %v", sum)
	}

	// The missing rain row got the default too.
	if len(w.TransitionRow("rain")) == 0 {
		t.Fatalf("rain row missing")
	}
}

func TestWeather_DeterministicUnderSeed(t *testing.T) {
	cfg := protocol.WeatherConfig{Initial: protocol.WeatherInitial{Condition: "clouds", Intensity: 0.4}}
	a := seededWeather(42, cfg)
	b := seededWeather(42, cfg)

	for i := 0; i < 600; i++ {
		a.Update(1.0)
		b.Update(1.0)
		ca, ia, ta := a.UITuple()
		cb, ib, tb := b.UITuple()
		if ca != cb || ia != ib || ta != tb {
			t.Fatalf("step %d: %s/%v/%v vs %s/%v/%v", i, ca, ia, ta, cb, ib, tb)
		}
		if a.SpeedMultiplier() != b.SpeedMultiplier() {
			t.Fatalf("step %d: multipliers diverge", i)
		}
	}
}

func TestWeather_MultiplierStaysBounded(t *testing.T) {
	w := seededWeather(7, protocol.WeatherConfig{})
	for i := 0; i < 2000; i++ {
		w.Update(0.5)
		m := w.SpeedMultiplier()
		if m < 0.75 || m > 1.0 {
			t.Fatalf("step %d: multiplier %v out of [0.75, 1.0]", i, m)
		}
		if p := w.StaminaPenaltyPerStep(); p < 0 || p > 0.30 {
			t.Fatalf("step %d: stamina penalty %v out of range", i, p)
		}
	}
}

func TestWeather_TransitionSwitchesOnceAtMidpoint(t *testing.T) {
	w := seededWeather(3, protocol.WeatherConfig{})
	before, _, _ := w.UITuple()

	// Walk in small steps until a transition starts, then record the
	// effective condition across it.
	var seen []string
	started := false
	for i := 0; i < 40000 && !started; i++ {
		w.Update(0.05)
		if _, _, inTrans := w.UITuple(); inTrans {
			started = true
		} else {
			before, _, _ = w.UITuple()
		}
	}
	if !started {
		t.Fatalf("no transition within the horizon")
	}
	for {
		cond, _, inTrans := w.UITuple()
		if !inTrans {
			break
		}
		seen = append(seen, cond)
		w.Update(0.05)
	}
	after, _, _ := w.UITuple()

	// During the blend the condition flips exactly once, from the old to
	// the new one.
	switched := false
	for _, c := range seen {
		switch c {
		case before:
			if switched {
				t.Fatalf("condition flipped back to %s mid-blend: %v", before, seen)
			}
		case after:
			switched = true
		default:
			t.Fatalf("unexpected condition %s during blend (before=%s after=%s)", c, before, after)
		}
	}
}

func TestWeather_IntensityRangesPerFamily(t *testing.T) {
	w := seededWeather(11, protocol.WeatherConfig{})
	ranges := map[string][2]float64{
		"clear": {0.1, 0.6}, "clouds": {0.1, 0.6},
		"rain_light": {0.3, 0.95}, "rain": {0.3, 0.95}, "storm": {0.3, 0.95},
		"heat": {0.2, 0.8}, "cold": {0.2, 0.8},
		"fog": {0.2, 0.7}, "wind": {0.2, 0.7},
	}
	for cond, want := range ranges {
		for i := 0; i < 50; i++ {
			v := w.sampleIntensity(cond)
			if v < want[0] || v > want[1] {
				t.Fatalf("%s intensity %v outside [%v, %v]", cond, v, want[0], want[1])
			}
		}
	}
}

func TestWeather_BackgroundDarkensWithIntensity(t *testing.T) {
	calm := seededWeather(1, protocol.WeatherConfig{
		Initial: protocol.WeatherInitial{Condition: "storm", Intensity: 0.05},
	})
	wild := seededWeather(1, protocol.WeatherConfig{
		Initial: protocol.WeatherInitial{Condition: "storm", Intensity: 0.95},
	})
	c, d := calm.BackgroundColor(), wild.BackgroundColor()
	if !(d.R < c.R && d.G < c.G && d.B < c.B) {
		t.Fatalf("high intensity not darker: %v vs %v", c, d)
	}
}
