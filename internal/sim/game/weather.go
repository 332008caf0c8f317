package game

import (
	"math"
	"math/rand"
	"sort"
	"strings"

	"tigercity/internal/protocol"
)

// Base speed multiplier per condition, reached at full intensity.
var speedMult = map[string]float64{
	"clear":      1.00,
	"clouds":     0.98,
	"rain_light": 0.90,
	"rain":       0.85,
	"storm":      0.75,
	"fog":        0.88,
	"wind":       0.92,
	"heat":       0.90,
	"cold":       0.92,
}

// Extra stamina drained per movement step, scaled by intensity. Conditions
// not listed cost nothing extra.
var staminaPenalty = map[string]float64{
	"storm": 0.30,
	"heat":  0.20,
	"rain":  0.10,
	"wind":  0.10,
}

// RGB is the background tint exported to observers.
type RGB struct {
	R, G, B int
}

var bgColor = map[string]RGB{
	"clear":      {135, 206, 235},
	"clouds":     {180, 200, 210},
	"rain_light": {120, 140, 170},
	"rain":       {100, 120, 150},
	"storm":      {70, 80, 100},
	"fog":        {200, 200, 200},
	"wind":       {170, 200, 230},
	"heat":       {255, 200, 120},
	"cold":       {220, 240, 255},
}

var defaultBG = RGB{150, 180, 200}

// defaultTransition fills in rows that the config leaves empty or as pure
// self-loops.
var defaultTransition = map[string]map[string]float64{
	"clear":      {"clear": 0.2, "clouds": 0.2, "wind": 0.2, "heat": 0.2, "cold": 0.2},
	"clouds":     {"clear": 0.2, "clouds": 0.2, "rain_light": 0.2, "wind": 0.2, "fog": 0.2},
	"rain_light": {"clouds": 0.333, "rain_light": 0.333, "rain": 0.333},
	"rain":       {"rain_light": 0.25, "rain": 0.25, "storm": 0.25, "clouds": 0.25},
	"storm":      {"rain": 0.5, "clouds": 0.5},
	"fog":        {"clouds": 0.333, "fog": 0.333, "clear": 0.333},
	"wind":       {"wind": 0.333, "clouds": 0.333, "clear": 0.333},
	"heat":       {"heat": 0.333, "clear": 0.333, "clouds": 0.333},
	"cold":       {"cold": 0.333, "clear": 0.333, "clouds": 0.333},
}

// Burst and blend durations in sim seconds.
const (
	burstMinSeconds = 60
	burstMaxSeconds = 90
	transMinSeconds = 3
	transMaxSeconds = 5
)

type weatherState struct {
	condition string
	intensity float64 // 0..1
	mult      float64 // resulting climate multiplier
}

// Weather is the stochastic condition/intensity process. A current state
// persists for a randomly drawn burst, then the next condition is sampled
// from the transition matrix and blended in over a short window.
//
// Tick-driven and single-owner: advance it once per frame with Update(dt).
// The random source is injected so tests can pin exact sequences.
type Weather struct {
	conditions map[string]struct{}
	transition map[string]map[string]float64

	current *weatherState
	target  *weatherState

	t        float64 // time inside the current burst
	burstDur float64
	transDur float64
	transT   float64

	bgCurrent RGB
	bgTarget  RGB

	rng *rand.Rand
}

func NewWeather(rng *rand.Rand) *Weather {
	return &Weather{rng: rng}
}

// Init ingests a weather config: names are lowercased, every row is
// renormalized to sum 1, and empty or self-loop-only rows get the built-in
// default distribution.
func (w *Weather) Init(cfg protocol.WeatherConfig) {
	initCond := strings.ToLower(cfg.Initial.Condition)
	if initCond == "" {
		initCond = "clear"
	}
	initInt := cfg.Initial.Intensity
	if initInt == 0 {
		initInt = 0.1
	}

	w.conditions = map[string]struct{}{}
	if len(cfg.Conditions) > 0 {
		for _, c := range cfg.Conditions {
			w.conditions[strings.ToLower(c)] = struct{}{}
		}
	} else {
		for c := range speedMult {
			w.conditions[c] = struct{}{}
		}
	}

	w.transition = map[string]map[string]float64{}
	for src, row := range cfg.Transition {
		norm := map[string]float64{}
		for dst, p := range row {
			norm[strings.ToLower(dst)] = p
		}
		w.transition[strings.ToLower(src)] = norm
	}

	for cond := range w.conditions {
		row := w.transition[cond]
		if degenerateRow(cond, row) {
			w.transition[cond] = fallbackRow(cond)
		} else {
			w.transition[cond] = renormalize(row)
		}
	}
	if _, ok := w.transition[initCond]; !ok {
		w.transition[initCond] = fallbackRow(initCond)
	}

	w.current = &weatherState{
		condition: initCond,
		intensity: initInt,
		mult:      multiplierFor(initCond, initInt),
	}
	w.target = nil
	w.bgCurrent = colorFor(initCond)
	w.bgTarget = w.bgCurrent
	w.t = 0
	w.burstDur = w.randBurst()
	w.transDur = 0
	w.transT = 0
}

func degenerateRow(cond string, row map[string]float64) bool {
	if len(row) == 0 {
		return true
	}
	if len(row) == 1 {
		_, selfOnly := row[cond]
		return selfOnly
	}
	return false
}

func fallbackRow(cond string) map[string]float64 {
	fb, ok := defaultTransition[cond]
	if !ok {
		return map[string]float64{cond: 1.0}
	}
	clean := map[string]float64{}
	for dst, p := range fb {
		if _, known := speedMult[dst]; known {
			clean[dst] = p
		}
	}
	return renormalize(clean)
}

func renormalize(row map[string]float64) map[string]float64 {
	sum := 0.0
	for _, p := range row {
		sum += p
	}
	if sum == 0 {
		sum = 1
	}
	out := make(map[string]float64, len(row))
	for dst, p := range row {
		out[dst] = p / sum
	}
	return out
}

// Update advances bursts and transitions by dt sim seconds.
func (w *Weather) Update(dt float64) {
	if w.current == nil {
		return
	}

	if w.target != nil && w.transT < w.transDur {
		w.transT += dt
		if w.transT >= w.transDur {
			// Close the blend: target becomes current.
			w.current = w.target
			w.target = nil
			w.bgCurrent = w.bgTarget
			w.t = 0
			w.burstDur = w.randBurst()
		}
		return
	}

	w.t += dt
	if w.t >= w.burstDur {
		next := w.pickNext(w.current.condition)
		intensity := w.sampleIntensity(next)
		w.target = &weatherState{
			condition: next,
			intensity: intensity,
			mult:      multiplierFor(next, intensity),
		}
		w.bgTarget = colorFor(next)
		w.transDur = w.randTransition()
		w.transT = 0
	}
}

// SpeedMultiplier is the instantaneous climate multiplier, linearly
// interpolated while a transition is in flight.
func (w *Weather) SpeedMultiplier() float64 {
	if w.current == nil {
		return 1.0
	}
	if !w.inTransition() {
		return w.current.mult
	}
	return lerp(w.current.mult, w.target.mult, w.transT/w.transDur)
}

// StaminaPenaltyPerStep is the extra stamina cost of one movement step under
// the effective condition, scaled by effective intensity.
func (w *Weather) StaminaPenaltyPerStep() float64 {
	cond, intensity := w.effective()
	return staminaPenalty[cond] * clamp01(intensity)
}

// BackgroundColor blends current and target tints during a transition and
// darkens by up to 25% with intensity.
func (w *Weather) BackgroundColor() RGB {
	if w.current == nil {
		return RGB{}
	}
	if !w.inTransition() {
		return tint(w.bgCurrent, w.current.intensity)
	}
	alpha := w.transT / w.transDur
	curTinted := tint(w.bgCurrent, w.current.intensity)
	tgtTinted := tint(w.bgTarget, w.target.intensity)
	return lerpColor(curTinted, tgtTinted, alpha)
}

// UITuple returns (effective condition, effective intensity, in-transition)
// for display.
func (w *Weather) UITuple() (string, float64, bool) {
	if w.current == nil {
		return "unknown", 0, false
	}
	cond, intensity := w.effective()
	return cond, intensity, w.inTransition()
}

func (w *Weather) inTransition() bool {
	return w.target != nil && w.transDur > 0 && w.transT < w.transDur
}

// effective switches the discrete condition at the 50% blend point while the
// intensity interpolates continuously.
func (w *Weather) effective() (string, float64) {
	if w.current == nil {
		return "clear", 0
	}
	if !w.inTransition() {
		return w.current.condition, w.current.intensity
	}
	alpha := w.transT / w.transDur
	cond := w.current.condition
	if alpha > 0.5 {
		cond = w.target.condition
	}
	return cond, lerp(w.current.intensity, w.target.intensity, alpha)
}

// pickNext samples the transition row with a cumulative-probability walk; the
// last entry is the fallback against floating rounding. Row iteration is
// sorted so a seeded run is reproducible.
func (w *Weather) pickNext(current string) string {
	row := w.transition[current]
	if len(row) == 0 {
		return current
	}
	dsts := make([]string, 0, len(row))
	total := 0.0
	for dst, p := range row {
		dsts = append(dsts, dst)
		total += p
	}
	sort.Strings(dsts)
	if total == 0 {
		total = 1
	}

	r := w.rng.Float64()
	acc := 0.0
	for _, dst := range dsts {
		acc += row[dst] / total
		if r <= acc {
			return dst
		}
	}
	return dsts[len(dsts)-1]
}

// sampleIntensity draws from a condition-family-specific range: calm skies
// stay mild, storms run wide and high.
func (w *Weather) sampleIntensity(cond string) float64 {
	var lo, hi float64
	switch cond {
	case "clear", "clouds":
		lo, hi = 0.1, 0.6
	case "rain_light", "rain", "storm":
		lo, hi = 0.3, 0.95
	case "heat", "cold":
		lo, hi = 0.2, 0.8
	default: // fog, wind
		lo, hi = 0.2, 0.7
	}
	v := lo + w.rng.Float64()*(hi-lo)
	return math.Round(v*100) / 100
}

func (w *Weather) randBurst() float64 {
	return float64(burstMinSeconds + w.rng.Intn(burstMaxSeconds-burstMinSeconds+1))
}

func (w *Weather) randTransition() float64 {
	return float64(transMinSeconds + w.rng.Intn(transMaxSeconds-transMinSeconds+1))
}

// TransitionRow exposes the normalized row for a condition. Nil if unknown.
func (w *Weather) TransitionRow(cond string) map[string]float64 {
	return w.transition[strings.ToLower(cond)]
}

// multiplierFor scales from no effect at intensity 0 down to the condition's
// base multiplier at intensity 1.
func multiplierFor(cond string, intensity float64) float64 {
	base, ok := speedMult[cond]
	if !ok {
		base = 1.0
	}
	return lerp(1.0, base, clamp01(intensity))
}

func colorFor(cond string) RGB {
	if c, ok := bgColor[cond]; ok {
		return c
	}
	return defaultBG
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*clamp01(t)
}

func lerpColor(c1, c2 RGB, t float64) RGB {
	return RGB{
		R: int(lerp(float64(c1.R), float64(c2.R), t)),
		G: int(lerp(float64(c1.G), float64(c2.G), t)),
		B: int(lerp(float64(c1.B), float64(c2.B), t)),
	}
}

func tint(c RGB, intensity float64) RGB {
	k := 1.0 - 0.25*clamp01(intensity)
	return RGB{R: int(float64(c.R) * k), G: int(float64(c.G) * k), B: int(float64(c.B) * k)}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
