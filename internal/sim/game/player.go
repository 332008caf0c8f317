package game

// PlayerCondition is derived from stamina alone.
type PlayerCondition string

const (
	ConditionNormal    PlayerCondition = "normal"
	ConditionTired     PlayerCondition = "tired"
	ConditionExhausted PlayerCondition = "exhausted"
)

const (
	maxStamina       = 100.0
	tiredThreshold   = 30.0
	baseSpeed        = 3.0
	baseMoveCost     = 0.5
	weightFreeLimit  = 3.0
	weightCostRate   = 0.2
	startReputation  = 70
	minPayGradeRep   = 90
	discountRepFloor = 85
)

// Player is the courier: position, stamina, reputation and earnings.
// InventoryWeight mirrors the inventory's current weight and is kept in sync
// by the session.
type Player struct {
	Position        Coord
	Stamina         float64
	InventoryWeight float64
	TotalEarnings   int
	Reputation      int
	CurrentSpeed    float64

	// Hidden reputation modifiers.
	onTimeStreak          int
	firstLateDiscountUsed bool
}

func NewPlayer(start Coord) *Player {
	return &Player{
		Position:     start,
		Stamina:      maxStamina,
		Reputation:   startReputation,
		CurrentSpeed: baseSpeed,
	}
}

// Condition is a pure function of stamina: >30 normal, <=30 tired, <=0
// exhausted.
func (p *Player) Condition() PlayerCondition {
	switch {
	case p.Stamina <= 0:
		return ConditionExhausted
	case p.Stamina <= tiredThreshold:
		return ConditionTired
	default:
		return ConditionNormal
	}
}

// CanMove is false only when exhausted.
func (p *Player) CanMove() bool {
	return p.Condition() != ConditionExhausted
}

// WeightPenalty is the extra stamina cost per step for carrying more than
// the free threshold, linear at 0.2 per unit above it.
func (p *Player) WeightPenalty() float64 {
	if p.InventoryWeight > weightFreeLimit {
		return weightCostRate * (p.InventoryWeight - weightFreeLimit)
	}
	return 0
}

func (p *Player) StaminaMultiplier() float64 {
	switch p.Condition() {
	case ConditionExhausted:
		return 0
	case ConditionTired:
		return 0.8
	default:
		return 1.0
	}
}

// Move performs one step: consumes stamina, updates position and recomputes
// the current speed. Returns false without mutating anything when exhausted.
func (p *Player) Move(to Coord, climateMult, surfaceWeight, reputationMult, staminaExtraCost float64) bool {
	if !p.CanMove() {
		return false
	}

	cost := baseMoveCost + p.WeightPenalty() + staminaExtraCost
	p.Stamina -= cost
	if p.Stamina < 0 {
		p.Stamina = 0
	}

	p.Position = to

	weightMult := 1 - 0.03*p.InventoryWeight
	if weightMult < 0.8 {
		weightMult = 0.8
	}
	p.CurrentSpeed = baseSpeed * climateMult * weightMult * reputationMult * p.StaminaMultiplier() * surfaceWeight
	return true
}

// Recover accrues stamina at rate units per second of elapsed time.
func (p *Player) Recover(rate, dt float64) {
	if p.Stamina >= maxStamina {
		return
	}
	p.Stamina += rate * dt
	if p.Stamina > maxStamina {
		p.Stamina = maxStamina
	}
}

// ApplyReputationChange clamps reputation into [0,100] and returns the delta
// actually applied.
func (p *Player) ApplyReputationChange(delta int) int {
	prev := p.Reputation
	next := prev + delta
	if next < 0 {
		next = 0
	}
	if next > 100 {
		next = 100
	}
	p.Reputation = next
	return next - prev
}

// PayMultiplier is 1.05 at reputation >= 90, 1.0 otherwise.
func (p *Player) PayMultiplier() float64 {
	if p.Reputation >= minPayGradeRep {
		return 1.05
	}
	return 1.0
}

// RegisterDeliveryOutcome adjusts reputation for one delivery and returns the
// net delta actually applied:
//   - early (>=20% of the allotment remaining): +5, extends the streak
//   - on time (delay <= 0): +3, extends the streak
//   - late: -2 up to 30s, -5 up to 120s, -10 beyond; the first late delivery
//     at reputation >= 85 costs half (truncated toward zero), once per
//     session; the streak resets
//
// Every third consecutive on-time/early delivery grants an extra +2, applied
// before the main delta.
func (p *Player) RegisterDeliveryOutcome(delaySeconds float64, early bool) int {
	var delta int
	switch {
	case early:
		delta = 5
		p.onTimeStreak++
	case delaySeconds <= 0:
		delta = 3
		p.onTimeStreak++
	default:
		penalty := -10
		if delaySeconds <= 30 {
			penalty = -2
		} else if delaySeconds <= 120 {
			penalty = -5
		}
		if p.Reputation >= discountRepFloor && !p.firstLateDiscountUsed {
			penalty /= 2 // integer division truncates toward zero
			p.firstLateDiscountUsed = true
		}
		delta = penalty
		p.onTimeStreak = 0
	}

	applied := 0
	if p.onTimeStreak > 0 && p.onTimeStreak%3 == 0 {
		applied += p.ApplyReputationChange(2)
	}
	applied += p.ApplyReputationChange(delta)
	return applied
}

func (p *Player) AddEarnings(amount int) {
	p.TotalEarnings += amount
}

// FirstLateDiscountUsed exposes the one-shot discount flag for persistence.
func (p *Player) FirstLateDiscountUsed() bool { return p.firstLateDiscountUsed }

// OnTimeStreak exposes the consecutive on-time counter for persistence.
func (p *Player) OnTimeStreak() int { return p.onTimeStreak }

// RestoreReputationModifiers reinstates the hidden modifiers from a save.
func (p *Player) RestoreReputationModifiers(streak int, discountUsed bool) {
	p.onTimeStreak = streak
	p.firstLateDiscountUsed = discountUsed
}
