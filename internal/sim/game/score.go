package game

// ScoreBreakdown is the full result of the final-score formula, not just the
// scalar.
type ScoreBreakdown struct {
	BaseScore  float64
	TimeBonus  float64
	Penalties  float64
	FinalScore float64

	Earnings             int
	ReputationMultiplier float64
	CompletionTime       float64
	CancelledOrders      int
	ExpiredOrders        int
	LateDeliveries       int
}

const (
	timeBonusBase      = 500.0
	earlyFinishPortion = 0.2
	cancelPenaltyPts   = 50.0
	expirePenaltyPts   = 100.0
	latePenaltyPts     = 25.0
)

// CalculateScore is pure and stateless:
//
//	base      = earnings * repMult
//	timeBonus = (remaining/total)*500 when remaining >= 20% of total, else 0
//	penalties = 50*cancelled + 100*expired + 25*late
//	final     = max(0, base + timeBonus - penalties)
func CalculateScore(earnings int, repMult, completionTime, totalGameTime float64, cancelled, expired, late int) ScoreBreakdown {
	base := float64(earnings) * repMult

	bonus := 0.0
	remaining := totalGameTime - completionTime
	if totalGameTime > 0 && remaining >= totalGameTime*earlyFinishPortion {
		bonus = remaining / totalGameTime * timeBonusBase
	}

	penalties := float64(cancelled)*cancelPenaltyPts + float64(expired)*expirePenaltyPts + float64(late)*latePenaltyPts

	final := base + bonus - penalties
	if final < 0 {
		final = 0
	}

	return ScoreBreakdown{
		BaseScore:            base,
		TimeBonus:            bonus,
		Penalties:            penalties,
		FinalScore:           final,
		Earnings:             earnings,
		ReputationMultiplier: repMult,
		CompletionTime:       completionTime,
		CancelledOrders:      cancelled,
		ExpiredOrders:        expired,
		LateDeliveries:       late,
	}
}
