package game

import (
	"math"
	"math/rand"
	"time"

	"tigercity/internal/protocol"
)

// Phase is the session lifecycle state.
type Phase string

const (
	PhasePlaying Phase = "playing"
	PhaseVictory Phase = "victory"
	PhaseDefeat  Phase = "game_over"
)

// End reasons.
const (
	EndVictory    = "victory"
	EndReputation = "reputation"
	EndTimeout    = "timeout"
)

const (
	defaultGameDuration     = 900.0 // 15 minutes
	defaultMovementCooldown = 1.0
	defaultMaxWeight        = 10.0
	defaultRecoveryRate     = 2.0
	defeatReputationFloor   = 20
)

// Config carries the per-session tunables. Zero values fall back to the
// defaults above.
type Config struct {
	Start               time.Time // wall-clock anchor for the sim clock
	StartPosition       Coord
	MaxInventoryWeight  float64
	GameDuration        float64 // seconds
	MovementCooldown    float64 // seconds of stillness before recovery
	StaminaRecoveryRate float64 // stamina per second
	UndoDepth           int
}

func (c *Config) applyDefaults() {
	if c.Start.IsZero() {
		c.Start = time.Now()
	}
	if c.MaxInventoryWeight <= 0 {
		c.MaxInventoryWeight = defaultMaxWeight
	}
	if c.GameDuration <= 0 {
		c.GameDuration = defaultGameDuration
	}
	if c.MovementCooldown <= 0 {
		c.MovementCooldown = defaultMovementCooldown
	}
	if c.StaminaRecoveryRate <= 0 {
		c.StaminaRecoveryRate = defaultRecoveryRate
	}
	if c.UndoDepth <= 0 {
		c.UndoDepth = defaultUndoDepth
	}
}

// Session is the explicit context for one game run. It owns all core state;
// a single logical thread of control must drive it, one Update per tick, and
// every mutation goes through its methods.
type Session struct {
	cfg Config

	City      *City
	Player    *Player
	Inventory *Inventory
	Orders    *OrderManager
	Weather   *Weather

	history *UndoHistory

	simTime      float64
	lastMoveTime float64
	sortMode     SortMode

	lateDeliveries int
	phase          Phase
	endReason      string
	finalScore     *ScoreBreakdown
}

func NewSession(cfg Config, city *City, weatherCfg protocol.WeatherConfig, rng *rand.Rand) *Session {
	cfg.applyDefaults()
	w := NewWeather(rng)
	w.Init(weatherCfg)
	return &Session{
		cfg:       cfg,
		City:      city,
		Player:    NewPlayer(cfg.StartPosition),
		Inventory: NewInventory(cfg.MaxInventoryWeight),
		Orders:    NewOrderManager(),
		Weather:   w,
		history:   NewUndoHistory(cfg.UndoDepth),
		sortMode:  SortByPriority,
		phase:     PhasePlaying,
	}
}

// Now is the sim clock projected onto the wall clock, for deadline math.
func (s *Session) Now() time.Time {
	return s.cfg.Start.Add(time.Duration(s.simTime * float64(time.Second)))
}

func (s *Session) SimTime() float64      { return s.simTime }
func (s *Session) Phase() Phase          { return s.phase }
func (s *Session) EndReason() string     { return s.endReason }
func (s *Session) SortMode() SortMode    { return s.sortMode }
func (s *Session) LateDeliveries() int   { return s.lateDeliveries }
func (s *Session) UndoCount() int        { return s.history.Len() }
func (s *Session) GameDuration() float64 { return s.cfg.GameDuration }

// LoadOrders replaces all order state and offers anything already released.
func (s *Session) LoadOrders(payloads []protocol.OrderPayload) error {
	if err := s.Orders.LoadOrders(payloads, s.Now()); err != nil {
		return err
	}
	s.Orders.UpdateAvailable(s.simTime)
	return nil
}

// Update advances the session by dt sim seconds: order availability and
// expiry, weather, stamina recovery, end conditions. No-op once the session
// has ended.
func (s *Session) Update(dt float64) {
	if s.phase != PhasePlaying {
		return
	}
	s.simTime += dt

	s.Orders.UpdateAvailable(s.simTime)

	for _, o := range s.Orders.UpdateExpired(s.Now()) {
		s.Player.ApplyReputationChange(-6)
		s.Inventory.Remove(o.ID)
		s.Player.InventoryWeight = s.Inventory.Weight()
	}

	s.Weather.Update(dt)

	if s.simTime-s.lastMoveTime > s.cfg.MovementCooldown {
		s.Player.Recover(s.cfg.StaminaRecoveryRate, dt)
	}

	s.checkEndConditions()
}

func (s *Session) checkEndConditions() {
	switch {
	case s.Player.TotalEarnings >= s.City.Goal:
		s.endGame(PhaseVictory, EndVictory)
	case s.Player.Reputation < defeatReputationFloor:
		s.endGame(PhaseDefeat, EndReputation)
	case s.simTime >= s.cfg.GameDuration:
		s.endGame(PhaseDefeat, EndTimeout)
	}
}

func (s *Session) endGame(phase Phase, reason string) {
	s.phase = phase
	s.endReason = reason
	if s.finalScore == nil {
		sc := s.computeScore()
		s.finalScore = &sc
	}
}

func (s *Session) computeScore() ScoreBreakdown {
	stats := s.Orders.Statistics()
	return CalculateScore(
		s.Player.TotalEarnings,
		s.Player.PayMultiplier(),
		s.simTime,
		s.cfg.GameDuration,
		stats.Cancelled,
		stats.ByState[StateExpired],
		s.lateDeliveries,
	)
}

// FinalScore returns the end-of-game breakdown. Before the session ends it
// reflects the running totals.
func (s *Session) FinalScore() ScoreBreakdown {
	if s.finalScore != nil {
		return *s.finalScore
	}
	return s.computeScore()
}

// saveState captures a snapshot before a player-driven mutation.
func (s *Session) saveState() {
	states := make(map[string]OrderState, len(s.Orders.orders))
	for id, o := range s.Orders.orders {
		states[id] = o.State
	}
	s.history.Push(Snapshot{
		PlayerPosition:  s.Player.Position,
		PlayerStamina:   s.Player.Stamina,
		InventoryWeight: s.Player.InventoryWeight,
		TotalEarnings:   s.Player.TotalEarnings,
		SimTime:         s.simTime,
		LastMoveTime:    s.lastMoveTime,
		OrderStates:     states,
		InventoryIDs:    s.Inventory.IDs(),
		CapturedAt:      time.Now(),
	})
}

// Move attempts one step. The pre-move snapshot is discarded again when the
// move is refused, so undo never replays a non-action.
func (s *Session) Move(dx, dy int) error {
	if s.phase != PhasePlaying {
		return ErrSessionOver
	}
	s.saveState()

	to := Coord{X: s.Player.Position.X + dx, Y: s.Player.Position.Y + dy}
	if !s.City.InBounds(to) {
		s.history.Discard()
		return ErrOutOfBounds
	}
	if !s.City.IsWalkable(to) {
		s.history.Discard()
		return ErrBlockedTile
	}

	ok := s.Player.Move(
		to,
		s.Weather.SpeedMultiplier(),
		s.City.SurfaceWeight(to),
		1.0,
		s.Weather.StaminaPenaltyPerStep(),
	)
	if !ok {
		s.history.Discard()
		return ErrExhausted
	}
	s.lastMoveTime = s.simTime
	return nil
}

// AcceptOrder is the transaction-style two-phase accept: reserve from the
// manager, commit via the inventory add, and explicitly reverse (re-enqueue
// plus state reset) when the add fails. Either the whole accept happens or
// nothing does.
func (s *Session) AcceptOrder(id string) error {
	if s.phase != PhasePlaying {
		return ErrSessionOver
	}
	s.saveState()

	o, err := s.Orders.Accept(id)
	if err != nil {
		s.history.Discard()
		return err
	}
	if err := s.Inventory.Add(o); err != nil {
		s.Orders.Reenqueue(o)
		s.history.Discard()
		return err
	}
	s.Player.InventoryWeight = s.Inventory.Weight()
	return nil
}

// PickupCurrent stamps the pickup on the cursor's order.
func (s *Session) PickupCurrent() error {
	if s.phase != PhasePlaying {
		return ErrSessionOver
	}
	cur := s.Inventory.Current()
	if cur == nil {
		return ErrNoCurrentOrder
	}
	s.saveState()
	if err := s.Orders.Pickup(cur.ID, s.Now()); err != nil {
		s.history.Discard()
		return err
	}
	return nil
}

// DeliveryResult reports one completed delivery.
type DeliveryResult struct {
	Order           *Order
	Payout          int
	ReputationDelta int
	DelaySeconds    float64
	Early           bool
}

// DeliverCurrent completes the cursor's order: reputation outcome first, then
// the pay multiplier on the possibly-updated reputation, earnings, and
// inventory cleanup.
func (s *Session) DeliverCurrent() (DeliveryResult, error) {
	if s.phase != PhasePlaying {
		return DeliveryResult{}, ErrSessionOver
	}
	cur := s.Inventory.Current()
	if cur == nil {
		return DeliveryResult{}, ErrNoCurrentOrder
	}
	s.saveState()

	o, err := s.Orders.Deliver(cur.ID, s.Now())
	if err != nil {
		s.history.Discard()
		return DeliveryResult{}, err
	}

	delay := o.Delay(*o.DeliveryTime)
	early := o.IsEarly(*o.DeliveryTime)
	repDelta := s.Player.RegisterDeliveryOutcome(delay, early)
	if delay > 0 {
		s.lateDeliveries++
	}

	payout := int(math.Round(float64(o.Payout) * s.Player.PayMultiplier()))
	s.Player.AddEarnings(payout)

	s.Inventory.Remove(o.ID)
	s.Player.InventoryWeight = s.Inventory.Weight()

	s.checkEndConditions()

	return DeliveryResult{
		Order:           o,
		Payout:          payout,
		ReputationDelta: repDelta,
		DelaySeconds:    delay,
		Early:           early,
	}, nil
}

// CancelCurrent cancels the cursor's order for a flat -4 reputation. Earnings
// are untouched.
func (s *Session) CancelCurrent() error {
	if s.phase != PhasePlaying {
		return ErrSessionOver
	}
	cur := s.Inventory.Current()
	if cur == nil {
		return ErrNoCurrentOrder
	}
	s.saveState()

	if err := s.Orders.Cancel(cur.ID); err != nil {
		s.history.Discard()
		return err
	}
	s.Player.ApplyReputationChange(-4)
	s.Inventory.Remove(cur.ID)
	s.Player.InventoryWeight = s.Inventory.Weight()
	return nil
}

// Undo restores the most recent snapshot: player fields, sim time, the
// recovery clock, every order's state by id, and inventory membership rebuilt
// from the snapshot's id list. Ids that left the order table are skipped.
// Returns false when there is nothing to undo or the session has ended; the
// outcome of a finished run is not rewindable.
func (s *Session) Undo() bool {
	if s.phase != PhasePlaying {
		return false
	}
	snap, ok := s.history.Pop()
	if !ok {
		return false
	}

	s.Player.Position = snap.PlayerPosition
	s.Player.Stamina = snap.PlayerStamina
	s.Player.InventoryWeight = snap.InventoryWeight
	s.Player.TotalEarnings = snap.TotalEarnings
	s.simTime = snap.SimTime
	s.lastMoveTime = snap.LastMoveTime

	for id, st := range snap.OrderStates {
		if o, found := s.Orders.Get(id); found {
			o.State = st
		}
	}

	s.Inventory.Clear()
	for _, id := range snap.InventoryIDs {
		if o, found := s.Orders.Get(id); found {
			s.Inventory.attach(o)
		}
	}
	s.Player.InventoryWeight = s.Inventory.Weight()
	return true
}

func (s *Session) CanUndo() bool { return s.history.CanUndo() }

// AvailableOrders lists the offerable orders in the current sort mode.
func (s *Session) AvailableOrders() []*Order {
	return s.Orders.AvailableSorted(s.sortMode)
}

// ToggleSortMode cycles priority -> deadline -> payout and rebuilds the
// inventory's navigation order to match, cursor back at the head.
func (s *Session) ToggleSortMode() SortMode {
	s.sortMode = s.sortMode.Next()
	s.Inventory.Rebuild(s.sortMode)
	return s.sortMode
}

// SetSortMode selects a specific presentation order.
func (s *Session) SetSortMode(mode SortMode) {
	s.sortMode = mode
	s.Inventory.Rebuild(mode)
}

// Frame exports the per-tick observer view.
func (s *Session) Frame() protocol.ObserverFrame {
	cond, intensity, inTrans := s.Weather.UITuple()
	bg := s.Weather.BackgroundColor()
	stats := s.Orders.Statistics()
	return protocol.ObserverFrame{
		Type:    protocol.TypeFrame,
		SimTime: s.simTime,
		Player: protocol.PlayerFrame{
			Pos:        [2]int{s.Player.Position.X, s.Player.Position.Y},
			Stamina:    s.Player.Stamina,
			Condition:  string(s.Player.Condition()),
			Reputation: s.Player.Reputation,
			Earnings:   s.Player.TotalEarnings,
			Weight:     s.Player.InventoryWeight,
		},
		Weather: protocol.WeatherFrame{
			Condition:    cond,
			Intensity:    intensity,
			InTransition: inTrans,
			SpeedMult:    s.Weather.SpeedMultiplier(),
			Background:   [3]int{bg.R, bg.G, bg.B},
		},
		Orders: protocol.OrdersFrame{
			Total:     stats.Total,
			Available: stats.Available,
			Completed: stats.Completed,
			Expired:   stats.Expired,
			Cancelled: stats.Cancelled,
		},
		GameState: string(s.phase),
	}
}
