package game

import (
	"errors"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"tigercity/internal/persistence/savegame"
	"tigercity/internal/protocol"
)

func openCity(t *testing.T, goal int) *City {
	t.Helper()
	lines := make([]string, 6)
	for i := range lines {
		lines[i] = "CCCCCC"
	}
	c, err := LoadCity(protocol.CityPayload{
		Tiles:  rows(lines...),
		Legend: map[string]protocol.TileDef{"C": {Name: "street"}},
		Goal:   goal,
	})
	if err != nil {
		t.Fatalf("LoadCity: %v", err)
	}
	return c
}

func newTestSession(t *testing.T, goal int, payloads ...protocol.OrderPayload) *Session {
	t.Helper()
	s := NewSession(Config{
		Start:              testNow,
		StartPosition:      Coord{X: 0, Y: 0},
		MaxInventoryWeight: 10,
		GameDuration:       900,
	}, openCity(t, goal), protocol.WeatherConfig{
		Initial: protocol.WeatherInitial{Condition: "clear", Intensity: 0.1},
	}, rand.New(rand.NewSource(1)))
	if err := s.LoadOrders(payloads); err != nil {
		t.Fatalf("LoadOrders: %v", err)
	}
	return s
}

func TestSession_AcceptPickupDeliver(t *testing.T) {
	s := newTestSession(t, 3000,
		payload("A", testNow.Add(2*time.Hour), 2, 1, 0),
		payload("B", testNow.Add(2*time.Hour), 2, 0, 0),
	)

	if err := s.AcceptOrder("A"); err != nil {
		t.Fatalf("AcceptOrder: %v", err)
	}
	if err := s.AcceptOrder("B"); !errors.Is(err, ErrActiveOrderExists) {
		t.Fatalf("second accept = %v", err)
	}
	if s.Player.InventoryWeight != 2 {
		t.Fatalf("mirrored weight = %v", s.Player.InventoryWeight)
	}

	if err := s.PickupCurrent(); err != nil {
		t.Fatalf("PickupCurrent: %v", err)
	}
	a, _ := s.Orders.Get("A")
	if a.State != StatePickedUp {
		t.Fatalf("state = %s", a.State)
	}

	res, err := s.DeliverCurrent()
	if err != nil {
		t.Fatalf("DeliverCurrent: %v", err)
	}
	// Two hours of slack on a one-hour allotment grades as early.
	if !res.Early || res.ReputationDelta != 5 {
		t.Fatalf("result = %+v", res)
	}
	if res.Payout != 100 || s.Player.TotalEarnings != 100 {
		t.Fatalf("payout = %d, earnings = %d", res.Payout, s.Player.TotalEarnings)
	}
	if s.Player.Reputation != 75 {
		t.Fatalf("reputation = %d", s.Player.Reputation)
	}
	if !s.Inventory.IsEmpty() || s.Player.InventoryWeight != 0 {
		t.Fatalf("inventory not cleaned up")
	}
	if s.LateDeliveries() != 0 {
		t.Fatalf("late counter moved")
	}
}

func TestSession_OnTimeButNotEarly(t *testing.T) {
	s := newTestSession(t, 3000, payload("A", testNow.Add(300*time.Second), 1, 0, 0))
	if err := s.AcceptOrder("A"); err != nil {
		t.Fatalf("AcceptOrder: %v", err)
	}
	res, err := s.DeliverCurrent()
	if err != nil {
		t.Fatalf("DeliverCurrent: %v", err)
	}
	if res.Early || res.ReputationDelta != 3 {
		t.Fatalf("result = %+v", res)
	}
}

func TestSession_ReputationOutcomeFeedsPayMultiplier(t *testing.T) {
	s := newTestSession(t, 3000, payload("A", testNow.Add(2*time.Hour), 1, 0, 0))
	s.Player.Reputation = 87

	if err := s.AcceptOrder("A"); err != nil {
		t.Fatalf("AcceptOrder: %v", err)
	}
	res, err := s.DeliverCurrent()
	if err != nil {
		t.Fatalf("DeliverCurrent: %v", err)
	}
	// The early +5 lands first, lifting reputation to 92, so the payout
	// already carries the high-reputation rate.
	if s.Player.Reputation != 92 {
		t.Fatalf("reputation = %d", s.Player.Reputation)
	}
	if res.Payout != 105 {
		t.Fatalf("payout = %d, want 105", res.Payout)
	}
}

func TestSession_AcceptRollsBackOnOverweight(t *testing.T) {
	s := newTestSession(t, 3000, payload("heavy", testNow.Add(time.Hour), 11, 0, 0))

	err := s.AcceptOrder("heavy")
	if !errors.Is(err, ErrOverCapacity) {
		t.Fatalf("err = %v", err)
	}
	o, _ := s.Orders.Get("heavy")
	if o.State != StateAvailable {
		t.Fatalf("state after rollback = %s", o.State)
	}
	if got := len(s.AvailableOrders()); got != 1 {
		t.Fatalf("order lost from queue: %d", got)
	}
	if !s.Inventory.IsEmpty() {
		t.Fatalf("inventory not empty")
	}
	// The refused action left nothing to undo.
	if s.CanUndo() {
		t.Fatalf("refused accept recorded an undo snapshot")
	}
}

func TestSession_MoveBoundsAndCost(t *testing.T) {
	s := newTestSession(t, 3000)

	if err := s.Move(-1, 0); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("west off the map = %v", err)
	}
	if s.CanUndo() {
		t.Fatalf("refused move recorded an undo snapshot")
	}

	if err := s.Move(1, 0); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if s.Player.Position != (Coord{X: 1, Y: 0}) {
		t.Fatalf("position = %v", s.Player.Position)
	}
	if s.Player.Stamina != 99.5 {
		t.Fatalf("stamina = %v", s.Player.Stamina)
	}
	if !s.CanUndo() {
		t.Fatalf("successful move left no undo snapshot")
	}
}

func TestSession_MoveBlockedTile(t *testing.T) {
	city, err := LoadCity(protocol.CityPayload{
		Tiles:  rows("CB", "CC"),
		Legend: map[string]protocol.TileDef{"C": {}, "B": {Blocked: boolPtr(true)}},
	})
	if err != nil {
		t.Fatalf("LoadCity: %v", err)
	}
	s := NewSession(Config{Start: testNow}, city, protocol.WeatherConfig{}, rand.New(rand.NewSource(1)))

	if err := s.Move(1, 0); !errors.Is(err, ErrBlockedTile) {
		t.Fatalf("move into building = %v", err)
	}
	if s.Player.Position != (Coord{}) {
		t.Fatalf("position mutated: %v", s.Player.Position)
	}
}

func TestSession_RecoveryWaitsForCooldown(t *testing.T) {
	s := newTestSession(t, 3000)
	// Burn enough stamina that a recovery tick stays under the cap.
	for i := 0; i < 5; i++ {
		if err := s.Move(1, 0); err != nil {
			t.Fatalf("Move %d: %v", i, err)
		}
	}
	after := s.Player.Stamina
	if after != 97.5 {
		t.Fatalf("stamina after 5 moves = %v", after)
	}

	// Still within the cooldown window: no recovery.
	s.Update(0.5)
	if s.Player.Stamina != after {
		t.Fatalf("recovered during cooldown: %v", s.Player.Stamina)
	}
	// Past it, stamina accrues at the configured rate.
	s.Update(1.0)
	if s.Player.Stamina != after+2.0 {
		t.Fatalf("stamina = %v, want %v", s.Player.Stamina, after+2.0)
	}
}

func TestSession_ExpiryPenalizesAndCleansInventory(t *testing.T) {
	s := newTestSession(t, 3000, payload("A", testNow.Add(10*time.Second), 1, 0, 0))
	if err := s.AcceptOrder("A"); err != nil {
		t.Fatalf("AcceptOrder: %v", err)
	}

	s.Update(11)

	a, _ := s.Orders.Get("A")
	if a.State != StateExpired {
		t.Fatalf("state = %s", a.State)
	}
	if s.Player.Reputation != 64 {
		t.Fatalf("reputation = %d, want 64", s.Player.Reputation)
	}
	if !s.Inventory.IsEmpty() || s.Player.InventoryWeight != 0 {
		t.Fatalf("expired order still carried")
	}
}

func TestSession_UndoRoundTrip(t *testing.T) {
	s := newTestSession(t, 3000, payload("A", testNow.Add(2*time.Hour), 2, 0, 0))

	if err := s.Move(1, 0); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if err := s.AcceptOrder("A"); err != nil {
		t.Fatalf("AcceptOrder: %v", err)
	}

	// Undo the accept: the order is offerable again, inventory empty.
	if !s.Undo() {
		t.Fatalf("Undo accept failed")
	}
	a, _ := s.Orders.Get("A")
	if a.State != StateAvailable || !s.Inventory.IsEmpty() {
		t.Fatalf("accept not rolled back: state=%s", a.State)
	}
	if s.Player.InventoryWeight != 0 {
		t.Fatalf("weight = %v", s.Player.InventoryWeight)
	}

	// Undo the move: position and stamina restored.
	if !s.Undo() {
		t.Fatalf("Undo move failed")
	}
	if s.Player.Position != (Coord{}) || s.Player.Stamina != 100 {
		t.Fatalf("move not rolled back: %v %v", s.Player.Position, s.Player.Stamina)
	}
	if s.Undo() {
		t.Fatalf("Undo on empty history succeeded")
	}
}

func TestSession_UndoPreservesPickedUpState(t *testing.T) {
	s := newTestSession(t, 3000, payload("A", testNow.Add(2*time.Hour), 2, 0, 0))
	if err := s.AcceptOrder("A"); err != nil {
		t.Fatalf("AcceptOrder: %v", err)
	}
	if err := s.PickupCurrent(); err != nil {
		t.Fatalf("PickupCurrent: %v", err)
	}
	if err := s.Move(1, 0); err != nil {
		t.Fatalf("Move: %v", err)
	}

	// Rolling back the move must not demote the carried order.
	if !s.Undo() {
		t.Fatalf("Undo failed")
	}
	a, _ := s.Orders.Get("A")
	if a.State != StatePickedUp {
		t.Fatalf("state after undo = %s, want %s", a.State, StatePickedUp)
	}
	if !s.Inventory.Contains("A") {
		t.Fatalf("inventory lost the order")
	}
}

func TestSession_StatisticsFollowUndo(t *testing.T) {
	s := newTestSession(t, 3000, payload("A", testNow.Add(2*time.Hour), 1, 0, 0))
	if err := s.AcceptOrder("A"); err != nil {
		t.Fatalf("AcceptOrder: %v", err)
	}
	if _, err := s.DeliverCurrent(); err != nil {
		t.Fatalf("DeliverCurrent: %v", err)
	}

	// Rolling the delivery back must drop it from every count.
	if !s.Undo() {
		t.Fatalf("Undo failed")
	}
	st := s.Orders.Statistics()
	if st.Completed != 0 || st.ByState[StateDelivered] != 0 {
		t.Fatalf("stats after undo = %+v", st)
	}

	// Delivering again counts the order exactly once.
	if _, err := s.DeliverCurrent(); err != nil {
		t.Fatalf("redeliver: %v", err)
	}
	st = s.Orders.Statistics()
	if st.Completed != 1 || st.ByState[StateDelivered] != 1 {
		t.Fatalf("stats after redeliver = %+v", st)
	}
}

func TestSession_UndoRestoresRecoveryClock(t *testing.T) {
	s := newTestSession(t, 3000)
	for i := 0; i < 5; i++ {
		if err := s.Move(1, 0); err != nil {
			t.Fatalf("Move %d: %v", i, err)
		}
	}
	s.Update(0.5) // inside the cooldown, nothing recovers

	if err := s.Move(-1, 0); err != nil {
		t.Fatalf("Move back: %v", err)
	}
	if !s.Undo() {
		t.Fatalf("Undo failed")
	}
	if s.Player.Stamina != 97.5 {
		t.Fatalf("stamina after undo = %v", s.Player.Stamina)
	}

	// The undone move no longer holds recovery back: the last movement the
	// timeline knows about happened at t=0.
	s.Update(1.0)
	if s.Player.Stamina != 99.5 {
		t.Fatalf("stamina = %v, want 99.5", s.Player.Stamina)
	}
}

func TestSession_CommandsRefusedAfterEnd(t *testing.T) {
	s := newTestSession(t, 3000, payload("A", testNow.Add(2*time.Hour), 1, 0, 0))
	if err := s.AcceptOrder("A"); err != nil {
		t.Fatalf("AcceptOrder: %v", err)
	}
	s.Update(901)
	if s.Phase() != PhaseDefeat {
		t.Fatalf("phase = %s", s.Phase())
	}

	if _, err := s.DeliverCurrent(); !errors.Is(err, ErrSessionOver) {
		t.Fatalf("deliver after end = %v", err)
	}
	if err := s.Move(1, 0); !errors.Is(err, ErrSessionOver) {
		t.Fatalf("move after end = %v", err)
	}
	if s.Undo() {
		t.Fatalf("undo after end succeeded")
	}
	if s.Player.TotalEarnings != 0 {
		t.Fatalf("earnings mutated after end: %d", s.Player.TotalEarnings)
	}
	if s.Phase() != PhaseDefeat || s.EndReason() != EndTimeout {
		t.Fatalf("end state drifted: %s/%s", s.Phase(), s.EndReason())
	}
}

func TestSession_VictoryOnGoal(t *testing.T) {
	s := newTestSession(t, 100, payload("A", testNow.Add(2*time.Hour), 1, 0, 0))
	if err := s.AcceptOrder("A"); err != nil {
		t.Fatalf("AcceptOrder: %v", err)
	}
	if _, err := s.DeliverCurrent(); err != nil {
		t.Fatalf("DeliverCurrent: %v", err)
	}
	if s.Phase() != PhaseVictory || s.EndReason() != EndVictory {
		t.Fatalf("phase = %s/%s", s.Phase(), s.EndReason())
	}

	// The final score is frozen at the moment the game ended.
	frozen := s.FinalScore()
	s.Player.TotalEarnings = 9999
	if got := s.FinalScore(); got != frozen {
		t.Fatalf("final score drifted: %+v vs %+v", got, frozen)
	}
	// Further updates are no-ops.
	before := s.SimTime()
	s.Update(5)
	if s.SimTime() != before {
		t.Fatalf("ended session still ticking")
	}
}

func TestSession_TimeoutAndReputationDefeat(t *testing.T) {
	s := newTestSession(t, 3000)
	s.Update(901)
	if s.Phase() != PhaseDefeat || s.EndReason() != EndTimeout {
		t.Fatalf("phase = %s/%s", s.Phase(), s.EndReason())
	}

	s2 := newTestSession(t, 3000)
	s2.Player.Reputation = 19
	s2.Update(0.1)
	if s2.Phase() != PhaseDefeat || s2.EndReason() != EndReputation {
		t.Fatalf("phase = %s/%s", s2.Phase(), s2.EndReason())
	}
}

func TestSession_SortModeCycles(t *testing.T) {
	s := newTestSession(t, 3000)
	if s.SortMode() != SortByPriority {
		t.Fatalf("initial mode = %s", s.SortMode())
	}
	if got := s.ToggleSortMode(); got != SortByDeadline {
		t.Fatalf("after toggle = %s", got)
	}
	s.SetSortMode(SortByPayout)
	if s.SortMode() != SortByPayout {
		t.Fatalf("mode = %s", s.SortMode())
	}
}

func TestSession_FrameExport(t *testing.T) {
	s := newTestSession(t, 3000, payload("A", testNow.Add(time.Hour), 1, 0, 0))
	f := s.Frame()
	if f.Type != protocol.TypeFrame || f.GameState != string(PhasePlaying) {
		t.Fatalf("frame header = %+v", f)
	}
	if f.Player.Stamina != 100 || f.Player.Reputation != 70 {
		t.Fatalf("player frame = %+v", f.Player)
	}
	if f.Orders.Total != 1 || f.Orders.Available != 1 {
		t.Fatalf("orders frame = %+v", f.Orders)
	}
	if f.Weather.Condition != "clear" {
		t.Fatalf("weather frame = %+v", f.Weather)
	}
}

func TestSession_SaveRestoreRoundTrip(t *testing.T) {
	s := newTestSession(t, 3000,
		payload("A", testNow.Add(2*time.Hour), 2, 1, 0),
		payload("B", testNow.Add(3*time.Hour), 1, 0, 0),
	)
	if err := s.Move(1, 0); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if err := s.AcceptOrder("A"); err != nil {
		t.Fatalf("AcceptOrder: %v", err)
	}
	if err := s.PickupCurrent(); err != nil {
		t.Fatalf("PickupCurrent: %v", err)
	}
	s.Update(5)

	path := filepath.Join(t.TempDir(), "run.zst")
	if err := savegame.Write(path, s.BuildSave()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	save, err := savegame.Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	r := newTestSession(t, 3000)
	if err := r.RestoreSave(save); err != nil {
		t.Fatalf("RestoreSave: %v", err)
	}

	if r.SimTime() != s.SimTime() {
		t.Fatalf("sim time = %v, want %v", r.SimTime(), s.SimTime())
	}
	if r.Player.Position != s.Player.Position || r.Player.Stamina != s.Player.Stamina {
		t.Fatalf("player = %+v, want %+v", r.Player, s.Player)
	}
	a, ok := r.Orders.Get("A")
	if !ok || a.State != StatePickedUp {
		t.Fatalf("A state = %v", a)
	}
	if !a.Deadline.Equal(testNow.Add(2 * time.Hour)) {
		t.Fatalf("A deadline altered by restore: %v", a.Deadline)
	}
	b, _ := r.Orders.Get("B")
	if b.State != StateAvailable {
		t.Fatalf("B state = %s", b.State)
	}
	if !r.Inventory.Contains("A") || r.Inventory.Count() != 1 {
		t.Fatalf("inventory = %v", r.Inventory.IDs())
	}
	if r.Player.InventoryWeight != 2 {
		t.Fatalf("weight = %v", r.Player.InventoryWeight)
	}
	// Restores never inherit old undo history.
	if r.CanUndo() {
		t.Fatalf("restored session has undo history")
	}
	if got := len(r.AvailableOrders()); got != 1 {
		t.Fatalf("available after restore = %d", got)
	}
}
