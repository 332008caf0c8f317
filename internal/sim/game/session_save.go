package game

import (
	"fmt"
	"time"

	"tigercity/internal/persistence/savegame"
)

// BuildSave packages the session into the stable save shape.
func (s *Session) BuildSave() savegame.SaveV1 {
	orders := s.Orders.sortedAll()
	dump := make([]savegame.OrderV1, 0, len(orders))
	for _, o := range orders {
		dump = append(dump, savegame.OrderV1{
			ID:          o.ID,
			Pickup:      [2]int{o.Pickup.X, o.Pickup.Y},
			Dropoff:     [2]int{o.Dropoff.X, o.Dropoff.Y},
			Payout:      o.Payout,
			Deadline:    o.Deadline.UTC().Format(time.RFC3339),
			Weight:      o.Weight,
			Priority:    o.Priority,
			ReleaseTime: o.ReleaseTime,
			State:       o.State.String(),
		})
	}

	cond, intensity, inTrans := s.Weather.UITuple()

	return savegame.SaveV1{
		Header: savegame.Header{
			Version:    1,
			RecordedAt: time.Now().UTC().Format(time.RFC3339),
		},
		GameState:      string(s.phase),
		SimTime:        s.simTime,
		GameDuration:   s.cfg.GameDuration,
		LateDeliveries: s.lateDeliveries,
		Goal:           s.City.Goal,
		Player: savegame.PlayerV1{
			Position:              [2]int{s.Player.Position.X, s.Player.Position.Y},
			Stamina:               s.Player.Stamina,
			InventoryWeight:       s.Player.InventoryWeight,
			TotalEarnings:         s.Player.TotalEarnings,
			Reputation:            s.Player.Reputation,
			FirstLateDiscountUsed: s.Player.FirstLateDiscountUsed(),
			OnTimeStreak:          s.Player.OnTimeStreak(),
		},
		InventoryIDs: s.Inventory.IDs(),
		Orders:       dump,
		Weather: savegame.WeatherV1{
			Condition:    cond,
			Intensity:    intensity,
			InTransition: inTrans,
		},
	}
}

// RestoreSave reinstates a saved session: orders with their exact states,
// inventory membership, player fields and the sim clock. The current city
// map is kept; only the goal is adjusted.
func (s *Session) RestoreSave(save savegame.SaveV1) error {
	// Saved deadlines are restored verbatim. The load-time rebasing policy
	// is for fresh fixture batches, not for data this engine stamped itself.
	orders := make(map[string]*Order, len(save.Orders))
	for _, o := range save.Orders {
		st, err := ParseOrderState(o.State)
		if err != nil {
			return fmt.Errorf("restore order %s: %w", o.ID, err)
		}
		deadline, err := time.Parse(time.RFC3339, o.Deadline)
		if err != nil {
			return fmt.Errorf("restore order %s: bad deadline: %w", o.ID, err)
		}
		orders[o.ID] = &Order{
			ID:          o.ID,
			Pickup:      Coord{X: o.Pickup[0], Y: o.Pickup[1]},
			Dropoff:     Coord{X: o.Dropoff[0], Y: o.Dropoff[1]},
			Payout:      o.Payout,
			Deadline:    deadline,
			Weight:      o.Weight,
			Priority:    o.Priority,
			ReleaseTime: o.ReleaseTime,
			State:       st,
		}
	}
	s.Orders.replaceAll(orders)

	s.Inventory.Clear()
	for _, id := range save.InventoryIDs {
		if o, found := s.Orders.Get(id); found {
			s.Inventory.attach(o)
		}
	}

	s.Player.Position = Coord{X: save.Player.Position[0], Y: save.Player.Position[1]}
	s.Player.Stamina = save.Player.Stamina
	s.Player.TotalEarnings = save.Player.TotalEarnings
	s.Player.Reputation = save.Player.Reputation
	s.Player.RestoreReputationModifiers(save.Player.OnTimeStreak, save.Player.FirstLateDiscountUsed)
	s.Player.InventoryWeight = s.Inventory.Weight()

	s.simTime = save.SimTime
	if save.GameDuration > 0 {
		s.cfg.GameDuration = save.GameDuration
	}
	s.lateDeliveries = save.LateDeliveries
	if save.Goal > 0 {
		s.City.Goal = save.Goal
	}
	if save.GameState != "" {
		s.phase = Phase(save.GameState)
	}

	s.Orders.UpdateAvailable(s.simTime)
	s.history.Clear()
	return nil
}
