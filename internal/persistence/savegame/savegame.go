// Package savegame reads and writes session save files. The format is a
// one-line JSON header followed by a gob body, both behind a zstd stream, so
// tooling can identify a save without decoding the whole thing.
package savegame

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

type Header struct {
	Version    int    `json:"version"`
	RecordedAt string `json:"recorded_at"`
}

// SaveV1 is the stable on-disk shape of a session. Enums travel as their
// string forms.
type SaveV1 struct {
	Header Header `json:"header"`

	GameState      string  `json:"game_state"`
	SimTime        float64 `json:"sim_time"`
	GameDuration   float64 `json:"game_duration"`
	LateDeliveries int     `json:"late_deliveries"`
	Goal           int     `json:"goal"`

	Player       PlayerV1  `json:"player"`
	InventoryIDs []string  `json:"inventory_ids"`
	Orders       []OrderV1 `json:"orders"`
	Weather      WeatherV1 `json:"weather"`
}

type PlayerV1 struct {
	Position              [2]int  `json:"position"`
	Stamina               float64 `json:"stamina"`
	InventoryWeight       float64 `json:"inventory_weight"`
	TotalEarnings         int     `json:"total_earnings"`
	Reputation            int     `json:"reputation"`
	FirstLateDiscountUsed bool    `json:"first_late_discount_used"`
	OnTimeStreak          int     `json:"on_time_streak"`
}

type OrderV1 struct {
	ID          string  `json:"id"`
	Pickup      [2]int  `json:"pickup"`
	Dropoff     [2]int  `json:"dropoff"`
	Payout      int     `json:"payout"`
	Deadline    string  `json:"deadline"` // ISO-8601
	Weight      float64 `json:"weight"`
	Priority    int     `json:"priority"`
	ReleaseTime float64 `json:"release_time"`
	State       string  `json:"state"`
}

type WeatherV1 struct {
	Condition    string  `json:"condition"`
	Intensity    float64 `json:"intensity"`
	InTransition bool    `json:"in_transition"`
}

func Write(path string, save SaveV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriter(enc)
	defer bw.Flush()

	hb, _ := json.Marshal(save.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&save); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func Read(path string) (SaveV1, error) {
	var save SaveV1
	f, err := os.Open(path)
	if err != nil {
		return save, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return save, err
	}
	defer dec.Close()

	br := bufio.NewReader(dec)

	// Skip the header line; the gob body carries the header too.
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&save); err != nil {
		return save, fmt.Errorf("gob decode: %w", err)
	}
	return save, nil
}
