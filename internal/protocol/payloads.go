// Package protocol holds the wire shapes shared by the resource loader, the
// simulation core and the observer stream, plus the stable error codes.
package protocol

import (
	"encoding/json"
	"fmt"
)

// CityPayload is the city map shape consumed by the core.
type CityPayload struct {
	Width  int                `json:"width"`
	Height int                `json:"height"`
	Tiles  TileRows           `json:"tiles"`
	Legend map[string]TileDef `json:"legend"`
	Goal   int                `json:"goal"`
}

type TileDef struct {
	Blocked       *bool    `json:"blocked,omitempty"`
	Walkable      *bool    `json:"walkable,omitempty"`
	SurfaceWeight *float64 `json:"surface_weight,omitempty"`
	Name          string   `json:"name,omitempty"`
}

// TileRows accepts both payload forms: rows as strings ("..B.") or rows as
// arrays of single-character cells.
type TileRows [][]string

func (t *TileRows) UnmarshalJSON(b []byte) error {
	var asStrings []string
	if err := json.Unmarshal(b, &asStrings); err == nil {
		rows := make([][]string, len(asStrings))
		for i, r := range asStrings {
			row := make([]string, 0, len(r))
			for _, c := range r {
				row = append(row, string(c))
			}
			rows[i] = row
		}
		*t = rows
		return nil
	}
	var asCells [][]string
	if err := json.Unmarshal(b, &asCells); err != nil {
		return fmt.Errorf("tiles must be a list of strings or a list of cell lists: %w", err)
	}
	*t = asCells
	return nil
}

// OrderPayload is one entry of the jobs payload.
type OrderPayload struct {
	ID          string  `json:"id"`
	Pickup      [2]int  `json:"pickup"`
	Dropoff     [2]int  `json:"dropoff"`
	Payout      int     `json:"payout"`
	Deadline    string  `json:"deadline"` // ISO-8601
	Weight      float64 `json:"weight"`
	Priority    int     `json:"priority,omitempty"`
	ReleaseTime float64 `json:"release_time,omitempty"`
}

// WeatherConfig is the weather configuration payload.
type WeatherConfig struct {
	Initial    WeatherInitial                `json:"initial"`
	Conditions []string                      `json:"conditions"`
	Transition map[string]map[string]float64 `json:"transition"`
}

type WeatherInitial struct {
	Condition string  `json:"condition"`
	Intensity float64 `json:"intensity"`
}

// Envelope is the optional {"data": ...} wrapper some sources apply.
type Envelope struct {
	Data json.RawMessage `json:"data"`
}

// Unwrap peels a {"data": ...} envelope if present, otherwise returns the
// input unchanged.
func Unwrap(raw []byte) []byte {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err == nil && len(env.Data) > 0 {
		return env.Data
	}
	return raw
}
