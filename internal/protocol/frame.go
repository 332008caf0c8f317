package protocol

// ObserverFrame is the read-only per-tick state export streamed to observer
// clients. It carries no rendering information beyond the background tint.
type ObserverFrame struct {
	Type    string  `json:"type"`
	SimTime float64 `json:"sim_time"`

	Player  PlayerFrame  `json:"player"`
	Weather WeatherFrame `json:"weather"`
	Orders  OrdersFrame  `json:"orders"`

	GameState string `json:"game_state"`
}

const (
	TypeFrame = "FRAME"
	TypeError = "ERROR"
)

// ErrorFrame reports a rejected command to observer clients.
type ErrorFrame struct {
	Type    string `json:"type"`
	Cmd     string `json:"cmd"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PlayerFrame struct {
	Pos        [2]int  `json:"pos"`
	Stamina    float64 `json:"stamina"`
	Condition  string  `json:"condition"`
	Reputation int     `json:"reputation"`
	Earnings   int     `json:"earnings"`
	Weight     float64 `json:"weight"`
}

type WeatherFrame struct {
	Condition    string  `json:"condition"`
	Intensity    float64 `json:"intensity"`
	InTransition bool    `json:"in_transition"`
	SpeedMult    float64 `json:"speed_mult"`
	Background   [3]int  `json:"background"`
}

type OrdersFrame struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Completed int `json:"completed"`
	Expired   int `json:"expired"`
	Cancelled int `json:"cancelled"`
}
