package resource

// Built-in payloads used when the API, cache and fixture files all fail.
// They are deliberately tiny: enough for the engine to start and be played,
// not a substitute for real fixtures.

var defaultCity = []byte(`{
  "width": 10,
  "height": 8,
  "goal": 3000,
  "tiles": [
    "CCCCCCCCCC",
    "CBBCCPPBBC",
    "CBBCCPPBBC",
    "CCCCCCCCCC",
    "CBBCCCBBBC",
    "CBBCWCBBBC",
    "CCCCWCCCCC",
    "CCCCCCCCCC"
  ],
  "legend": {
    "C": {"name": "street", "surface_weight": 1.0},
    "B": {"name": "building", "blocked": true},
    "P": {"name": "park", "surface_weight": 0.95},
    "W": {"name": "water", "blocked": true}
  }
}`)

var defaultOrders = []byte(`[
  {
    "id": "ORD-001",
    "pickup": [0, 0],
    "dropoff": [9, 7],
    "payout": 250,
    "deadline": "2024-01-01T00:00:00Z",
    "weight": 2.0,
    "priority": 1,
    "release_time": 0
  },
  {
    "id": "ORD-002",
    "pickup": [3, 3],
    "dropoff": [0, 7],
    "payout": 180,
    "deadline": "2024-01-01T00:00:00Z",
    "weight": 1.5,
    "priority": 0,
    "release_time": 30
  },
  {
    "id": "ORD-003",
    "pickup": [9, 0],
    "dropoff": [4, 6],
    "payout": 320,
    "deadline": "2024-01-01T00:00:00Z",
    "weight": 3.5,
    "priority": 2,
    "release_time": 60
  }
]`)

var defaultWeather = []byte(`{
  "initial": {"condition": "clear", "intensity": 0.1}
}`)

func defaultPayload(kind Kind) ([]byte, bool) {
	switch kind {
	case KindCity:
		return defaultCity, true
	case KindOrders:
		return defaultOrders, true
	case KindWeather:
		return defaultWeather, true
	default:
		return nil, false
	}
}
