package resource

import (
	"context"
	"encoding/json"
	"fmt"

	"tigercity/internal/protocol"
)

// City loads and decodes the city payload.
func (l *Loader) City(ctx context.Context) (protocol.CityPayload, Source, error) {
	var p protocol.CityPayload
	raw, src, err := l.Load(ctx, KindCity)
	if err != nil {
		return p, src, err
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, src, fmt.Errorf("decode city (%s): %w", src, err)
	}
	return p, src, nil
}

// Orders loads and decodes the order batch.
func (l *Loader) Orders(ctx context.Context) ([]protocol.OrderPayload, Source, error) {
	raw, src, err := l.Load(ctx, KindOrders)
	if err != nil {
		return nil, src, err
	}
	var p []protocol.OrderPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, src, fmt.Errorf("decode orders (%s): %w", src, err)
	}
	return p, src, nil
}

// Weather loads and decodes the weather configuration.
func (l *Loader) Weather(ctx context.Context) (protocol.WeatherConfig, Source, error) {
	var p protocol.WeatherConfig
	raw, src, err := l.Load(ctx, KindWeather)
	if err != nil {
		return p, src, err
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, src, fmt.Errorf("decode weather (%s): %w", src, err)
	}
	return p, src, nil
}
