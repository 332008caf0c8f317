// Package resource loads the city, order and weather payloads the engine
// runs on. Every load walks the same chain: remote API, then the on-disk
// cache if it is still fresh, then the bundled fixture file, then a built-in
// default. Payloads from the first two sources are schema-checked before use.
package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Kind names one of the loadable payloads.
type Kind string

const (
	KindCity    Kind = "city"
	KindOrders  Kind = "orders"
	KindWeather Kind = "weather"
)

// Source reports where a payload actually came from.
type Source string

const (
	SourceAPI     Source = "api"
	SourceCache   Source = "cache"
	SourceFile    Source = "file"
	SourceDefault Source = "default"
)

// ErrUnavailable means neither the API nor any local fallback produced a
// usable payload and the built-in default was refused too.
var ErrUnavailable = errors.New("resource unavailable")

// Provider fetches the raw payload bytes for a kind.
type Provider interface {
	Fetch(ctx context.Context, kind Kind) ([]byte, error)
}

type LoaderConfig struct {
	Provider   Provider // nil disables the remote step
	CacheDir   string
	CacheTTL   time.Duration
	FixtureDir string
	SchemaDir  string // empty disables schema validation
}

type Loader struct {
	cfg     LoaderConfig
	schemas map[Kind]*jsonschema.Schema
	now     func() time.Time
}

var schemaFiles = map[Kind]string{
	KindCity:    "city.schema.json",
	KindOrders:  "orders.schema.json",
	KindWeather: "weather.schema.json",
}

var fixtureFiles = map[Kind]string{
	KindCity:    "city.json",
	KindOrders:  "orders.json",
	KindWeather: "weather.json",
}

func NewLoader(cfg LoaderConfig) (*Loader, error) {
	l := &Loader{cfg: cfg, now: time.Now}
	if cfg.SchemaDir != "" {
		l.schemas = make(map[Kind]*jsonschema.Schema, len(schemaFiles))
		for kind, name := range schemaFiles {
			s, err := jsonschema.Compile(filepath.Join(cfg.SchemaDir, name))
			if err != nil {
				return nil, fmt.Errorf("compile %s: %w", name, err)
			}
			l.schemas[kind] = s
		}
	}
	return l, nil
}

// Load walks the fallback chain for one kind and returns the raw payload
// bytes plus the source that produced them.
func (l *Loader) Load(ctx context.Context, kind Kind) ([]byte, Source, error) {
	if l.cfg.Provider != nil {
		raw, err := l.cfg.Provider.Fetch(ctx, kind)
		if err == nil {
			if verr := l.validate(kind, raw); verr == nil {
				l.writeCache(kind, raw)
				return raw, SourceAPI, nil
			}
			// A malformed remote payload falls through like a fetch failure.
		}
	}

	if raw, ok := l.readCache(kind); ok {
		if err := l.validate(kind, raw); err == nil {
			return raw, SourceCache, nil
		}
	}

	if l.cfg.FixtureDir != "" {
		raw, err := os.ReadFile(filepath.Join(l.cfg.FixtureDir, fixtureFiles[kind]))
		if err == nil {
			if verr := l.validate(kind, raw); verr == nil {
				return raw, SourceFile, nil
			}
		}
	}

	raw, ok := defaultPayload(kind)
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrUnavailable, kind)
	}
	return raw, SourceDefault, nil
}

func (l *Loader) validate(kind Kind, raw []byte) error {
	s, ok := l.schemas[kind]
	if !ok {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("%s: %w", kind, err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("%s: %w", kind, err)
	}
	return nil
}

func (l *Loader) cachePath(kind Kind) string {
	if l.cfg.CacheDir == "" {
		return ""
	}
	return filepath.Join(l.cfg.CacheDir, fixtureFiles[kind])
}

// readCache only serves entries younger than the TTL. Expiry is judged by
// file mtime, so a cache write refreshes the clock.
func (l *Loader) readCache(kind Kind) ([]byte, bool) {
	path := l.cachePath(kind)
	if path == "" {
		return nil, false
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if l.cfg.CacheTTL > 0 && l.now().Sub(info.ModTime()) > l.cfg.CacheTTL {
		return nil, false
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return raw, true
}

func (l *Loader) writeCache(kind Kind, raw []byte) {
	path := l.cachePath(kind)
	if path == "" {
		return
	}
	// Best effort. A failed cache write must never fail the load.
	_ = writeFileAtomic(path, raw)
}

func writeFileAtomic(path string, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
