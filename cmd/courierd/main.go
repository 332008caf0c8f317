package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"tigercity/internal/persistence/savegame"
	"tigercity/internal/persistence/scoredb"
	"tigercity/internal/resource"
	"tigercity/internal/sim/engine"
	"tigercity/internal/sim/game"
	"tigercity/internal/sim/tuning"
	"tigercity/internal/transport/observer"
)

func main() {
	var (
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		schemaDir  = flag.String("schemas", "./schemas", "payload schema directory (empty to skip validation)")
		apiBase    = flag.String("api", "", "resource API base url (overrides tuning)")
		seed       = flag.Int64("seed", 0, "weather rng seed (0 seeds from the clock)")
		player     = flag.String("player", "anonymous", "player name recorded with scores")
		loadPath   = flag.String("load", "", "resume from a saved game file")
		addr       = flag.String("addr", "", "observer listen address (overrides tuning)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[courierd] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tn, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		tn = tuning.Default()
		logger.Printf("no tuning.yaml at %s, using defaults", tp)
	}

	base := strings.TrimSpace(*apiBase)
	if base == "" {
		base = tn.Resources.APIBase
	}
	var provider resource.Provider
	if base != "" {
		provider = resource.NewHTTPProvider(base, time.Duration(tn.Resources.HTTPTimeout)*time.Second)
	}
	loader, err := resource.NewLoader(resource.LoaderConfig{
		Provider:   provider,
		CacheDir:   filepath.Join(*dataDir, tn.Resources.CacheDir),
		CacheTTL:   time.Duration(tn.Resources.CacheTTLS) * time.Second,
		FixtureDir: tn.Resources.FixtureDir,
		SchemaDir:  strings.TrimSpace(*schemaDir),
	})
	if err != nil {
		logger.Fatalf("resource loader: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cityPayload, src, err := loader.City(ctx)
	if err != nil {
		logger.Fatalf("load city: %v", err)
	}
	logger.Printf("city loaded from %s (%dx%d)", src, cityPayload.Width, cityPayload.Height)

	orderPayloads, src, err := loader.Orders(ctx)
	if err != nil {
		logger.Fatalf("load orders: %v", err)
	}
	logger.Printf("orders loaded from %s (%d)", src, len(orderPayloads))

	weatherCfg, src, err := loader.Weather(ctx)
	if err != nil {
		logger.Fatalf("load weather: %v", err)
	}
	logger.Printf("weather loaded from %s", src)

	city, err := game.LoadCity(cityPayload)
	if err != nil {
		logger.Fatalf("parse city: %v", err)
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(rngSeed))

	session := game.NewSession(game.Config{
		Start:               time.Now(),
		StartPosition:       game.Coord{X: tn.StartX, Y: tn.StartY},
		MaxInventoryWeight:  tn.MaxInventoryWeight,
		GameDuration:        tn.GameDurationS,
		MovementCooldown:    tn.MovementCooldownS,
		StaminaRecoveryRate: tn.StaminaRecoveryRate,
		UndoDepth:           tn.UndoDepth,
	}, city, weatherCfg, rng)

	if *loadPath != "" {
		save, err := savegame.Read(*loadPath)
		if err != nil {
			logger.Fatalf("read save: %v", err)
		}
		if err := session.RestoreSave(save); err != nil {
			logger.Fatalf("restore save: %v", err)
		}
		logger.Printf("resumed from %s (sim_time=%.1fs)", *loadPath, session.SimTime())
	} else {
		if err := session.LoadOrders(orderPayloads); err != nil {
			logger.Fatalf("load orders: %v", err)
		}
	}

	scorePath := tn.ScoreDB
	if !filepath.IsAbs(scorePath) {
		scorePath = filepath.Join(*dataDir, scorePath)
	}
	scores, err := scoredb.Open(scorePath)
	if err != nil {
		logger.Fatalf("open score db: %v", err)
	}
	defer scores.Close()

	frameEvery := time.Second / 10
	if tn.Observer.FrameRateHz > 0 {
		frameEvery = time.Second / time.Duration(tn.Observer.FrameRateHz)
	}
	eng := engine.New(engine.Config{
		TickEvery:  100 * time.Millisecond,
		FrameEvery: frameEvery,
		SavePath:   filepath.Join(*dataDir, "savegame.zst"),
		PlayerName: *player,
	}, session, scores, logger)

	listen := strings.TrimSpace(*addr)
	if listen == "" {
		listen = tn.Observer.Addr
	}
	obs := observer.NewServer(eng, logger)
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/observe", obs.WSHandler())

	httpSrv := &http.Server{Addr: listen, Handler: mux}
	go func() {
		logger.Printf("observer listening on ws://%s/v1/observe (seed=%d)", listen, rngSeed)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http: %v", err)
		}
	}()

	if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Printf("engine: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	logger.Printf("bye")
}
