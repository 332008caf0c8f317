// Package engine runs the courier session on its own goroutine. All session
// access goes through the loop: commands, observer joins and frame fan-out
// are channel-fed so the session itself never needs a lock.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"tigercity/internal/persistence/savegame"
	"tigercity/internal/persistence/scoredb"
	"tigercity/internal/protocol"
	"tigercity/internal/sim/game"
)

type Config struct {
	TickEvery  time.Duration // sim step interval
	FrameEvery time.Duration // observer frame interval
	SavePath   string        // destination for SAVE commands
	PlayerName string        // recorded with final scores
}

type joinReq struct {
	id  string
	out chan []byte
}

type Engine struct {
	cfg     Config
	session *game.Session
	scores  *scoredb.Store // may be nil
	log     *log.Logger

	cmds  chan protocol.Command
	join  chan joinReq
	leave chan string
	subs  map[string]chan []byte

	scored bool
}

func New(cfg Config, session *game.Session, scores *scoredb.Store, logger *log.Logger) *Engine {
	if cfg.TickEvery <= 0 {
		cfg.TickEvery = 100 * time.Millisecond
	}
	if cfg.FrameEvery <= 0 {
		cfg.FrameEvery = 100 * time.Millisecond
	}
	return &Engine{
		cfg:     cfg,
		session: session,
		scores:  scores,
		log:     logger,
		cmds:    make(chan protocol.Command, 256),
		join:    make(chan joinReq, 16),
		leave:   make(chan string, 16),
		subs:    map[string]chan []byte{},
	}
}

// Run drives the session until ctx is cancelled. It owns the session for its
// whole lifetime; nothing else may touch it while Run is active.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.TickEvery)
	defer ticker.Stop()
	frames := time.NewTicker(e.cfg.FrameEvery)
	defer frames.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			e.recordScore("interrupted")
			for _, out := range e.subs {
				close(out)
			}
			e.subs = map[string]chan []byte{}
			return ctx.Err()

		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			e.session.Update(dt)
			if e.session.Phase() != game.PhasePlaying {
				e.recordScore(string(e.session.Phase()))
			}

		case <-frames.C:
			e.broadcast()

		case cmd := <-e.cmds:
			e.apply(cmd)

		case req := <-e.join:
			e.subs[req.id] = req.out
			if b, err := e.frameBytes(); err == nil {
				select {
				case req.out <- b:
				default:
				}
			}

		case id := <-e.leave:
			if out, ok := e.subs[id]; ok {
				delete(e.subs, id)
				close(out)
			}
		}
	}
}

// Join registers an observer. The engine writes frames to out and closes it
// on Leave or shutdown. Returns false if the loop is saturated.
func (e *Engine) Join(id string, out chan []byte) bool {
	select {
	case e.join <- joinReq{id: id, out: out}:
		return true
	default:
		return false
	}
}

func (e *Engine) Leave(id string) {
	select {
	case e.leave <- id:
	default:
	}
}

// Submit queues a command for the loop. Returns false when the queue is full.
func (e *Engine) Submit(cmd protocol.Command) bool {
	select {
	case e.cmds <- cmd:
		return true
	default:
		return false
	}
}

func (e *Engine) apply(cmd protocol.Command) {
	var err error
	switch cmd.Type {
	case protocol.CmdMove:
		err = e.session.Move(cmd.DX, cmd.DY)
	case protocol.CmdAccept:
		err = e.session.AcceptOrder(cmd.OrderID)
	case protocol.CmdPickup:
		err = e.session.PickupCurrent()
	case protocol.CmdDeliver:
		var res game.DeliveryResult
		res, err = e.session.DeliverCurrent()
		if err == nil {
			e.log.Printf("delivered %s payout=%d rep%+d late=%.1fs",
				res.Order.ID, res.Payout, res.ReputationDelta, res.DelaySeconds)
		}
	case protocol.CmdCancel:
		err = e.session.CancelCurrent()
	case protocol.CmdUndo:
		if !e.session.Undo() {
			err = errors.New("nothing to undo")
		}
	case protocol.CmdSort:
		if cmd.Mode != "" {
			mode, perr := game.ParseSortMode(cmd.Mode)
			if perr != nil {
				err = perr
				break
			}
			e.session.SetSortMode(mode)
		} else {
			e.session.ToggleSortMode()
		}
	case protocol.CmdSave:
		err = e.saveGame()
	case protocol.CmdNextOrder:
		e.session.Inventory.Next()
	case protocol.CmdPrevOrder:
		e.session.Inventory.Prev()
	default:
		err = errors.New("unknown command type")
	}
	if err != nil {
		e.log.Printf("cmd %s rejected: %v", cmd.Type, err)
		e.broadcastError(cmd.Type, err)
		return
	}
	// Commands change visible state; push a frame right away.
	e.broadcast()
}

// codeFor maps engine-side failures onto the stable wire codes.
func codeFor(err error) string {
	switch {
	case errors.Is(err, game.ErrOrderNotFound):
		return protocol.ErrNotFound
	case errors.Is(err, game.ErrOrderNotAvailable):
		return protocol.ErrNotAvailable
	case errors.Is(err, game.ErrActiveOrderExists):
		return protocol.ErrActiveOrder
	case errors.Is(err, game.ErrOverCapacity):
		return protocol.ErrOverCapacity
	case errors.Is(err, game.ErrDuplicateOrder):
		return protocol.ErrDuplicate
	case errors.Is(err, game.ErrTerminalState):
		return protocol.ErrTerminal
	case errors.Is(err, game.ErrExhausted):
		return protocol.ErrExhausted
	case errors.Is(err, game.ErrBlockedTile), errors.Is(err, game.ErrOutOfBounds):
		return protocol.ErrBlocked
	case errors.Is(err, game.ErrNoCurrentOrder):
		return protocol.ErrEmpty
	case errors.Is(err, game.ErrSessionOver):
		return protocol.ErrUnavailable
	default:
		return protocol.ErrValidation
	}
}

func (e *Engine) broadcastError(cmdType string, err error) {
	b, merr := json.Marshal(protocol.ErrorFrame{
		Type:    protocol.TypeError,
		Cmd:     cmdType,
		Code:    codeFor(err),
		Message: err.Error(),
	})
	if merr != nil {
		return
	}
	for _, out := range e.subs {
		select {
		case out <- b:
		default:
		}
	}
}

func (e *Engine) saveGame() error {
	if e.cfg.SavePath == "" {
		return errors.New("no save path configured")
	}
	return savegame.Write(e.cfg.SavePath, e.session.BuildSave())
}

func (e *Engine) frameBytes() ([]byte, error) {
	return json.Marshal(e.session.Frame())
}

func (e *Engine) broadcast() {
	if len(e.subs) == 0 {
		return
	}
	b, err := e.frameBytes()
	if err != nil {
		e.log.Printf("frame encode: %v", err)
		return
	}
	for _, out := range e.subs {
		// Drop frames for slow observers rather than stalling the sim.
		select {
		case out <- b:
		default:
		}
	}
}

func (e *Engine) recordScore(outcome string) {
	if e.scored || e.scores == nil {
		return
	}
	if e.session.Phase() == game.PhasePlaying {
		return
	}
	e.scored = true

	score := e.session.FinalScore()
	stats := e.session.Orders.Statistics()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := e.scores.Insert(ctx, scoredb.Entry{
		PlayerName: e.cfg.PlayerName,
		Score:      score.FinalScore,
		Earnings:   e.session.Player.TotalEarnings,
		Reputation: e.session.Player.Reputation,
		Deliveries: stats.Completed,
		Outcome:    outcome,
	}); err != nil {
		e.log.Printf("record score: %v", err)
	} else {
		e.log.Printf("run over: %s score=%.1f earnings=%d", outcome, score.FinalScore, e.session.Player.TotalEarnings)
	}
}
