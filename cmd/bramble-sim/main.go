// bramble-sim runs a toy village of behavior-tree NPCs and streams their
// decisions to websocket observers. It exists to exercise the engine end to
// end; the world model is deliberately simple.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/brambleworks/bramble/internal/core/behavior"
	"github.com/brambleworks/bramble/internal/core/bt"
	"github.com/brambleworks/bramble/internal/core/events/bus"
	"github.com/brambleworks/bramble/internal/core/observability/log"
	"github.com/brambleworks/bramble/internal/core/physics"
)

// defaultTree is used when no tree file is given: walk between the well and
// the market, wave at night, rest in between.
const defaultTree = `
id: villager
type: selector
children:
  - id: night-wave
    type: sequence
    children:
      - id: is-night
        type: condition
        condition: {type: timeOfDay, timeOfDay: night}
      - id: not-waved
        type: inverter
        child:
          id: waved-flag
          type: condition
          condition: {type: hasFlag, flag: waved_tonight}
      - id: wave
        type: action
        action: {type: emitEvent, event: npc.waved}
  - id: go-market
    type: sequence
    children:
      - id: not-at-market
        type: inverter
        child:
          id: at-market
          type: condition
          condition: {type: atLocation, locationId: market, radius: 2}
      - id: walk
        type: action
        action: {type: moveTo, target: {x: 12, y: 0, z: 4}}
  - id: rest
    type: action
    action: {type: wait, seconds: 3}
`

type frame struct {
	Tick int        `json:"tick"`
	Time string     `json:"timeOfDay"`
	NPCs []npcFrame `json:"npcs"`
}

type npcFrame struct {
	ID         string       `json:"id"`
	Pos        physics.Vec3 `json:"pos"`
	Moving     bool         `json:"moving"`
	Running    string       `json:"runningNode,omitempty"`
	LastAction string       `json:"lastAction,omitempty"`
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

type wsHub struct {
	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

func newHub() *wsHub { return &wsHub{clients: make(map[*wsClient]struct{})} }

func (h *wsHub) add(c *wsClient)    { h.mu.Lock(); h.clients[c] = struct{}{}; h.mu.Unlock() }
func (h *wsHub) remove(c *wsClient) { h.mu.Lock(); delete(h.clients, c); h.mu.Unlock() }

func (h *wsHub) broadcast(b []byte) {
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- b:
		default:
		}
	}
	h.mu.RUnlock()
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

func loadTree(path string) (*bt.Node, error) {
	if path == "" {
		return bt.DecodeYAML(strings.NewReader(defaultTree))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if filepath.Ext(path) == ".json" {
		return bt.DecodeJSON(f)
	}
	return bt.DecodeYAML(f)
}

func main() {
	var (
		addr     = flag.String("addr", ":8080", "http listen address")
		treePath = flag.String("tree", "", "behavior tree file (yaml or json)")
		tick     = flag.Duration("tick", 250*time.Millisecond, "per-NPC tick interval")
		debug    = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	level := zapcore.InfoLevel
	if *debug {
		level = zapcore.DebugLevel
	}
	logger := log.New(level)
	defer func() { _ = logger.Sync() }()

	tree, err := loadTree(*treePath)
	if err != nil {
		logger.Fatal("load tree", zap.Error(err))
	}

	world := newVillage()
	events := bus.New()
	hub := newHub()

	sys := behavior.NewSystem(world, world.check, makeHandler(world, events, logger),
		behavior.WithLogger(logger),
		behavior.WithStallWarning(30*time.Second))

	for i, start := range []physics.Vec3{{X: 0}, {X: -6, Z: 9}, {X: 4, Z: -3}} {
		id := behavior.EntityID(fmt.Sprintf("villager-%d", i+1))
		b, err := behavior.New(tree, behavior.ModeContinuous, *tick)
		if err != nil {
			logger.Fatal("create behavior", zap.Error(err))
		}
		world.addNPC(id, b, start)
	}

	events.Subscribe("", func(ev bus.Event) {
		logger.Info("event", zap.String("type", ev.Type), zap.String("source", ev.Source))
	})
	// Flag storage is game-side: remember who already waved tonight.
	events.Subscribe("npc.waved", func(ev bus.Event) {
		world.mu.Lock()
		world.flags[ev.Source+"/waved_tonight"] = true
		world.mu.Unlock()
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return runLoop(ctx, world, sys, hub) })
	g.Go(func() error { return serveHTTP(ctx, *addr, hub, logger) })

	logger.Info("bramble-sim running", zap.String("addr", *addr))
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Fatal("exited", zap.Error(err))
	}
}

// makeHandler wires behavior actions into the toy world. Instant actions
// just mutate state or log; moveTo starts pathing the tick loop advances.
func makeHandler(world *village, events *bus.Bus, logger *zap.Logger) behavior.ActionHandler {
	return func(id behavior.EntityID, a *bt.Action) {
		switch a.Type {
		case bt.ActDialogue:
			world.setLastAction(id, "says "+a.DialogueID)
		case bt.ActMoveTo:
			world.setTarget(id, *a.Target)
			world.setLastAction(id, "walking")
		case bt.ActWait:
			world.setLastAction(id, "resting")
		case bt.ActAnimate:
			world.setLastAction(id, "plays "+a.Animation)
		case bt.ActLookAt:
			world.setLastAction(id, "looks at "+a.TargetID)
		case bt.ActSetFlag:
			world.mu.Lock()
			world.flags[flagKey(id, a.Flag)] = a.Value
			world.mu.Unlock()
			world.setLastAction(id, "sets "+a.Flag)
		case bt.ActEmitEvent:
			events.Publish(bus.NewEvent(a.Event, string(id), nil))
			world.setLastAction(id, "emits "+a.Event)
		case bt.ActCustom:
			logger.Debug("custom action", zap.String("entity", string(id)), zap.String("handler", a.Handler))
		}
	}
}

const frameInterval = 50 * time.Millisecond

func runLoop(ctx context.Context, world *village, sys *behavior.System, hub *wsHub) error {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	tick := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		world.step(frameInterval.Seconds())
		sys.Update(frameInterval)

		f := frame{Tick: tick, Time: world.timeOfDay()}
		world.mu.RLock()
		for _, id := range world.order {
			n, ok := world.npcs[id]
			if !ok {
				continue
			}
			f.NPCs = append(f.NPCs, npcFrame{
				ID:         string(id),
				Pos:        n.pos,
				Moving:     n.target != nil,
				Running:    n.behavior.RunningNodeID,
				LastAction: n.lastAction,
			})
		}
		world.mu.RUnlock()
		if b, err := json.Marshal(f); err == nil {
			hub.broadcast(b)
		}
		tick++
	}
}

func serveHTTP(ctx context.Context, addr string, hub *wsHub, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("ws upgrade", zap.Error(err))
			return
		}
		client := &wsClient{conn: c, send: make(chan []byte, 64)}
		hub.add(client)
		defer func() {
			hub.remove(client)
			_ = c.Close()
		}()
		go func() {
			for {
				if _, _, err := c.ReadMessage(); err != nil {
					return
				}
			}
		}()
		for b := range client.send {
			if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		}
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
