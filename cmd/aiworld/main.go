// Command aiworld runs the game AI core headless: a demo world with a few
// enemies, villagers, wildlife, a companion and a market, ticking until
// interrupted. The real game embeds the engine package directly; this binary
// exists for tuning and soak runs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/emberhollow/aicore/internal/combat"
	"github.com/emberhollow/aicore/internal/companion"
	"github.com/emberhollow/aicore/internal/config"
	"github.com/emberhollow/aicore/internal/economy"
	"github.com/emberhollow/aicore/internal/engine"
	"github.com/emberhollow/aicore/internal/events"
	"github.com/emberhollow/aicore/internal/geom"
	"github.com/emberhollow/aicore/internal/npc"
	"github.com/emberhollow/aicore/internal/persistence"
	"github.com/emberhollow/aicore/internal/sim"
	"github.com/emberhollow/aicore/internal/stream"
	"github.com/emberhollow/aicore/internal/wildlife"
)

// ticksPerHour maps real ticks to demo game hours: one game hour per real
// minute at the default 100ms interval.
const ticksPerHour = 600

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	slog.Info("aiworld — game AI simulation core", "seed", cfg.Seed)

	// ── Database ──────────────────────────────────────────────────────
	os.MkdirAll(filepath.Dir(cfg.DBPath), 0755)
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	// ── Core ──────────────────────────────────────────────────────────
	bus := events.NewBus()
	coord := engine.NewCoordinator(bus, cfg.EngineOptions())
	cfg.Apply(coord)
	coord.SetPlayerDamageHandler(func(attackerID string, damage float64) {
		slog.Info("player hit", "attacker", attackerID, "damage", damage)
	})

	// ── Load or seed ──────────────────────────────────────────────────
	snap, saveID, loadErr := db.LatestSnapshot()
	switch {
	case loadErr == nil:
		if err := coord.Deserialize(snap); err != nil {
			slog.Error("failed to restore save", "id", saveID, "error", err)
			os.Exit(1)
		}
		slog.Info("world restored", "save", saveID,
			"enemies", coord.Enemies.Count(),
			"npcs", coord.NPCs.Count(),
			"animals", coord.Wildlife.Count(),
		)
	case errors.Is(loadErr, persistence.ErrNoSave):
		slog.Info("no saved state found, seeding demo world")
		seedDemoWorld(coord)
	default:
		slog.Error("failed to read latest save", "error", loadErr)
		os.Exit(1)
	}

	// ── Event stream ──────────────────────────────────────────────────
	streamSrv := stream.NewServer(cfg.StreamAddr, bus)
	streamSrv.Start()

	// ── Driver ────────────────────────────────────────────────────────
	var tick uint64
	world := sim.WorldState{
		Player:  sim.PlayerState{Position: geom.Vec2{X: 0, Y: 0}, Health: 100},
		Hour:    8,
		Season:  sim.SeasonSummer,
		Weather: sim.WeatherClear,
	}
	driver := engine.NewDriver(coord, func() *sim.WorldState {
		tick++
		world.Hour = int(8+tick/ticksPerHour) % 24
		return &world
	})
	driver.Interval = cfg.TickInterval()
	driver.Speed = cfg.Speed

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		driver.Stop()
	}()

	fmt.Printf("aiworld running: %d enemies, %d npcs, %d animals, %d companions.\n",
		coord.Enemies.Count(), coord.NPCs.Count(), coord.Wildlife.Count(), coord.Companions.Count())
	fmt.Printf("Event stream: ws://localhost%s/events\n", cfg.StreamAddr)
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	driver.Run()

	// ── Shutdown ──────────────────────────────────────────────────────
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := streamSrv.Shutdown(ctx); err != nil {
		slog.Warn("stream shutdown failed", "error", err)
	}

	slog.Info("final save...")
	if id, err := db.SaveSnapshot("shutdown", driver.Tick, coord.Serialize()); err != nil {
		slog.Error("final save failed", "error", err)
	} else {
		slog.Info("saved", "id", id, "tick", driver.Tick)
	}
	db.SetMeta("last_tick", fmt.Sprintf("%d", driver.Tick))

	fmt.Println("Simulation stopped. World state saved.")
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// seedDemoWorld populates a small village scene: a bandit camp east of town,
// villagers on schedules, a deer herd and a wolf, one dog, one market.
func seedDemoWorld(coord *engine.Coordinator) {
	camp := geom.Vec2{X: 40, Y: 10}
	coord.Enemies.Register(combat.Spec{
		ID: "bandit-1", Type: "grunt", Faction: "bandits",
		Position: camp, GuardPosition: &camp,
	})
	coord.Enemies.Register(combat.Spec{
		ID: "bandit-2", Type: "archer", Faction: "bandits",
		Position: geom.Vec2{X: 42, Y: 12},
		Patrol:   []geom.Vec2{{X: 42, Y: 12}, {X: 48, Y: 12}, {X: 48, Y: 18}},
	})
	coord.Enemies.Register(combat.Spec{
		ID: "bandit-3", Type: "brute", Faction: "bandits",
		Position: geom.Vec2{X: 44, Y: 8},
	})

	coord.NPCs.Register(npc.Spec{
		ID: "npc-baker", Name: "Maren", Profession: "baker",
		Position: geom.Vec2{X: 2, Y: 3},
		HomePos:  geom.Vec2{X: 2, Y: 3},
		WorkPos:  geom.Vec2{X: 5, Y: 5},
	})
	coord.NPCs.Register(npc.Spec{
		ID: "npc-smith", Name: "Oren", Profession: "blacksmith",
		Position: geom.Vec2{X: -3, Y: 4},
		HomePos:  geom.Vec2{X: -3, Y: 4},
		WorkPos:  geom.Vec2{X: -6, Y: 7},
	})
	coord.NPCs.Register(npc.Spec{
		ID: "npc-guard", Name: "Tilda", Profession: "guard",
		Position: geom.Vec2{X: 0, Y: 8},
		HomePos:  geom.Vec2{X: 1, Y: 9},
		WorkPos:  geom.Vec2{X: 0, Y: 12},
	})

	for i, pos := range []geom.Vec2{{X: -20, Y: 20}, {X: -22, Y: 21}, {X: -21, Y: 23}} {
		coord.Wildlife.Register(wildlife.Spec{
			ID:       fmt.Sprintf("deer-%d", i+1),
			Species:  "deer",
			Position: pos,
			HerdID:   "deer-herd",
		})
	}
	coord.Wildlife.Register(wildlife.Spec{
		ID: "wolf-1", Species: "wolf", Position: geom.Vec2{X: -30, Y: 30},
	})

	coord.Companions.Register(companion.Spec{
		ID: "dog-1", Type: "dog", OwnerID: "player", Position: geom.Vec2{X: 1, Y: 0},
	})

	coord.Economy.AddMarket(economy.MarketSpec{
		ID: "village-market", Name: "Village Market", Specialization: economy.CategoryFood,
		Supply: map[string]int{"bread": 30, "fish": 12, "potion": 6, "sword": 2},
	})
	coord.Economy.AddMerchant(economy.MerchantSpec{
		ID: "merchant-ada", Name: "Ada", MarketID: "village-market", Gold: 400,
		Inventory: map[string]int{"bread": 10, "potion": 4},
		Restock:   map[string]int{"bread": 10, "potion": 4},
	})
}
