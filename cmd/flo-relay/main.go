// Command flo-relay is a minimal demo harness: it wires a node dispatcher
// and a LAN proxy supervisor together over a loopback TCP node link, purely
// to exercise the library end to end. It is not a matchmaking client.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/sync/errgroup"

	"github.com/gDollaZ/flo/internal/config"
	"github.com/gDollaZ/flo/internal/game"
	"github.com/gDollaZ/flo/internal/lan"
	"github.com/gDollaZ/flo/internal/lan/proxy"
	"github.com/gDollaZ/flo/internal/metrics"
	"github.com/gDollaZ/flo/internal/node/dispatch"
	"github.com/gDollaZ/flo/internal/node/server"
	"github.com/gDollaZ/flo/internal/node/stream"
)

const ConfigPath = "config/flo-relay.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := ConfigPath
	if p := os.Getenv("FLO_RELAY_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      parseLogLevel(cfg.LogLevel),
		TimeFormat: time.Kitchen,
	})))
	slog.Info("flo-relay starting", "log_level", cfg.LogLevel, "tick_step", cfg.TickStep())

	if cfg.MetricsListenAddr != "" {
		go func() {
			slog.Info("serving metrics", "addr", cfg.MetricsListenAddr)
			srv := &http.Server{Addr: cfg.MetricsListenAddr, Handler: metrics.Handler()}
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("metrics server", "error", err)
			}
		}()
	}

	info := demoGameInfo()

	registry := server.NewRegistry()
	nodeSrv, err := server.Listen("127.0.0.1:0", registry)
	if err != nil {
		return fmt.Errorf("starting node server: %w", err)
	}
	defer nodeSrv.Close()
	slog.Info("node server listening", "addr", nodeSrv.Addr())

	dispatcher := dispatch.New(info.GameID, cfg.TickStep())

	tok := registry.Issue(server.Registration{
		Dispatcher:   dispatcher,
		PlayerID:     info.LocalPlayerID,
		SlotPlayerID: uint8(info.LocalSlotPlayerID()),
	})

	dialer := stream.TCPDialer{Addr: nodeSrv.Addr().String()}
	sup, err := proxy.Start(ctx, info, dialer, tok)
	if err != nil {
		return fmt.Errorf("starting proxy: %w", err)
	}
	slog.Info("proxy listening for local client", "port", sup.Port())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return nodeSrv.Run(gctx)
	})

	g.Go(func() error {
		if err := dispatcher.Run(gctx, info); err != nil {
			return fmt.Errorf("dispatcher: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := sup.Run(gctx); err != nil {
			return fmt.Errorf("proxy: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case evt, ok := <-dispatcher.Events:
				if !ok {
					return nil
				}
				if chg, ok := evt.(dispatch.PlayerStatusChange); ok {
					slog.Info("player status change", "player_id", chg.PlayerID, "status", chg.Status, "source", chg.Source)
				}
			case evt, ok := <-sup.Events:
				if !ok {
					return nil
				}
				if disc, ok := evt.(lan.GameDisconnected); ok {
					slog.Info("game disconnected", "game_id", disc.GameID)
					return nil
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("relay: %w", err)
	}
	return nil
}

func demoGameInfo() game.Info {
	slots := make([]game.Slot, game.SlotCount)
	for i := range slots {
		slots[i] = game.Slot{Index: i}
	}
	slots[0].Player = &game.SlotPlayer{ID: 1, Name: "host"}

	info, err := game.NewInfo(1, game.MapInfo{Path: "Maps\\FrozenThrone\\(2)EchoIsles.w3x"}, 1, slots)
	if err != nil {
		// a hand-built fixture failing validation is a programmer error
		panic(err)
	}
	return info
}

// parseLogLevel converts a string log level to slog.Level, defaulting to
// Info on an empty or unrecognized value.
func parseLogLevel(level string) slog.Level {
	switch level {
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
