// Copyright (C) 2024-2026, Ring Coordinator Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Command ringd runs one RingCoordinator instance: the four-ring tick
// pipeline, the gameplay server layer, and the operator surfaces (admin
// console, Prometheus metrics).
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/luxfi/database/memdb"

	"github.com/The404Studios/ring-coordinator/internal/actuator"
	"github.com/The404Studios/ring-coordinator/internal/attribute"
	"github.com/The404Studios/ring-coordinator/internal/authority"
	"github.com/The404Studios/ring-coordinator/internal/bus"
	"github.com/The404Studios/ring-coordinator/internal/clock"
	"github.com/The404Studios/ring-coordinator/internal/config"
	"github.com/The404Studios/ring-coordinator/internal/container"
	"github.com/The404Studios/ring-coordinator/internal/info"
	"github.com/The404Studios/ring-coordinator/internal/metrics"
	"github.com/The404Studios/ring-coordinator/internal/netid"
	"github.com/The404Studios/ring-coordinator/internal/obslog"
	"github.com/The404Studios/ring-coordinator/internal/persistence"
	"github.com/The404Studios/ring-coordinator/internal/schema"
	"github.com/The404Studios/ring-coordinator/internal/server"
	"github.com/The404Studios/ring-coordinator/internal/transport"
)

var (
	profile     = flag.String("profile", "default", "Config preset: default, high-throughput, low-latency")
	metricsAddr = flag.String("metrics", ":9090", "Prometheus metrics listen address")
	logLevel    = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	savePath    = flag.String("save-path", "", "Override the snapshot save path")
	maxPlayers  = flag.Int("max-players", 0, "Override the max connected players (0 = use preset)")
)

func main() {
	flag.Parse()

	cfg := loadConfig()
	logger := obslog.New(parseLevel(*logLevel))

	if result := config.NewValidator().ValidateDetailed(cfg); !result.Valid {
		for _, e := range result.Errors {
			logger.Error("invalid config", "field", e.Field, "constraint", e.Constraint)
		}
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	containerRing := container.New(logger.With("ring", "container"))
	registry := schema.NewRegistry()
	infoRing := info.New(logger.With("ring", "info"), registry, containerRing, m, info.Config{
		AcceptThreshold:       cfg.AcceptThreshold,
		RejectThreshold:       cfg.RejectThreshold,
		VerificationThreshold: cfg.VerificationThreshold,
		MaxLagTicks:           cfg.MaxLagTicks,
		MaxQueueLen:           cfg.MaxInfosPerCycle * 4,
	})
	authorityRing := authority.New(logger.With("ring", "authority"), registry, containerRing, m, cfg.Gate, cfg.TickRateHz)

	dataBus := bus.New(logger.With("component", "databus"), actuator.NewInMemory(), m, bus.Config{
		MaxQueuedWrites:   cfg.Bus.MaxQueuedWrites,
		EnableCoalescing:  cfg.Bus.EnableCoalescing,
		EnableReadCache:   cfg.Bus.EnableReadCache,
		ReadCacheTTLTicks: cfg.Bus.ReadCacheTTLTicks,
	})
	attributeRing := attribute.New(logger.With("ring", "attribute"), m, cfg.Buffer, cfg.Gate.SnapThreshold, cfg.TickRateHz)
	outbound := transport.NewOutboundQueue(registry, m, cfg.Network.MaxQueuedPackets)
	netTransport := transport.NewLoopbackTransport(netid.New(netid.World, 0))

	db, err := memdb.New()
	if err != nil {
		logger.Error("failed to open snapshot store", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	store := persistence.NewStore(db)

	srv := server.New(logger.With("component", "server"), server.Config{
		TickRateHz:     cfg.TickRateHz,
		MaxPlayers:     cfg.Server.MaxPlayers,
		CombatSeed:     1,
		KOThreshold:    cfg.Server.KOThreshold,
		DeathThreshold: cfg.Server.DeathThreshold,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	coordinator := clock.New(clock.Config{
		Logger:           logger.With("component", "coordinator"),
		Container:        containerRing,
		InfoRing:         infoRing,
		AuthorityRing:    authorityRing,
		DataBus:          dataBus,
		Sinks:            []clock.Sink{attributeRing, outbound},
		Resolver:         containerRing,
		TickInterval:     cfg.TickInterval(),
		MaxInfosPerCycle: cfg.MaxInfosPerCycle,
		EntityTTLTicks:   cfg.EntityTTLTicks,
		OnFatal: func(err error) {
			logger.Error("coordinator tick fatal, shutting down", "error", err)
			cancel()
		},
	})

	admin := server.NewAdminDispatcher(srv, func() error {
		snap := srv.BuildSnapshot(coordinator.CurrentTick())
		blob, err := snap.Marshal()
		if err != nil {
			return fmt.Errorf("ringd: marshal snapshot: %w", err)
		}
		return store.Save(blob)
	}, cancel)

	go serveMetrics(*metricsAddr, reg, logger)
	go runNetworkedTickLoop(ctx, coordinator, registry, infoRing, outbound, netTransport, cfg.TickInterval(), logger)
	go runAdminConsole(ctx, admin, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigCh:
		logger.Info("received shutdown signal")
	case <-ctx.Done():
	}
	cancel()
	logger.Info("ringd stopped", "tick", coordinator.CurrentTick())
}

// runNetworkedTickLoop drives the coordinator at tickInterval, draining
// netTransport's inbound frames into the InfoRing before every tick and
// broadcasting whatever the AuthorityRing queued for the wire after it
// (spec §4.1 step 1, the broadcast half of step 4). This is what actually
// exercises NetworkTransport end to end rather than only from _test.go;
// internal/server is not consulted on this path.
func runNetworkedTickLoop(
	ctx context.Context,
	coordinator *clock.Coordinator,
	registry *schema.Registry,
	infoRing *info.Ring,
	outbound *transport.OutboundQueue,
	netTransport *transport.LoopbackTransport,
	tickInterval time.Duration,
	logger interface {
		Info(msg string, ctx ...interface{})
		Error(msg string, ctx ...interface{})
	},
) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	identity := func(e netid.ID) netid.ID { return e }

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			inbound, err := netTransport.Poll(ctx)
			if err != nil {
				logger.Error("network poll failed", "error", err)
			}
			for _, in := range inbound {
				for _, i := range transport.FramesToInfo(registry, in, info.PeerReport, identity) {
					infoRing.Submit(i)
				}
			}

			coordinator.Tick()

			frame := outbound.Flush(coordinator.CurrentTick(), uint64(time.Now().UnixMilli()))
			if len(frame.Packets) == 0 {
				continue
			}
			if err := netTransport.Broadcast(ctx, frame, transport.UnreliableSeq); err != nil {
				logger.Error("network broadcast failed", "error", err)
			}
		}
	}
}

func loadConfig() config.Config {
	var cfg config.Config
	switch *profile {
	case "high-throughput":
		cfg = config.HighThroughput()
	case "low-latency":
		cfg = config.LowLatency()
	default:
		cfg = config.Default()
	}
	if *savePath != "" {
		cfg.Server.SavePath = *savePath
	}
	if *maxPlayers > 0 {
		cfg.Server.MaxPlayers = *maxPlayers
	}
	return cfg
}

func parseLevel(s string) slog.Level {
	switch s {
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

func serveMetrics(addr string, reg *prometheus.Registry, logger interface {
	Info(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
}) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	logger.Info("serving metrics", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server stopped", "error", err)
	}
}

// runAdminConsole reads line-oriented admin commands from stdin until ctx
// is cancelled, the resolution the Open Questions section settled on for
// an operator surface with no ambient protocol in the distilled spec.
func runAdminConsole(ctx context.Context, admin *server.AdminDispatcher, logger interface {
	Info(msg string, ctx ...interface{})
}) {
	scanner := bufio.NewScanner(os.Stdin)
	lines := make(chan string)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			out, err := admin.Dispatch(line)
			if err != nil {
				logger.Info("admin command failed", "error", err)
				continue
			}
			if out != "" {
				logger.Info("admin", "result", out)
			}
		}
	}
}
