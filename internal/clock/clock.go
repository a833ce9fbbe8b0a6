// Copyright (C) 2024-2026, Ring Coordinator Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package clock drives the fixed-rate tick loop that runs the four rings
// in order every tick (spec §4.1): ContainerRing expiry, InfoRing intake
// and arbitration, AuthorityRing sanity-gating and commit dispatch, then
// the DataBus flush. Nothing in this package is a singleton; a Coordinator
// is constructed explicitly with every ring it drives.
package clock

import (
	"context"
	"fmt"
	"time"

	"github.com/luxfi/log"

	"github.com/The404Studios/ring-coordinator/internal/authority"
	"github.com/The404Studios/ring-coordinator/internal/bus"
	"github.com/The404Studios/ring-coordinator/internal/container"
	"github.com/The404Studios/ring-coordinator/internal/frame"
	"github.com/The404Studios/ring-coordinator/internal/info"
)

// Sink is any AuthorityRing dispatch target beyond the DataBus (AttributeRing,
// the transport outbound queue, ...).
type Sink = authority.Sink

// Coordinator owns one tick loop over the four rings.
type Coordinator struct {
	log log.Logger

	container *container.Ring
	infoRing  *info.Ring
	authorityRing *authority.Ring
	dataBus   *bus.Bus
	sinks     []Sink
	resolver  frame.Resolver

	tickInterval     time.Duration
	maxInfosPerCycle int
	entityTTLTicks   uint64

	tick uint64

	onFatal func(err error)
}

// Config groups the Coordinator's construction-time wiring.
type Config struct {
	Logger           log.Logger
	Container        *container.Ring
	InfoRing         *info.Ring
	AuthorityRing    *authority.Ring
	DataBus          *bus.Bus
	Sinks            []Sink // additional AuthorityRing sinks besides DataBus, e.g. AttributeRing, transport queue
	Resolver         frame.Resolver
	TickInterval     time.Duration
	MaxInfosPerCycle int
	EntityTTLTicks   uint64
	OnFatal          func(err error)
}

// New constructs a Coordinator. OnFatal defaults to a no-op if nil; only
// programmer-bug invariants should ever call it (spec §7).
func New(cfg Config) *Coordinator {
	onFatal := cfg.OnFatal
	if onFatal == nil {
		onFatal = func(error) {}
	}
	return &Coordinator{
		log:              cfg.Logger,
		container:        cfg.Container,
		infoRing:         cfg.InfoRing,
		authorityRing:    cfg.AuthorityRing,
		dataBus:          cfg.DataBus,
		sinks:            cfg.Sinks,
		resolver:         cfg.Resolver,
		tickInterval:     cfg.TickInterval,
		maxInfosPerCycle: cfg.MaxInfosPerCycle,
		entityTTLTicks:   cfg.EntityTTLTicks,
		onFatal:          onFatal,
	}
}

// Tick runs exactly one cycle through the four rings (spec §4.1 steps
// 1-4) and returns the commits produced.
func (c *Coordinator) Tick() []authority.Commit {
	c.tick++
	tick := c.tick

	c.container.ExpireStale(tick, c.entityTTLTicks)

	winners := c.infoRing.ProcessCycle(tick, c.maxInfosPerCycle, c.resolver, c.authorityRing)

	allSinks := make([]Sink, 0, len(c.sinks)+1)
	allSinks = append(allSinks, c.dataBus)
	allSinks = append(allSinks, c.sinks...)

	commits := c.authorityRing.ProcessCycle(winners, tick, allSinks...)

	c.dataBus.FlushBatch()

	return commits
}

// CurrentTick reports the last tick number processed.
func (c *Coordinator) CurrentTick() uint64 {
	return c.tick
}

// Run drives Tick at tickInterval until ctx is cancelled, mirroring the
// teacher's ticker/ctx.Done loop shape.
func (c *Coordinator) Run(ctx context.Context) {
	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						if c.log != nil {
							c.log.Error("tick panicked, recovering", "panic", r, "tick", c.tick)
						}
						c.onFatal(panicToError(r))
					}
				}()
				c.Tick()
			}()
		}
	}
}

func panicToError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("clock: tick panic: %v", r)
}
