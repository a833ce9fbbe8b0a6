// Copyright (C) 2024-2026, Ring Coordinator Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package authority implements the AuthorityRing: it takes the InfoRing's
// per-tick winners, applies schema-specific sanity gates, turns whatever
// survives into Commits, and dispatches those commits to the three sinks
// named in spec §4.4 (DataBus, NetworkTransport, AttributeRing).
package authority

import (
	"errors"

	"github.com/google/uuid"
	"github.com/luxfi/log"

	"github.com/The404Studios/ring-coordinator/internal/config"
	"github.com/The404Studios/ring-coordinator/internal/container"
	"github.com/The404Studios/ring-coordinator/internal/info"
	"github.com/The404Studios/ring-coordinator/internal/mathutil"
	"github.com/The404Studios/ring-coordinator/internal/metrics"
	"github.com/The404Studios/ring-coordinator/internal/netid"
	"github.com/The404Studios/ring-coordinator/internal/schema"
)

// Operation mirrors the winning Info's schema merge policy on the Commit
// record, spec §3.
type Operation = schema.MergePolicy

// Commit is the unit AuthorityRing hands to its three sinks (spec §3).
type Commit struct {
	CommitID       string
	SubjectID      netid.ID
	Tick           uint64
	Operation      Operation
	Schema         schema.ID
	Payload        any
	AuthorityEpoch uint64
	Source         info.AuthoritySource
}

// ErrSanityGateRejected is returned (not panicked) when a candidate fails
// its schema's sanity gate.
var ErrSanityGateRejected = errors.New("authority: candidate rejected by sanity gate")

// Sink receives a committed fact. DataBus, the transport's outbound queue,
// and the AttributeRing's ingest all implement it, letting Ring dispatch to
// an arbitrary ordered list without importing any of their concrete types.
type Sink interface {
	ApplyCommit(c Commit)
}

// lastCommit tracks the most recent Commit per (subject, schema), used both
// for the consistency bonus (info.ConsistencyChecker) and for re-submitting
// a gate-rejected candidate as CachedLastKnown. impliedVelocity is the
// Transform schema's velocity as implied by the position delta since the
// previous commit, not the payload's self-reported Velocity field (spec
// §4.4, S2): it's what the next commit's acceleration check compares
// against. hasImpliedVelocity is false for a subject's very first Transform
// commit, which has no prior position to take a delta against — the
// acceleration check is skipped until a real velocity sample exists, so
// the first recorded movement isn't flagged as infinite acceleration from
// a standing start.
type lastCommit struct {
	commit             Commit
	impliedVelocity    mathutil.Vec3
	hasImpliedVelocity bool
}

type key struct {
	subject netid.ID
	schema  schema.ID
}

// Ring is the AuthorityRing.
type Ring struct {
	log        log.Logger
	registry   *schema.Registry
	container  *container.Ring
	metrics    *metrics.Metrics
	gate       config.GateConfig
	tickRateHz int

	last map[key]lastCommit
}

// New constructs an AuthorityRing. tickRateHz converts the tick delta between
// two Transform commits into elapsed seconds for the implied-velocity check
// in withinGate.
func New(logger log.Logger, registry *schema.Registry, containerRing *container.Ring, m *metrics.Metrics, gate config.GateConfig, tickRateHz int) *Ring {
	return &Ring{
		log:        logger,
		registry:   registry,
		container:  containerRing,
		metrics:    m,
		gate:       gate,
		tickRateHz: tickRateHz,
		last:       make(map[key]lastCommit),
	}
}

// ProcessCycle turns each InfoRing winner into a Commit and dispatches it to
// sinks in order (spec §4.1 step 4, §4.4). A candidate that fails its
// sanity gate is not committed as-is; instead the subject's last known-good
// commit for that schema is re-affirmed with AuthoritySource
// CachedLastKnown, so downstream consumers never see a gap.
func (r *Ring) ProcessCycle(winners []info.Info, tick uint64, sinks ...Sink) []Commit {
	commits := make([]Commit, 0, len(winners))

	for _, w := range winners {
		desc, ok := r.registry.Lookup(w.Schema)
		if !ok {
			continue
		}

		if !r.withinGate(w.Subject, w.Schema, w.Payload, w.Authority, tick) {
			if r.metrics != nil {
				r.metrics.SanityGateRejected.Inc()
			}
			if c, had := r.reaffirmLast(w.Subject, w.Schema, tick); had {
				commits = append(commits, c)
			}
			continue
		}

		epoch, alive := r.container.BumpEpoch(w.Subject)
		if !alive {
			// Entity was removed this tick; the commit would target a
			// dead subject (spec §4.2: removal invalidates later commits
			// for the same id in the same tick).
			continue
		}

		c := Commit{
			CommitID:       uuid.NewString(),
			SubjectID:      w.Subject,
			Tick:           tick,
			Operation:      desc.MergePolicy,
			Schema:         w.Schema,
			Payload:        w.Payload,
			AuthorityEpoch: epoch,
			Source:         w.Authority,
		}
		r.container.TouchLive(w.Subject, tick)
		vel, hasVel := r.impliedVelocityFor(w.Subject, w.Schema, w.Payload, tick)
		r.last[key{subject: w.Subject, schema: w.Schema}] = lastCommit{
			commit:             c,
			impliedVelocity:    vel,
			hasImpliedVelocity: hasVel,
		}
		commits = append(commits, c)

		if r.metrics != nil {
			r.metrics.CommitsGenerated.Inc()
		}
	}

	for _, c := range commits {
		for _, s := range sinks {
			s.ApplyCommit(c)
		}
	}
	return commits
}

// reaffirmLast re-emits the last good commit for (subject, schema) tagged
// as CachedLastKnown, so a rejected update doesn't leave downstream state
// stuck on a payload older than what the sinks already hold.
func (r *Ring) reaffirmLast(subject netid.ID, schemaID schema.ID, tick uint64) (Commit, bool) {
	prev, ok := r.last[key{subject: subject, schema: schemaID}]
	if !ok {
		return Commit{}, false
	}
	c := prev.commit
	c.CommitID = uuid.NewString()
	c.Tick = tick
	c.Source = info.CachedLastKnown
	return c, true
}

// impliedVelocityFor computes the velocity implied by the position delta
// between payload and the subject's previous Transform commit, divided by
// the elapsed time between the two ticks. The second return value is false
// when there's no previous commit to take a delta against (schema mismatch,
// first commit, or a same/earlier tick), in which case the velocity is
// undefined rather than zero.
func (r *Ring) impliedVelocityFor(subject netid.ID, schemaID schema.ID, payload any, tick uint64) (mathutil.Vec3, bool) {
	if schemaID != schema.Transform {
		return mathutil.Vec3{}, false
	}
	tp, ok := payload.(schema.TransformPayload)
	if !ok {
		return mathutil.Vec3{}, false
	}
	prev, ok := r.last[key{subject: subject, schema: schemaID}]
	if !ok {
		return mathutil.Vec3{}, false
	}
	prevTp, ok := prev.commit.Payload.(schema.TransformPayload)
	if !ok {
		return mathutil.Vec3{}, false
	}
	dt := r.dtSeconds(tick, prev.commit.Tick)
	if dt <= 0 {
		return mathutil.Vec3{}, false
	}
	return tp.Position.Sub(prevTp.Position).Scale(1 / dt), true
}

// dtSeconds converts a tick delta into elapsed seconds using tickRateHz,
// falling back to a one-tick assumption when no tick rate was configured.
func (r *Ring) dtSeconds(tick, prevTick uint64) float32 {
	if tick <= prevTick {
		return 0
	}
	ticks := float32(tick - prevTick)
	if r.tickRateHz <= 0 {
		return ticks
	}
	return ticks / float32(r.tickRateHz)
}

// withinGate applies the schema-specific sanity checks from spec §4.4.
// ServerCommit bypasses the Health delta cap outright; death is always let
// through regardless of source. The Transform case gates on velocity and
// acceleration *implied by the position delta* since the last commit, not
// the payload's self-reported Velocity field — a producer can leave
// Velocity at zero and still teleport, so trusting it would let every
// position jump through untouched (spec §4.4, S2).
func (r *Ring) withinGate(subject netid.ID, schemaID schema.ID, payload any, source info.AuthoritySource, tick uint64) bool {
	switch schemaID {
	case schema.Transform:
		tp, ok := payload.(schema.TransformPayload)
		if !ok {
			return false
		}
		prev, hasPrev := r.last[key{subject: subject, schema: schemaID}]
		if !hasPrev {
			return true
		}
		prevTp, ok := prev.commit.Payload.(schema.TransformPayload)
		if !ok {
			return true
		}
		dt := r.dtSeconds(tick, prev.commit.Tick)
		if dt <= 0 {
			return true
		}
		impliedVelocity := tp.Position.Sub(prevTp.Position).Scale(1 / dt)
		if r.gate.MaxVelocity > 0 && impliedVelocity.Length() > r.gate.MaxVelocity {
			return false
		}
		if r.gate.MaxAcceleration > 0 && prev.hasImpliedVelocity {
			accel := impliedVelocity.Sub(prev.impliedVelocity).Scale(1 / dt).Length()
			if accel > r.gate.MaxAcceleration {
				return false
			}
		}
		return true
	case schema.Health:
		hp, ok := payload.(schema.HealthPayload)
		if !ok {
			return false
		}
		if source == info.ServerCommit || hp.Current <= 0 {
			return true
		}
		if prev, ok := r.last[key{subject: subject, schema: schemaID}]; ok {
			if prevHp, ok := prev.commit.Payload.(schema.HealthPayload); ok {
				delta := prevHp.Current - hp.Current
				if delta < 0 {
					delta = -delta
				}
				if r.gate.AllowedHealthDelta > 0 && delta > r.gate.AllowedHealthDelta*prevHp.Max {
					return false
				}
			}
		}
		return true
	default:
		return true
	}
}

// WithinSanityGate implements info.ConsistencyChecker, letting the InfoRing
// award its consistency bonus to candidates that agree with the last
// accepted commit for the same (subject, schema).
func (r *Ring) WithinSanityGate(subject netid.ID, schemaID schema.ID, payload any) bool {
	prev, ok := r.last[key{subject: subject, schema: schemaID}]
	if !ok {
		return false
	}
	return payloadsAgree(prev.commit.Payload, payload)
}

// payloadsAgree is a coarse agreement check used only to decide the
// consistency bonus: Transform payloads agree when their positions are
// within 0.25 units of each other, every other payload needs exact
// equality.
func payloadsAgree(a, b any) bool {
	at, aok := a.(schema.TransformPayload)
	bt, bok := b.(schema.TransformPayload)
	if aok && bok {
		return at.Position.Distance(bt.Position) <= 0.25
	}
	return a == b
}
