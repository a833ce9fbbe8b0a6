// Copyright (C) 2024-2026, Ring Coordinator Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package attribute implements the AttributeRing: a per-entity interpolation
// buffer that smooths AuthorityRing commits into a renderable
// PresentationState, using cubic Hermite position interpolation, Slerp
// rotation interpolation, dead-reckoning extrapolation with confidence
// decay, and residual-based snap-vs-blend correction (spec §4.5).
package attribute

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/luxfi/log"

	"github.com/The404Studios/ring-coordinator/internal/authority"
	"github.com/The404Studios/ring-coordinator/internal/config"
	"github.com/The404Studios/ring-coordinator/internal/mathutil"
	"github.com/The404Studios/ring-coordinator/internal/metrics"
	"github.com/The404Studios/ring-coordinator/internal/netid"
	"github.com/The404Studios/ring-coordinator/internal/schema"
)

// SampleMode reports how a PresentationState was produced.
type SampleMode uint8

const (
	ModeNone SampleMode = iota
	ModeExact
	ModeInterpolate
	ModeExtrapolate
)

func (m SampleMode) String() string {
	switch m {
	case ModeExact:
		return "Exact"
	case ModeInterpolate:
		return "Interpolate"
	case ModeExtrapolate:
		return "Extrapolate"
	default:
		return "None"
	}
}

// PresentationState is what the AttributeRing hands the render/network
// layer for one entity on one sample call.
type PresentationState struct {
	Position   mathutil.Vec3
	Rotation   mathutil.Quat
	Velocity   mathutil.Vec3
	Confidence float64
	Mode       SampleMode
}

type sample struct {
	tick     uint64
	position mathutil.Vec3
	rotation mathutil.Quat
	velocity mathutil.Vec3
}

type entityState struct {
	samples     []sample // ascending by tick, capped at Capacity
	arrivalGaps []uint64 // recent inter-arrival tick deltas, for jitter delay
	lastTick    uint64
	hasLastTick bool

	presentation PresentationState
	hasPresented bool
}

// Ring is the AttributeRing. It implements authority.Sink so the
// AuthorityRing can dispatch Transform commits to it directly.
type Ring struct {
	log     log.Logger
	metrics *metrics.Metrics
	cfg     config.BufferConfig
	// snapThreshold is the AuthorityRing's sanity-gate SnapThreshold
	// (config.GateConfig.SnapThreshold): a residual beyond it is a
	// teleport/respawn, not jitter, and is presented instantly.
	snapThreshold float32
	tickRateHz    int

	mu       sync.Mutex
	entities map[netid.ID]*entityState
}

// New constructs an AttributeRing. tickRateHz converts ExtrapolationCap
// (a wall-clock duration) into a tick count for the dead-reckoning cap.
func New(logger log.Logger, m *metrics.Metrics, cfg config.BufferConfig, snapThreshold float32, tickRateHz int) *Ring {
	if tickRateHz <= 0 {
		tickRateHz = 20
	}
	return &Ring{
		log:           logger,
		metrics:       m,
		cfg:           cfg,
		snapThreshold: snapThreshold,
		tickRateHz:    tickRateHz,
		entities:      make(map[netid.ID]*entityState),
	}
}

// ApplyCommit implements authority.Sink. Only Transform commits feed the
// interpolation buffer; every other schema passes through the DataBus and
// transport sinks unchanged.
func (r *Ring) ApplyCommit(c authority.Commit) {
	if c.Schema != schema.Transform {
		return
	}
	tp, ok := c.Payload.(schema.TransformPayload)
	if !ok {
		return
	}
	r.ingest(c.SubjectID, c.Tick, tp)
}

func (r *Ring) ingest(subject netid.ID, tick uint64, tp schema.TransformPayload) {
	r.mu.Lock()
	defer r.mu.Unlock()

	es, ok := r.entities[subject]
	if !ok {
		es = &entityState{}
		r.entities[subject] = es
	}

	if es.hasLastTick && tick > es.lastTick {
		gap := tick - es.lastTick
		es.arrivalGaps = append(es.arrivalGaps, gap)
		if len(es.arrivalGaps) > 64 {
			es.arrivalGaps = es.arrivalGaps[len(es.arrivalGaps)-64:]
		}
	}
	es.lastTick = tick
	es.hasLastTick = true

	s := sample{tick: tick, position: tp.Position, rotation: tp.Rotation.Normalize(), velocity: tp.Velocity}

	// Insert in ascending tick order; commits usually arrive in order but
	// the merge/verification band can reorder by one tick.
	idx := sort.Search(len(es.samples), func(i int) bool { return es.samples[i].tick >= tick })
	if idx < len(es.samples) && es.samples[idx].tick == tick {
		es.samples[idx] = s
	} else {
		es.samples = append(es.samples, sample{})
		copy(es.samples[idx+1:], es.samples[idx:])
		es.samples[idx] = s
	}

	capacity := r.cfg.Capacity
	if capacity <= 0 {
		capacity = 32
	}
	if len(es.samples) > capacity {
		es.samples = es.samples[len(es.samples)-capacity:]
	}
}

// jitterDelayTicks computes the adaptive delay (spec §4.5): the 90th
// percentile of recent inter-arrival gaps, clamped to [MinDelayTicks,
// MaxDelayTicks]. Caller holds r.mu.
func (r *Ring) jitterDelayTicks(es *entityState) uint64 {
	lo, hi := r.cfg.MinDelayTicks, r.cfg.MaxDelayTicks
	if hi == 0 {
		hi = r.cfg.InitialDelayTicks
	}
	if len(es.arrivalGaps) < 4 {
		return clampU64(r.cfg.InitialDelayTicks, lo, hi)
	}
	sorted := append([]uint64(nil), es.arrivalGaps...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(float64(len(sorted)) * 0.9)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return clampU64(sorted[idx], lo, hi)
}

func clampU64(v, lo, hi uint64) uint64 {
	if hi > 0 && v > hi {
		return hi
	}
	if v < lo {
		return lo
	}
	return v
}

// Sample produces the PresentationState for subject at currentTick, having
// advanced dt of wall-clock time since the last call (used for the
// frame-rate-independent blend factor). Returns false if nothing has ever
// been ingested for this subject.
func (r *Ring) Sample(subject netid.ID, currentTick uint64, dt time.Duration) (PresentationState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	es, ok := r.entities[subject]
	if !ok || len(es.samples) == 0 {
		return PresentationState{}, false
	}

	delay := r.jitterDelayTicks(es)
	var target uint64
	if currentTick > delay {
		target = currentTick - delay
	}

	raw, mode := r.rawSample(es, target)
	out := r.applyCorrection(es, raw, mode, dt)
	return out, true
}

// rawSample finds the interpolated, exact, or extrapolated sample for the
// (delay-shifted) target tick, before snap-vs-blend smoothing.
func (r *Ring) rawSample(es *entityState, target uint64) (PresentationState, SampleMode) {
	samples := es.samples
	n := len(samples)

	if samples[n-1].tick <= target {
		return r.extrapolate(samples[n-1], target), ModeExtrapolate
	}
	if samples[0].tick >= target {
		return stateOf(samples[0], 1), ModeExact
	}

	// Binary search for the bracketing pair [lo, hi).
	idx := sort.Search(n, func(i int) bool { return samples[i].tick > target })
	lo, hi := samples[idx-1], samples[idx]
	if lo.tick == target {
		return stateOf(lo, 1), ModeExact
	}

	span := float32(hi.tick - lo.tick)
	t := float32(target-lo.tick) / span
	pos := mathutil.Hermite(lo.position, hi.position, lo.velocity, hi.velocity, span, t)
	rot := mathutil.Slerp(lo.rotation, hi.rotation, t)
	vel := mathutil.Lerp3(lo.velocity, hi.velocity, t)
	return PresentationState{Position: pos, Rotation: rot, Velocity: vel, Confidence: 1, Mode: ModeInterpolate}, ModeInterpolate
}

// extrapolate dead-reckons from the newest sample using its last known
// velocity, decaying confidence exponentially with how far past the data
// we've had to coast (spec §4.5).
func (r *Ring) extrapolate(last sample, target uint64) PresentationState {
	overrun := float64(0)
	if target > last.tick {
		overrun = float64(target - last.tick)
	}
	if r.cfg.ExtrapolationCap > 0 {
		capTicks := r.cfg.ExtrapolationCap.Seconds() * float64(r.tickRateHz)
		if overrun > capTicks {
			overrun = capTicks
		}
	}

	pos := last.position.Add(last.velocity.Scale(float32(overrun)))
	confidence := math.Exp(-r.cfg.DecayRate * overrun)

	return PresentationState{
		Position:   pos,
		Rotation:   last.rotation,
		Velocity:   last.velocity,
		Confidence: confidence,
		Mode:       ModeExtrapolate,
	}
}

func stateOf(s sample, confidence float64) PresentationState {
	return PresentationState{Position: s.position, Rotation: s.rotation, Velocity: s.velocity, Confidence: confidence, Mode: ModeExact}
}

// applyCorrection smooths the raw sample against the entity's last
// presented state: a residual beyond SnapThreshold snaps instantly (e.g.
// teleport, respawn), otherwise it blends toward the target at a
// frame-rate-independent rate so jitter in dt doesn't change the
// perceived correction speed (spec §4.5).
func (r *Ring) applyCorrection(es *entityState, raw PresentationState, mode SampleMode, dt time.Duration) PresentationState {
	if !es.hasPresented {
		es.presentation = raw
		es.hasPresented = true
		return raw
	}

	residual := es.presentation.Position.Distance(raw.Position)
	blendRate := r.cfg.BlendRate
	if blendRate <= 0 {
		blendRate = 1
	}

	if r.snapThreshold > 0 && residual > r.snapThreshold {
		es.presentation = raw
		return raw
	}

	alpha := float32(1 - math.Pow(1-float64(blendRate), dt.Seconds()*60))
	blended := PresentationState{
		Position:   mathutil.Lerp3(es.presentation.Position, raw.Position, alpha),
		Rotation:   mathutil.Slerp(es.presentation.Rotation, raw.Rotation, alpha),
		Velocity:   raw.Velocity,
		Confidence: raw.Confidence,
		Mode:       mode,
	}
	es.presentation = blended
	return blended
}

