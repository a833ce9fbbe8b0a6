// Copyright (C) 2024-2026, Ring Coordinator Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package info

import (
	"sync"

	"github.com/luxfi/log"

	"github.com/The404Studios/ring-coordinator/internal/container"
	"github.com/The404Studios/ring-coordinator/internal/frame"
	"github.com/The404Studios/ring-coordinator/internal/metrics"
	"github.com/The404Studios/ring-coordinator/internal/netid"
	"github.com/The404Studios/ring-coordinator/internal/schema"
)

// ConsistencyChecker lets the InfoRing award the consistency bonus (spec
// §4.3) by asking the AuthorityRing whether a candidate agrees with the
// last commit for its (subject, schema). It is satisfied by
// *authority.Ring without either package importing the other's concrete
// type, avoiding the import cycle the two rings would otherwise form.
type ConsistencyChecker interface {
	WithinSanityGate(subject netid.ID, schemaID schema.ID, payload any) bool
}

// queuedInfo is one entry in the bounded MPSC intake queue.
type queuedInfo struct {
	info     Info
	priority int // derived from Authority.Rank(), used for overflow eviction
}

// pending is a candidate sitting in the one-tick verification band (spec
// §4.3 "Between -> verification").
type pending struct {
	info        Info
	queuedTick  uint64
	corroborate []Info
}

// Ring is the InfoRing.
type Ring struct {
	log       log.Logger
	registry  *schema.Registry
	container *container.Ring
	metrics   *metrics.Metrics

	acceptThreshold       float64
	rejectThreshold       float64
	verificationThreshold float64
	maxLagTicks           uint64
	maxQueueLen           int

	mu      sync.Mutex
	queue   []queuedInfo
	pendingVerify map[key]*pending

	overflowDrops uint64
}

// Config groups the InfoRing's construction-time tunables, read from
// config.Config by the caller wiring the coordinator together.
type Config struct {
	AcceptThreshold       float64
	RejectThreshold       float64
	VerificationThreshold float64
	MaxLagTicks           uint64
	MaxQueueLen           int
}

// New constructs an InfoRing.
func New(logger log.Logger, registry *schema.Registry, containerRing *container.Ring, m *metrics.Metrics, cfg Config) *Ring {
	return &Ring{
		log:                   logger,
		registry:              registry,
		container:             containerRing,
		metrics:               m,
		acceptThreshold:       cfg.AcceptThreshold,
		rejectThreshold:       cfg.RejectThreshold,
		verificationThreshold: cfg.VerificationThreshold,
		maxLagTicks:           cfg.MaxLagTicks,
		maxQueueLen:           cfg.MaxQueueLen,
		pendingVerify:         make(map[key]*pending),
	}
}

// Submit enqueues an Info for the next ProcessCycle. Safe for concurrent
// callers (spec §5: observer threads may enqueue concurrently). On overflow
// the oldest low-priority entry is dropped, per spec §4.3.
func (r *Ring) Submit(i Info) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := queuedInfo{info: i, priority: i.Authority.Rank()}

	if len(r.queue) >= r.maxQueueLen {
		r.evictOldestLowPriorityLocked()
	}
	r.queue = append(r.queue, entry)
	if r.metrics != nil {
		r.metrics.InfoPending.Set(float64(len(r.queue)))
	}
}

// evictOldestLowPriorityLocked drops the oldest entry among those sharing
// the queue's minimum priority. Caller holds r.mu.
func (r *Ring) evictOldestLowPriorityLocked() {
	if len(r.queue) == 0 {
		return
	}
	minPriority := r.queue[0].priority
	minIdx := 0
	for idx, q := range r.queue {
		if q.priority < minPriority {
			minPriority = q.priority
			minIdx = idx
		}
	}
	r.queue = append(r.queue[:minIdx], r.queue[minIdx+1:]...)
	r.overflowDrops++
	if r.metrics != nil {
		r.metrics.QueueOverflow.Inc()
	}
}

// OverflowDrops reports the cumulative overflow-eviction count.
func (r *Ring) OverflowDrops() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overflowDrops
}

// ProcessCycle drains up to maxInfosPerCycle queued Infos, validates and
// scores each, runs one-tick verification, arbitrates within (subject,
// schema), and returns the winning candidates for AuthorityRing (spec
// §4.1 step 3, §4.3). resolver resolves AttachedTo frames; checker awards
// the consistency bonus.
func (r *Ring) ProcessCycle(currentTick uint64, maxInfosPerCycle int, resolver frame.Resolver, checker ConsistencyChecker) []Info {
	batch := r.drain(maxInfosPerCycle)

	winners := make(map[key]candidate)

	for _, q := range batch {
		i := q.info
		if !r.validate(i, currentTick, resolver) {
			if r.metrics != nil {
				r.metrics.InfoRejected.Inc()
			}
			continue
		}

		score := r.score(i, currentTick, checker)
		k := key{subject: i.Subject, schema: i.Schema}

		switch {
		case score >= r.acceptThreshold:
			r.mergeWinner(winners, k, i, score)
		case score < r.rejectThreshold:
			if r.metrics != nil {
				r.metrics.InfoRejected.Inc()
			}
		default:
			r.enterVerification(k, i, currentTick)
		}
	}

	// Resolve verification band entries that are ready: either a
	// corroborating Info arrived this tick (averaged and accepted), or the
	// one-tick window has expired (rejected).
	for k, p := range r.pendingVerify {
		if len(p.corroborate) > 0 {
			avg := p.info.Confidence
			for _, c := range p.corroborate {
				avg += c.Confidence
			}
			avg /= float64(1 + len(p.corroborate))
			merged := p.info
			merged.Confidence = avg
			r.mergeWinner(winners, k, merged, avg)
			delete(r.pendingVerify, k)
		} else if currentTick > p.queuedTick {
			if r.metrics != nil {
				r.metrics.InfoRejected.Inc()
			}
			delete(r.pendingVerify, k)
		}
	}
	if r.metrics != nil {
		r.metrics.InfoVerifying.Set(float64(len(r.pendingVerify)))
	}

	out := make([]Info, 0, len(winners))
	for _, c := range winners {
		out = append(out, c.info)
		if r.metrics != nil {
			r.metrics.InfoAccepted.Inc()
		}
	}
	return out
}

func (r *Ring) drain(maxInfosPerCycle int) []queuedInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.queue)
	if n > maxInfosPerCycle {
		n = maxInfosPerCycle
	}
	batch := make([]queuedInfo, n)
	copy(batch, r.queue[:n])
	r.queue = r.queue[n:]
	if r.metrics != nil {
		r.metrics.InfoPending.Set(float64(len(r.queue)))
	}
	return batch
}

// validate applies the intake checks from spec §4.3.
func (r *Ring) validate(i Info, currentTick uint64, resolver frame.Resolver) bool {
	rec, ok := r.container.Lookup(i.Subject)
	if !ok {
		return false
	}
	if r.registry.Validate(i.Schema, i.Payload) != nil {
		return false
	}
	if i.Tick > currentTick+1 {
		return false
	}
	if currentTick >= r.maxLagTicks && i.Tick < currentTick-r.maxLagTicks {
		return false
	}
	if !frame.Convertible(i.Frame, rec.Frame, resolver) {
		return false
	}
	return true
}

// score applies the deterministic confidence modifiers from spec §4.3.
func (r *Ring) score(i Info, currentTick uint64, checker ConsistencyChecker) float64 {
	s := i.Confidence + i.Authority.authorityBonus()

	if currentTick > i.Tick {
		age := currentTick - i.Tick
		s -= 0.02 * float64(age)
	}
	if s < 0 {
		s = 0
	}

	if checker != nil && checker.WithinSanityGate(i.Subject, i.Schema, i.Payload) {
		s += 0.1
	}
	return s
}

func (r *Ring) enterVerification(k key, i Info, currentTick uint64) {
	if existing, ok := r.pendingVerify[k]; ok {
		existing.corroborate = append(existing.corroborate, i)
		return
	}
	r.pendingVerify[k] = &pending{info: i, queuedTick: currentTick}
}

// candidate is a scored Info competing for a (subject, schema) slot.
type candidate struct {
	info  Info
	score float64
}

// mergeWinner arbitrates between a newly accepted candidate and whatever
// currently holds the (subject, schema) slot, in the order of spec §4.3:
// (a) higher authority rank, (b) newer observedAtTick, (c) smaller
// sourceId. The confidence score only decides acceptance; it is not
// compared here.
func (r *Ring) mergeWinner(winners map[key]candidate, k key, i Info, score float64) {
	current, exists := winners[k]
	if !exists {
		winners[k] = candidate{i, score}
		return
	}
	if betterCandidate(i, current.info) {
		winners[k] = candidate{i, score}
	}
}

// betterCandidate applies the deterministic tiebreak order.
func betterCandidate(a, b Info) bool {
	if a.Authority.Rank() != b.Authority.Rank() {
		return a.Authority.Rank() > b.Authority.Rank()
	}
	if a.ObservedAtTick != b.ObservedAtTick {
		return a.ObservedAtTick > b.ObservedAtTick
	}
	return a.Source < b.Source
}
