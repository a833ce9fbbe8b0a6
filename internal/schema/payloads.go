// Copyright (C) 2024-2026, Ring Coordinator Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package schema

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/The404Studios/ring-coordinator/internal/mathutil"
)

// TransformPayload carries a position and rotation, spec §3.
type TransformPayload struct {
	Position mathutil.Vec3
	Rotation mathutil.Quat
	Velocity mathutil.Vec3
}

// HealthPayload carries current/max health, spec §3.
type HealthPayload struct {
	Current float32
	Max     float32
}

// FactionPayload names the faction an entity belongs to.
type FactionPayload struct {
	FactionID uint32
}

// AnimStatePayload names the current animation state slot.
type AnimStatePayload struct {
	StateID uint32
	Phase   float32
}

var (
	ErrInvalidTransform = errors.New("schema: invalid transform payload")
	ErrInvalidHealth    = errors.New("schema: invalid health payload")
	ErrInvalidFaction   = errors.New("schema: invalid faction payload")
	ErrInvalidAnimState = errors.New("schema: invalid anim state payload")
)

func transformDescriptor() Descriptor {
	return Descriptor{
		ID:          Transform,
		MergePolicy: Set,
		Validator: func(payload any) error {
			tp, ok := payload.(TransformPayload)
			if !ok {
				return ErrInvalidTransform
			}
			for _, f := range []float32{tp.Position.X, tp.Position.Y, tp.Position.Z, tp.Rotation.X, tp.Rotation.Y, tp.Rotation.Z, tp.Rotation.W} {
				if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
					return ErrInvalidTransform
				}
			}
			return nil
		},
		Serializer:     transformSerializer{},
		StalenessTicks: 4,
		ClearDefault:   TransformPayload{Rotation: mathutil.IdentityQuat()},
	}
}

type transformSerializer struct{}

func (transformSerializer) Encode(payload any) ([]byte, error) {
	tp, ok := payload.(TransformPayload)
	if !ok {
		return nil, ErrInvalidTransform
	}
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(tp.Position.X))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(tp.Position.Y))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(tp.Position.Z))
	binary.LittleEndian.PutUint32(buf[12:16], mathutil.CompressSmallestThree(tp.Rotation))
	return buf, nil
}

func (transformSerializer) Decode(data []byte) (any, error) {
	if len(data) < 16 {
		return nil, ErrInvalidTransform
	}
	return TransformPayload{
		Position: mathutil.Vec3{
			X: math.Float32frombits(binary.LittleEndian.Uint32(data[0:4])),
			Y: math.Float32frombits(binary.LittleEndian.Uint32(data[4:8])),
			Z: math.Float32frombits(binary.LittleEndian.Uint32(data[8:12])),
		},
		Rotation: mathutil.DecompressSmallestThree(binary.LittleEndian.Uint32(data[12:16])),
	}, nil
}

func healthDescriptor() Descriptor {
	return Descriptor{
		ID:          Health,
		MergePolicy: Delta,
		Validator: func(payload any) error {
			hp, ok := payload.(HealthPayload)
			if !ok {
				return ErrInvalidHealth
			}
			if hp.Max < 0 || hp.Current < -hp.Max || hp.Current > hp.Max+0.001 {
				return ErrInvalidHealth
			}
			return nil
		},
		Serializer:     healthSerializer{},
		StalenessTicks: 8,
		ClearDefault:   HealthPayload{},
	}
}

type healthSerializer struct{}

func (healthSerializer) Encode(payload any) ([]byte, error) {
	hp, ok := payload.(HealthPayload)
	if !ok {
		return nil, ErrInvalidHealth
	}
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(hp.Current))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(hp.Max))
	return buf, nil
}

func (healthSerializer) Decode(data []byte) (any, error) {
	if len(data) < 8 {
		return nil, ErrInvalidHealth
	}
	return HealthPayload{
		Current: math.Float32frombits(binary.LittleEndian.Uint32(data[0:4])),
		Max:     math.Float32frombits(binary.LittleEndian.Uint32(data[4:8])),
	}, nil
}

func factionDescriptor() Descriptor {
	return Descriptor{
		ID:          FactionID,
		MergePolicy: Set,
		Validator: func(payload any) error {
			if _, ok := payload.(FactionPayload); !ok {
				return ErrInvalidFaction
			}
			return nil
		},
		Serializer:     factionSerializer{},
		StalenessTicks: 200,
		ClearDefault:   FactionPayload{},
	}
}

type factionSerializer struct{}

func (factionSerializer) Encode(payload any) ([]byte, error) {
	fp, ok := payload.(FactionPayload)
	if !ok {
		return nil, ErrInvalidFaction
	}
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, fp.FactionID)
	return buf, nil
}

func (factionSerializer) Decode(data []byte) (any, error) {
	if len(data) < 4 {
		return nil, ErrInvalidFaction
	}
	return FactionPayload{FactionID: binary.LittleEndian.Uint32(data)}, nil
}

func animStateDescriptor() Descriptor {
	return Descriptor{
		ID:          AnimState,
		MergePolicy: Set,
		Validator: func(payload any) error {
			if _, ok := payload.(AnimStatePayload); !ok {
				return ErrInvalidAnimState
			}
			return nil
		},
		Serializer:     animStateSerializer{},
		StalenessTicks: 6,
		ClearDefault:   AnimStatePayload{},
	}
}

type animStateSerializer struct{}

func (animStateSerializer) Encode(payload any) ([]byte, error) {
	ap, ok := payload.(AnimStatePayload)
	if !ok {
		return nil, ErrInvalidAnimState
	}
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], ap.StateID)
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(ap.Phase))
	return buf, nil
}

func (animStateSerializer) Decode(data []byte) (any, error) {
	if len(data) < 8 {
		return nil, ErrInvalidAnimState
	}
	return AnimStatePayload{
		StateID: binary.LittleEndian.Uint32(data[0:4]),
		Phase:   math.Float32frombits(binary.LittleEndian.Uint32(data[4:8])),
	}, nil
}
