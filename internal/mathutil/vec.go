// Copyright (C) 2024-2026, Ring Coordinator Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package mathutil provides the small vector/quaternion kernel the
// AttributeRing and wire codec share. No third-party game-math library
// appears anywhere in the retrieval pack (see DESIGN.md), so this is a
// deliberate, narrow stdlib implementation rather than a hand-rolled
// substitute for something the pack already imports.
package mathutil

import "math"

// Vec3 is a plain 3-component float32 vector.
type Vec3 struct {
	X, Y, Z float32
}

func (a Vec3) Add(b Vec3) Vec3 { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }
func (a Vec3) Sub(b Vec3) Vec3 { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }
func (a Vec3) Scale(s float32) Vec3 { return Vec3{a.X * s, a.Y * s, a.Z * s} }

func (a Vec3) Length() float32 {
	return float32(math.Sqrt(float64(a.X*a.X + a.Y*a.Y + a.Z*a.Z)))
}

func (a Vec3) Distance(b Vec3) float32 {
	return a.Sub(b).Length()
}

func Lerp3(a, b Vec3, t float32) Vec3 {
	return Vec3{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
		Z: a.Z + (b.Z-a.Z)*t,
	}
}

// Hermite evaluates a cubic Hermite spline between p0 and p1 with endpoint
// velocities v0, v1 scaled by the sample interval dt (spec §4.5).
func Hermite(p0, p1, v0, v1 Vec3, dt float32, t float32) Vec3 {
	t2 := t * t
	t3 := t2 * t
	h00 := 2*t3 - 3*t2 + 1
	h10 := t3 - 2*t2 + t
	h01 := -2*t3 + 3*t2
	h11 := t3 - t2

	m0 := v0.Scale(dt)
	m1 := v1.Scale(dt)

	return Vec3{
		X: h00*p0.X + h10*m0.X + h01*p1.X + h11*m1.X,
		Y: h00*p0.Y + h10*m0.Y + h01*p1.Y + h11*m1.Y,
		Z: h00*p0.Z + h10*m0.Z + h01*p1.Z + h11*m1.Z,
	}
}

func Clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func ClampDuration(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
