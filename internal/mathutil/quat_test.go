// Copyright (C) 2024-2026, Ring Coordinator Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package mathutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompressDecompressWithinTolerance(t *testing.T) {
	tests := []struct {
		name string
		q    Quat
	}{
		{"identity", IdentityQuat()},
		{"yaw 90", Quat{X: 0, Y: 0.70710678, Z: 0, W: 0.70710678}},
		{"arbitrary", Quat{X: 0.1, Y: 0.2, Z: 0.3, W: 0.9273618}},
		{"negative w", Quat{X: 0.5, Y: 0.5, Z: 0.5, W: -0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.q.Normalize()
			packed := CompressSmallestThree(q)
			decoded := DecompressSmallestThree(packed)

			angle := AngleBetween(q, decoded)
			// Two quaternions that differ only in overall sign represent
			// the same rotation; fold that into the comparison.
			if angle > math.Pi/2 {
				angle = AngleBetween(q, Quat{-decoded.X, -decoded.Y, -decoded.Z, -decoded.W})
			}
			require.Less(t, angle, float32(1e-3))
		})
	}
}

func TestSlerpEndpoints(t *testing.T) {
	a := IdentityQuat()
	b := Quat{X: 0, Y: 0.70710678, Z: 0, W: 0.70710678}

	require.InDelta(t, 0, AngleBetween(a, Slerp(a, b, 0)), 1e-4)
	require.InDelta(t, 0, AngleBetween(b, Slerp(a, b, 1)), 1e-4)
}

func TestHermiteAtEndpointsMatchesPositions(t *testing.T) {
	p0 := Vec3{0, 0, 0}
	p1 := Vec3{10, 0, 0}
	v0 := Vec3{}
	v1 := Vec3{}

	start := Hermite(p0, p1, v0, v1, 1, 0)
	end := Hermite(p0, p1, v0, v1, 1, 1)

	require.InDelta(t, p0.X, start.X, 1e-4)
	require.InDelta(t, p1.X, end.X, 1e-4)
}
