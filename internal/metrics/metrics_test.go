// Copyright (C) 2024-2026, Ring Coordinator Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestCommitsGeneratedExposed(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.CommitsGenerated.Inc()
	m.CommitsGenerated.Inc()

	families, err := reg.Gather()
	require.NoError(t, err)

	var found *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "ring_commits_generated_total" {
			found = f
		}
	}
	require.NotNil(t, found)
	require.Equal(t, float64(2), found.Metric[0].GetCounter().GetValue())
}

func TestNilRegistererIsSafe(t *testing.T) {
	m := New(nil)
	require.NotPanics(t, func() {
		m.InfoAccepted.Inc()
	})
}
