// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegistersAndCounts(t *testing.T) {
	require := require.New(t)

	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(err)

	m.MessagesAccumulated.Inc()
	m.MessagesAccumulated.Inc()
	require.Equal(float64(2), testutil.ToFloat64(m.MessagesAccumulated))
}

func TestNewMetricsRejectsDoubleRegistration(t *testing.T) {
	require := require.New(t)

	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(err)

	_, err = NewMetrics(reg)
	require.Error(err)
}
