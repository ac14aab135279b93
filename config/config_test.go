// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilderDefaultsValidateForFirstNode(t *testing.T) {
	require := require.New(t)

	cfg, err := NewBuilder().WithTransport("127.0.0.1", 7700).AsFirstNode().Build()
	require.NoError(err)
	require.Equal(7, cfg.Network.ElderSize)
	require.Equal(4, cfg.Network.BLSThreshold())
}

func TestBuilderRequiresContactsWhenNotFirst(t *testing.T) {
	require := require.New(t)

	_, err := NewBuilder().WithTransport("127.0.0.1", 7700).Build()
	require.ErrorIs(err, ErrNoContactsNotFirst)
}

func TestBuilderRejectsSplitThresholdBelowElderSize(t *testing.T) {
	require := require.New(t)

	b := NewBuilder().WithElderSize(7).WithSplitThreshold(5)
	_, err := b.Build()
	require.Error(err)
}

func TestWithElderSizeRaisesSplitThresholdWhenTooLow(t *testing.T) {
	require := require.New(t)

	cfg, err := NewBuilder().WithElderSize(10).WithTransport("127.0.0.1", 1).WithContacts("a").Build()
	require.NoError(err)
	require.Greater(cfg.Network.SplitThreshold, cfg.Network.ElderSize)
}

func TestValidateCollectsMultipleErrors(t *testing.T) {
	require := require.New(t)

	cfg := Config{Network: NetworkParams{ElderSize: 0, MinAge: 0}}
	err := cfg.Validate()
	require.Error(err)
	require.Contains(err.Error(), "elder_size")
}
