// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config holds a Node's startup configuration: section sizing,
// timing budgets, and the contacts used to bootstrap into the network.
package config

import (
	"errors"
	"time"

	"github.com/luxfi/mesh/utils/wrappers"
)

// Validation errors returned by Config.Validate, collected via
// utils/wrappers.Errs rather than returned eagerly so a caller sees every
// problem in one pass.
var (
	ErrElderSizeTooSmall    = errors.New("config: elder_size must be >= 1")
	ErrMinAgeZero           = errors.New("config: min_age must be >= 1")
	ErrSplitThresholdLow    = errors.New("config: split_threshold must be > elder_size")
	ErrTimeoutNonPositive   = errors.New("config: timeouts must be positive")
	ErrNoContactsNotFirst   = errors.New("config: non-first node needs at least one contact")
	ErrMissingTransportAddr = errors.New("config: transport address must be set")
)

// Transport is the local listening address and the peers this node dials
// to begin bootstrapping.
type Transport struct {
	// IP is the address this node listens for inbound connections on.
	IP string
	// Port is the listening port.
	Port uint16
	// HardCodedContacts are addresses tried in order during bootstrap,
	// independent of any dynamically cached contacts.
	HardCodedContacts []string
}

// Address returns IP:Port, the form Transport.Send takes.
func (t Transport) Address() string {
	return t.IP + ":" + itoa(int(t.Port))
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [8]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

// NetworkParams are the section-sizing and timing budgets every node in
// the network must agree on.
type NetworkParams struct {
	// ElderSize is the target elder committee size per section.
	ElderSize int
	// MinAge is the youngest age a brand new node is admitted at.
	MinAge uint8
	// SplitThreshold is the adult count per branch that triggers a
	// section split.
	SplitThreshold int
	// AccumulationTimeout bounds how long the signature accumulator
	// holds partial shares for one message before discarding them.
	AccumulationTimeout time.Duration
	// JoinTimeout bounds a candidate's whole bootstrap-to-join attempt.
	JoinTimeout time.Duration
	// TimeoutAccept bounds one AcceptAsCandidate resource-proof round.
	TimeoutAccept time.Duration
}

// BLSThreshold returns floor(2*ElderSize/3), the accumulator's quorum
// threshold: threshold+1 shares are required to combine a signature.
func (n NetworkParams) BLSThreshold() int {
	return (2 * n.ElderSize) / 3
}

// DefaultNetworkParams returns the network-wide defaults.
func DefaultNetworkParams() NetworkParams {
	return NetworkParams{
		ElderSize:           7,
		MinAge:              4,
		SplitThreshold:      8,
		AccumulationTimeout: 120 * time.Second,
		JoinTimeout:         60 * time.Second,
		TimeoutAccept:       90 * time.Second,
	}
}

// Config is a single node's full startup configuration.
type Config struct {
	Network   NetworkParams
	Transport Transport
	// First marks the genesis node of a new network: it does not
	// bootstrap against any contact, and instead creates the first
	// section itself.
	First bool
	// Contacts are addresses to bootstrap against, tried in the order
	// given before falling back to Transport.HardCodedContacts.
	Contacts []string
}

// Validate checks every field independently and collects every failure
// found, rather than stopping at the first.
func (c Config) Validate() error {
	var errs wrappers.Errs

	if c.Network.ElderSize < 1 {
		errs.Add(ErrElderSizeTooSmall)
	}
	if c.Network.MinAge < 1 {
		errs.Add(ErrMinAgeZero)
	}
	if c.Network.SplitThreshold <= c.Network.ElderSize {
		errs.Add(ErrSplitThresholdLow)
	}
	if c.Network.AccumulationTimeout <= 0 || c.Network.JoinTimeout <= 0 || c.Network.TimeoutAccept <= 0 {
		errs.Add(ErrTimeoutNonPositive)
	}
	if c.Transport.IP == "" {
		errs.Add(ErrMissingTransportAddr)
	}
	if !c.First && len(c.Contacts) == 0 && len(c.Transport.HardCodedContacts) == 0 {
		errs.Add(ErrNoContactsNotFirst)
	}

	return errs.Err()
}
