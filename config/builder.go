// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import "fmt"

// Builder provides a fluent interface for constructing a Config, latching
// the first error encountered so callers can chain calls and check once at
// Build time.
type Builder struct {
	config Config
	err    error
}

// NewBuilder starts from DefaultNetworkParams.
func NewBuilder() *Builder {
	return &Builder{config: Config{Network: DefaultNetworkParams()}}
}

// WithElderSize overrides the target elder committee size.
func (b *Builder) WithElderSize(n int) *Builder {
	if b.err != nil {
		return b
	}
	if n < 1 {
		b.err = fmt.Errorf("elder size must be >= 1, got %d", n)
		return b
	}
	b.config.Network.ElderSize = n
	if b.config.Network.SplitThreshold <= n {
		b.config.Network.SplitThreshold = n + 1
	}
	return b
}

// WithMinAge overrides the youngest admissible age.
func (b *Builder) WithMinAge(age uint8) *Builder {
	if b.err != nil {
		return b
	}
	if age < 1 {
		b.err = fmt.Errorf("min age must be >= 1, got %d", age)
		return b
	}
	b.config.Network.MinAge = age
	return b
}

// WithSplitThreshold overrides the per-branch adult count that triggers a
// split.
func (b *Builder) WithSplitThreshold(n int) *Builder {
	if b.err != nil {
		return b
	}
	if n <= b.config.Network.ElderSize {
		b.err = fmt.Errorf("split threshold must be > elder size %d, got %d", b.config.Network.ElderSize, n)
		return b
	}
	b.config.Network.SplitThreshold = n
	return b
}

// WithTransport sets the local listen address and hard-coded contacts.
func (b *Builder) WithTransport(ip string, port uint16, hardCodedContacts ...string) *Builder {
	if b.err != nil {
		return b
	}
	if ip == "" {
		b.err = fmt.Errorf("transport IP must not be empty")
		return b
	}
	b.config.Transport = Transport{IP: ip, Port: port, HardCodedContacts: hardCodedContacts}
	return b
}

// WithContacts sets the bootstrap contact list.
func (b *Builder) WithContacts(contacts ...string) *Builder {
	if b.err != nil {
		return b
	}
	b.config.Contacts = contacts
	return b
}

// AsFirstNode marks this node as the genesis node of a new network.
func (b *Builder) AsFirstNode() *Builder {
	if b.err != nil {
		return b
	}
	b.config.First = true
	return b
}

// Build runs final validation and returns the assembled Config.
func (b *Builder) Build() (Config, error) {
	if b.err != nil {
		return Config{}, b.err
	}
	if err := b.config.Validate(); err != nil {
		return Config{}, err
	}
	return b.config, nil
}
