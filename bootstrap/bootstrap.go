// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package bootstrap drives a new node's contact cycling while it looks for
// a section to sponsor its join: it tries contacts in order, blacklists
// ones that fail or deny it for a cooldown window, and gives up after
// JoinTimeout if none succeed.
package bootstrap

import (
	"errors"
	"time"

	"github.com/luxfi/log"

	mlog "github.com/luxfi/mesh/log"
)

// ErrExhausted is returned once every contact has been tried and
// blacklisted with none yielding a usable connection.
var ErrExhausted = errors.New("bootstrap: all contacts exhausted")

// State is where a Client sits in the contact-cycling state machine.
type State int

const (
	// StateIdle means no contact attempt is in flight.
	StateIdle State = iota
	// StateConnecting means we are waiting on a response from the
	// current contact.
	StateConnecting
	// StateIdentified means the current contact answered and the client
	// should move on to the join handshake.
	StateIdentified
	// StateFailed means every contact was exhausted.
	StateFailed
)

// blacklistEntry records when a contact was blacklisted, so it can be
// retried after Cooldown elapses.
type blacklistEntry struct {
	at time.Time
}

// Config bounds a Client's retry behaviour.
type Config struct {
	// JoinTimeout bounds the whole bootstrap attempt across every
	// contact.
	JoinTimeout time.Duration
	// Cooldown is how long a contact stays blacklisted after a failure
	// or denial before it becomes eligible again.
	Cooldown time.Duration
}

// Client cycles through a list of contact addresses looking for one that
// will sponsor this node's join, the same blacklist-and-retry discipline
// maidsafe's Bootstrapping state used for its crust contacts, adapted here
// to plain addresses instead of a peer-discovery service.
type Client struct {
	cfg        Config
	log        log.Logger
	contacts   []string
	next       int
	blacklist  map[string]blacklistEntry
	state      State
	current    string
	deadline   time.Time
	now        func() time.Time
}

// NewClient builds a Client that will cycle through contacts in order.
func NewClient(contacts []string, cfg Config, logger log.Logger) *Client {
	if logger == nil {
		logger = mlog.NoOp()
	}
	return &Client{
		cfg:       cfg,
		log:       logger,
		contacts:  append([]string(nil), contacts...),
		blacklist: make(map[string]blacklistEntry),
		now:       time.Now,
	}
}

// Start begins the bootstrap attempt, arming JoinTimeout and selecting the
// first eligible contact.
func (c *Client) Start() (string, bool) {
	c.deadline = c.now().Add(c.cfg.JoinTimeout)
	return c.tryNext()
}

// tryNext advances to the next non-blacklisted contact, wrapping once
// around the list. It reports (addr, true) when a contact is selected, or
// ("", false) once every contact is blacklisted.
func (c *Client) tryNext() (string, bool) {
	for i := 0; i < len(c.contacts); i++ {
		idx := (c.next + i) % len(c.contacts)
		addr := c.contacts[idx]
		if c.isBlacklisted(addr) {
			continue
		}
		c.next = idx + 1
		c.current = addr
		c.state = StateConnecting
		return addr, true
	}
	c.state = StateFailed
	return "", false
}

func (c *Client) isBlacklisted(addr string) bool {
	entry, ok := c.blacklist[addr]
	if !ok {
		return false
	}
	if c.now().Sub(entry.at) >= c.cfg.Cooldown {
		delete(c.blacklist, addr)
		return false
	}
	return true
}

// Identified records that the current contact answered successfully and
// advances the state machine past bootstrapping.
func (c *Client) Identified() {
	c.state = StateIdentified
}

// Denied records that the current contact rejected us (BootstrapDeny in
// the handshake) or failed outright, blacklists it, and tries the next
// contact. It returns ErrExhausted once none remain or the join deadline
// has passed.
func (c *Client) Denied() (string, error) {
	if c.current != "" {
		c.blacklist[c.current] = blacklistEntry{at: c.now()}
		c.log.Debug("bootstrap: blacklisting contact", "address", c.current)
	}
	if c.now().After(c.deadline) {
		c.state = StateFailed
		return "", ErrExhausted
	}
	addr, ok := c.tryNext()
	if !ok {
		return "", ErrExhausted
	}
	return addr, nil
}

// State returns the client's current bootstrap state.
func (c *Client) State() State {
	return c.state
}
