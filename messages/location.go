// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package messages defines the wire-level message model exchanged between
// nodes: unsigned plain messages, the signed envelope carrying a proof
// chain and aggregated BLS signature, and the location types used to
// address them.
package messages

import (
	"fmt"

	"github.com/luxfi/mesh/xorname"
)

// LocationKind discriminates the variants of SrcLocation/DstLocation.
type LocationKind int

const (
	// LocationNode addresses a single node by XOR name.
	LocationNode LocationKind = iota
	// LocationSection addresses whichever section currently owns a name.
	LocationSection
	// LocationPrefix addresses a section directly by prefix.
	LocationPrefix
)

func (k LocationKind) String() string {
	switch k {
	case LocationNode:
		return "Node"
	case LocationSection:
		return "Section"
	case LocationPrefix:
		return "Prefix"
	default:
		return "Unknown"
	}
}

// Location is a source or destination address: a node, the section owning
// a name, or a section named directly by prefix.
type Location struct {
	Kind   LocationKind
	Name   xorname.Name
	Prefix xorname.Prefix
}

// Node returns a Location addressing the single node named name.
func Node(name xorname.Name) Location {
	return Location{Kind: LocationNode, Name: name}
}

// Section returns a Location addressing the section currently responsible
// for name.
func Section(name xorname.Name) Location {
	return Location{Kind: LocationSection, Name: name}
}

// SectionPrefix returns a Location addressing a section directly by
// prefix.
func SectionPrefix(p xorname.Prefix) Location {
	return Location{Kind: LocationPrefix, Prefix: p}
}

// String renders a Location for logging.
func (l Location) String() string {
	switch l.Kind {
	case LocationNode:
		return fmt.Sprintf("Node(%s)", l.Name)
	case LocationSection:
		return fmt.Sprintf("Section(%s)", l.Name)
	case LocationPrefix:
		return fmt.Sprintf("Prefix(%s)", l.Prefix)
	default:
		return "Location(?)"
	}
}
