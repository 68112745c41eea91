// Package rpc holds the narrow surface shared with the RPC channel layer:
// hierarchical addresses, access-control policies, and the handler registry
// that activated services publish their tagged methods into.
//
// The channel layer itself (wire encoding, transport, routing) lives outside
// this module. Everything here is either an interface the host consumes or a
// small in-memory implementation used by tests and the demo command.
package rpc

import (
	"strings"
	"sync"
)

// Address is a hierarchical identifier: an ordered sequence of segments used
// both as a service id and as an ACL-map key. Equality is positional.
type Address []string

// Addr builds an Address from its segments.
func Addr(segments ...string) Address {
	return Address(segments)
}

// Equal reports whether two addresses have the same segments in the same
// order.
func (a Address) Equal(b Address) bool {
	if len(a) != len(b) {
		return false
	}
	for i, segment := range a {
		if segment != b[i] {
			return false
		}
	}
	return true
}

// String joins the segments with "/".
func (a Address) String() string {
	return strings.Join(a, "/")
}

// Policy is the access decision stored at an address.
type Policy int

const (
	Allow Policy = iota
	Deny
)

func (p Policy) String() string {
	switch p {
	case Allow:
		return "ALLOW"
	case Deny:
		return "DENY"
	default:
		return "UNKNOWN"
	}
}

// ACLMap is the access-control surface permission grants mutate. The last
// Put at a given address wins.
type ACLMap interface {
	Put(addr Address, policy Policy)
}

// HandlerRegistry receives each service instance once, on construction, so
// the channel layer can discover its tagged RPC methods.
type HandlerRegistry interface {
	RegisterAll(handlers any) error
}

// AddressMap is the in-memory ACLMap used by tests and the demo command.
// Policies are keyed by the address's joined form; a later Put at the same
// address overwrites the earlier one.
type AddressMap struct {
	mu       sync.Mutex
	policies map[string]Policy
}

func NewAddressMap() *AddressMap {
	return &AddressMap{policies: map[string]Policy{}}
}

func (m *AddressMap) Put(addr Address, policy Policy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.policies[addr.String()] = policy
}

// Get returns the policy stored at addr, if any.
func (m *AddressMap) Get(addr Address) (Policy, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	policy, ok := m.policies[addr.String()]
	return policy, ok
}

// Len returns the number of addresses with a stored policy.
func (m *AddressMap) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.policies)
}

// NopHandlers is a HandlerRegistry that accepts everything. Hosts without a
// live channel layer (tests, the demo command) wire this in.
type NopHandlers struct{}

func (NopHandlers) RegisterAll(handlers any) error { return nil }
