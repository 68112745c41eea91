// Package grant expands requested permission ids into their inheritance
// closure and applies each permission's access-control mutation. Ancestors
// are always applied before the permissions that inherit from them, so a
// more specific permission's policy at an address overrides the broader one
// it inherited: last write wins on the ACL map.
//
// Unknown ids are logged and reported but never abort the run, and an
// individual grant failing only skips that grant. The ACL map ends up with
// exactly the grants that succeeded.
package grant

import (
	"log/slog"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/delaneyj/hostparty/rpc"
)

// Context carries what a grant mutation needs to know about the consumer
// being admitted: who they are and the address their entry point lives at.
type Context struct {
	Caller     rpc.Address
	EntryPoint rpc.Address
}

// GrantFunc mutates the ACL map for one permission. A returned error marks
// this grant as failed without affecting the rest of the closure.
type GrantFunc func(acl rpc.ACLMap, ctx *Context) error

// Permission ties an id to the ids it inherits from and the ACL mutation it
// carries.
type Permission struct {
	ID       string
	Inherits []string
	Grant    GrantFunc
}

// Table maps permission ids to their definitions.
type Table map[string]Permission

// Apply grants the closure of the requested permission ids onto acl.
// Each permission is granted at most once, no matter how many requested ids
// reach it (diamonds, repeats, cycles). The returned slice lists every
// unknown id encountered, in encounter order.
func Apply(requested []string, table Table, acl rpc.ACLMap, ctx *Context, log *slog.Logger) (unknown []string) {
	granted := mapset.NewSet[string]()
	for _, id := range requested {
		unknown = applyOne(id, table, acl, ctx, log, granted, unknown)
	}
	return unknown
}

func applyOne(id string, table Table, acl rpc.ACLMap, ctx *Context, log *slog.Logger, granted mapset.Set[string], unknown []string) []string {
	p, ok := table[id]
	if !ok {
		log.Warn("unknown permission requested", "permission", id)
		return append(unknown, id)
	}
	if granted.Contains(id) {
		return unknown
	}
	// Mark before recursing: an inheritance cycle terminates here instead
	// of looping.
	granted.Add(id)
	for _, parent := range p.Inherits {
		unknown = applyOne(parent, table, acl, ctx, log, granted, unknown)
	}
	if p.Grant != nil {
		if err := p.Grant(acl, ctx); err != nil {
			log.Error("permission grant failed", "permission", id, "error", err)
		}
	}
	return unknown
}

// ClosureInfo describes a permission closure without applying it: the
// inheritance edges of every known permission reached, and the unknown ids
// encountered (deduplicated, in encounter order).
type ClosureInfo struct {
	Inherited map[string][]string
	Unknown   []string
}

// ResolveClosure walks the same traversal as Apply but only collects
// information, mutating no ACL state. Hosts use it to describe to a caller
// what a permission request would entail.
func ResolveClosure(requested []string, table Table) ClosureInfo {
	info := ClosureInfo{Inherited: map[string][]string{}}
	seen := mapset.NewSet[string]()
	unknown := mapset.NewSet[string]()

	var walk func(id string)
	walk = func(id string) {
		p, ok := table[id]
		if !ok {
			if !unknown.Contains(id) {
				unknown.Add(id)
				info.Unknown = append(info.Unknown, id)
			}
			return
		}
		if seen.Contains(id) {
			return
		}
		seen.Add(id)
		info.Inherited[id] = append([]string(nil), p.Inherits...)
		for _, parent := range p.Inherits {
			walk(parent)
		}
	}
	for _, id := range requested {
		walk(id)
	}
	return info
}
