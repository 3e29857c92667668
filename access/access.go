// Package access provides the pluggable capability check gating every
// privileged ledger entry point.
package access

import (
	"sync"

	"github.com/faas-tech/space-markets-sub006/token"
)

// Role names a capability an actor may hold.
type Role string

const (
	// RoleAdmin may create asset types.
	RoleAdmin Role = "admin"

	// RoleRegistrar may register assets.
	RoleRegistrar Role = "registrar"

	// RoleSnapshot may take ownership-token snapshots.
	RoleSnapshot Role = "snapshot"

	// RoleDistributor may open revenue rounds.
	RoleDistributor Role = "distributor"
)

// Checker answers capability queries. Components hold a Checker, never a
// concrete registry, so deployments can swap the access-control facility.
type Checker interface {
	HasCapability(actor token.Address, role Role) bool
}

// Registry is the in-process Checker implementation.
type Registry struct {
	mu     sync.Mutex
	grants map[token.Address]map[Role]bool
}

// NewRegistry creates an empty capability registry.
func NewRegistry() *Registry {
	return &Registry{grants: make(map[token.Address]map[Role]bool)}
}

// Grant gives actor the role.
func (r *Registry) Grant(actor token.Address, role Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	roles, ok := r.grants[actor]
	if !ok {
		roles = make(map[Role]bool)
		r.grants[actor] = roles
	}
	roles[role] = true
}

// Revoke removes the role from actor.
func (r *Registry) Revoke(actor token.Address, role Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if roles, ok := r.grants[actor]; ok {
		delete(roles, role)
	}
}

// HasCapability reports whether actor holds the role.
func (r *Registry) HasCapability(actor token.Address, role Role) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.grants[actor][role]
}
