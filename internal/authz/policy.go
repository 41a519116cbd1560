// Package authz answers whether an acting role may change an entity's status.
package authz

import (
	"sort"
	"strings"
	"sync"

	"github.com/vaidashi/catering-api/internal/models"
)

// Roles known to the back office
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleStaff   = "staff"
	RoleClient  = "client"
)

// Permission is a resource:action string
type Permission string

const (
	PermOrdersUpdateStatus       Permission = "orders:update_status"
	PermQuotesUpdateStatus       Permission = "quotes:update_status"
	PermReservationsUpdateStatus Permission = "reservations:update_status"
	PermFinancesRecord           Permission = "finances:record"
	PermAuditRead                Permission = "audit:read"
)

// PermissionFor returns the permission needed to mutate kind
func PermissionFor(kind models.EntityKind) (Permission, bool) {
	switch kind {
	case models.KindOrder:
		return PermOrdersUpdateStatus, true
	case models.KindQuote:
		return PermQuotesUpdateStatus, true
	case models.KindReservation:
		return PermReservationsUpdateStatus, true
	case models.KindTransaction:
		return PermFinancesRecord, true
	default:
		return "", false
	}
}

// Policy maps roles to their granted permissions. It is safe for concurrent use and can
// be replaced wholesale by a refresher.
type Policy struct {
	mu     sync.RWMutex
	grants map[string]map[Permission]bool
}

// NewPolicy creates a policy from role -> permissions
func NewPolicy(grants map[string][]Permission) *Policy {
	p := &Policy{}
	p.set(grants)
	return p
}

// DefaultPolicy is used until, or instead of, a remote policy
func DefaultPolicy() *Policy {
	all := []Permission{
		PermOrdersUpdateStatus,
		PermQuotesUpdateStatus,
		PermReservationsUpdateStatus,
		PermFinancesRecord,
		PermAuditRead,
	}

	return NewPolicy(map[string][]Permission{
		RoleAdmin:   all,
		RoleManager: all,
		RoleStaff:   {PermOrdersUpdateStatus, PermReservationsUpdateStatus},
		RoleClient:  nil,
	})
}

func (p *Policy) set(grants map[string][]Permission) {
	next := make(map[string]map[Permission]bool, len(grants))

	for role, perms := range grants {
		set := make(map[Permission]bool, len(perms))
		for _, perm := range perms {
			set[perm] = true
		}
		next[normalize(role)] = set
	}

	p.mu.Lock()
	p.grants = next
	p.mu.Unlock()
}

// ReplaceFromDefinitions swaps in the grants described by the identity service
func (p *Policy) ReplaceFromDefinitions(defs []models.RoleDefinition) {
	grants := make(map[string][]Permission, len(defs))

	for _, def := range defs {
		perms := make([]Permission, 0, len(def.Permissions))
		for _, ref := range def.Permissions {
			perms = append(perms, Permission(strings.TrimSpace(ref.Name)))
		}
		grants[def.Name] = perms
	}

	p.set(grants)
}

// Can reports whether role holds perm. Unknown roles hold nothing.
func (p *Policy) Can(role string, perm Permission) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.grants[normalize(role)][perm]
}

// CanMutate reports whether role may change the status of kind
func (p *Policy) CanMutate(role string, kind models.EntityKind) bool {
	perm, ok := PermissionFor(kind)

	if !ok {
		return false
	}

	return p.Can(role, perm)
}

// Snapshot returns the grant table with sorted permission lists
func (p *Policy) Snapshot() map[string][]Permission {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[string][]Permission, len(p.grants))
	for role, set := range p.grants {
		perms := make([]Permission, 0, len(set))
		for perm := range set {
			perms = append(perms, perm)
		}
		sort.Slice(perms, func(i, j int) bool { return perms[i] < perms[j] })
		out[role] = perms
	}

	return out
}

func normalize(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
