package auth

import (
	"context"
	"errors"
	"fmt"

	"shoecare/internal/models"
)

var (
	// ErrUnauthenticated means the request carries no identity.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrUnauthorized means the identity is known but lacks the administrator role.
	ErrUnauthorized = errors.New("unauthorized")
)

// Kind distinguishes how a principal obtained its role.
type Kind int

const (
	KindOwner Kind = iota + 1
	KindAdmin
	KindSimulatedAdmin
)

func (k Kind) String() string {
	switch k {
	case KindOwner:
		return "owner"
	case KindAdmin:
		return "admin"
	case KindSimulatedAdmin:
		return "simulated_admin"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Identity is what the identity provider knows about the caller.
type Identity struct {
	UserID int64
	Email  string
}

// Principal is the acting user for one request. It is resolved once and passed
// explicitly to every operation that needs it.
type Principal struct {
	UserID int64
	Email  string
	Kind   Kind
}

// IsAdministrator reports whether the principal acts with administrator rights.
func (p *Principal) IsAdministrator() bool {
	return p != nil && (p.Kind == KindAdmin || p.Kind == KindSimulatedAdmin)
}

// UserLookup reads persisted users. It returns nil when the user does not exist.
type UserLookup interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// Resolver turns identities into principals.
type Resolver struct {
	users           UserLookup
	allowSimulation bool
}

// NewResolver builds a resolver. allowSimulation must be false in production.
func NewResolver(users UserLookup, allowSimulation bool) *Resolver {
	return &Resolver{users: users, allowSimulation: allowSimulation}
}

// SimulationAllowed reports whether the development admin override is honoured.
func (r *Resolver) SimulationAllowed() bool {
	return r.allowSimulation
}

// Resolve builds the principal for identity. When simulate is set and simulation is
// allowed the persisted admin flag is not consulted at all.
func (r *Resolver) Resolve(ctx context.Context, identity *Identity, simulate bool) (*Principal, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}

	p := &Principal{UserID: identity.UserID, Email: identity.Email, Kind: KindOwner}
	if simulate && r.allowSimulation {
		p.Kind = KindSimulatedAdmin
		return p, nil
	}

	user, err := r.users.GetUserByID(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("lookup user %d: %w", identity.UserID, err)
	}
	if user != nil && user.IsAdmin {
		p.Kind = KindAdmin
	}
	return p, nil
}

func (r *Resolver) IsAdministrator(ctx context.Context, identity *Identity, simulate bool) (bool, error) {
	p, err := r.Resolve(ctx, identity, simulate)
	if err != nil {
		return false, err
	}
	return p.IsAdministrator(), nil
}

// RequireAdministrator guards admin-only entry points.
func (r *Resolver) RequireAdministrator(ctx context.Context, identity *Identity, simulate bool) (*Principal, error) {
	p, err := r.Resolve(ctx, identity, simulate)
	if err != nil {
		return nil, err
	}
	if !p.IsAdministrator() {
		return nil, ErrUnauthorized
	}
	return p, nil
}

type contextKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// PrincipalFrom returns the principal stored by WithPrincipal, or nil.
func PrincipalFrom(ctx context.Context) *Principal {
	p, _ := ctx.Value(contextKey{}).(*Principal)
	return p
}
