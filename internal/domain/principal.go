package domain

import (
	"context"
	"strings"
)

// Principal is the authenticated identity of a request.
// A Principal can only be obtained through NewPrincipal, so every field is
// populated whenever one exists.
type Principal struct {
	userID        int64
	walletAddress string
	roles         []string
}

func NewPrincipal(userID int64, walletAddress string, roles []string) (*Principal, error) {
	if walletAddress == "" || walletAddress == "null" {
		return nil, InvalidClaims("missing wallet address")
	}

	set := make([]string, 0, len(roles))
	seen := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		role = strings.TrimSpace(role)
		if role == "" {
			continue
		}
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		set = append(set, role)
	}
	if len(set) == 0 {
		return nil, InvalidClaims("missing role")
	}

	return &Principal{
		userID:        userID,
		walletAddress: walletAddress,
		roles:         set,
	}, nil
}

func (p *Principal) UserID() int64 {
	return p.userID
}

func (p *Principal) WalletAddress() string {
	return p.walletAddress
}

// Roles returns a copy of the granted authorities.
func (p *Principal) Roles() []string {
	out := make([]string, len(p.roles))
	copy(out, p.roles)
	return out
}

func (p *Principal) HasRole(role string) bool {
	for _, r := range p.roles {
		if r == role {
			return true
		}
	}
	return false
}

type principalCtxKey struct{}

func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalCtxKey{}).(*Principal)
	return p, ok && p != nil
}
