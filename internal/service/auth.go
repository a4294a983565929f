package service

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/lsiproject/propertyhub/internal/domain"
	"github.com/lsiproject/propertyhub/internal/telemetry"
	"github.com/lsiproject/propertyhub/jwt"
)

var tracer = otel.Tracer("auth")

const rolePrefix = "ROLE_"

type AuthConfig struct {
	// TrustUpstreamSignature acknowledges that the gateway verified the
	// token signature. AuthService refuses to run without it.
	TrustUpstreamSignature bool
	Policy                 domain.ClaimPolicy
}

// AuthService turns a bearer token into a Principal. It parses and validates
// claims only; it never checks the signature.
type AuthService struct {
	config  AuthConfig
	metrics *telemetry.Metrics
}

func NewAuthService(config AuthConfig, metrics *telemetry.Metrics) (*AuthService, error) {
	if !config.TrustUpstreamSignature {
		return nil, domain.ErrUntrustedChannel
	}
	return &AuthService{
		config:  config,
		metrics: metrics,
	}, nil
}

func (s *AuthService) Policy() domain.ClaimPolicy {
	return s.config.Policy
}

// ExtractPrincipal returns a Principal or a *domain.AuthError whose reason is
// domain.ErrMalformedToken or domain.ErrInvalidClaims.
func (s *AuthService) ExtractPrincipal(ctx context.Context, token string) (*domain.Principal, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.ExtractPrincipal")
	defer span.End()

	principal, err := s.extract(token)
	if err != nil {
		reason := domain.RejectionReason(err)
		span.RecordError(err)
		span.SetAttributes(attribute.String("RejectionReason", reason))
		s.metrics.AuthRejected(reason)
		slog.DebugContext(
			ctx, "token rejected",
			slog.String("reason", reason),
			slog.String("error", err.Error()),
			slog.String("module", "auth"),
		)
		return nil, err
	}

	span.SetAttributes(attribute.Int64("RequesterId", principal.UserID()))
	return principal, nil
}

func (s *AuthService) extract(token string) (principal *domain.Principal, err error) {
	defer func() {
		if r := recover(); r != nil {
			principal = nil
			err = domain.InvalidClaims("claim coercion failed: %v", r)
		}
	}()

	claims, err := jwt.Decode(token)
	if err != nil {
		return nil, err
	}

	switch s.config.Policy {
	case domain.PolicyLenient:
		return lenientPrincipal(claims)
	default:
		return strictPrincipal(claims)
	}
}

// strictPrincipal reads sub|wallet, id and a single role.
func strictPrincipal(claims jwt.Claims) (*domain.Principal, error) {
	wallet, err := resolveWallet(claims, "wallet")
	if err != nil {
		return nil, err
	}

	userID, err := claims.Int64("id")
	if err != nil {
		return nil, domain.InvalidClaims("%v", err)
	}

	raw, ok := claims.Lookup("role")
	if !ok {
		return nil, domain.InvalidClaims("missing role")
	}
	role, ok := raw.(string)
	if !ok {
		return nil, domain.InvalidClaims("role must be a string")
	}
	if strings.TrimSpace(role) == "" {
		return nil, domain.InvalidClaims("missing role")
	}

	return domain.NewPrincipal(userID, wallet, []string{normalizeRole(role)})
}

// lenientPrincipal reads sub|walletAddress, userId and a roles list.
func lenientPrincipal(claims jwt.Claims) (*domain.Principal, error) {
	wallet, err := resolveWallet(claims, "walletAddress")
	if err != nil {
		return nil, err
	}

	userID, err := claims.Int64("userId")
	if err != nil {
		return nil, domain.InvalidClaims("%v", err)
	}

	raw, err := claims.StringList("roles")
	if err != nil {
		return nil, domain.InvalidClaims("%v", err)
	}
	roles := make([]string, 0, len(raw))
	for _, role := range raw {
		roles = append(roles, normalizeRole(role))
	}

	return domain.NewPrincipal(userID, wallet, roles)
}

func resolveWallet(claims jwt.Claims, fallback string) (string, error) {
	wallet, ok := claims.String("sub")
	if !ok {
		wallet, ok = claims.String(fallback)
	}
	if !ok || wallet == "" || wallet == "null" {
		return "", domain.InvalidClaims("missing wallet address")
	}
	return wallet, nil
}

// normalizeRole strips one leading ROLE_ so authorities are not double-prefixed.
func normalizeRole(role string) string {
	role = strings.TrimSpace(role)
	return strings.TrimPrefix(role, rolePrefix)
}
