package auth

import (
	"context"
	"log/slog"
	"net/http"
)

type ctxKey string

const ContextPrincipalKey ctxKey = "principal"

// Principal is the resolved identity of the caller, built entirely from
// verified access-token claims. No storage lookup happens on the hot path.
type Principal struct {
	ID       int64
	Username string
	Role     Role
}

func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(ContextPrincipalKey).(*Principal)
	return p, ok
}

func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ContextPrincipalKey, p)
}

// OwnershipResolver reports whether the calling principal owns the resource
// under authorization. Each resource defines ownership its own way: an
// article's owner is its author, a user resource's owner is the user itself.
type OwnershipResolver func() (bool, error)

// Authorize is the central two-tier permission check:
//
//  1. direct grant of the required permission allows;
//  2. for an :any-scoped permission, a grant of the :own variant combined
//     with a positive ownership resolution allows;
//  3. everything else denies.
//
// Deny is a terminal decision, not an error; the error return carries only
// resolver failures (e.g. a storage error while looking up the owner).
func Authorize(role Role, required Permission, isOwner OwnershipResolver) (bool, error) {
	if HasPermission(role, required) {
		return true, nil
	}

	ownPerm, hasOwnVariant := required.OwnVariant()
	if hasOwnVariant && HasPermission(role, ownPerm) && isOwner != nil {
		owner, err := isOwner()
		if err != nil {
			return false, err
		}
		if owner {
			return true, nil
		}
	}

	return false, nil
}

// Authorizer provides permission middleware for the router. Ownership-aware
// checks live in the services, which already hold the resource; the
// middleware covers permissions that need no resource context.
type Authorizer struct {
	logger *slog.Logger
}

func NewAuthorizer(logger *slog.Logger) *Authorizer {
	return &Authorizer{logger: logger}
}

func (a *Authorizer) RequirePermission(permission Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok || principal == nil {
				writeJSONError(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			if !HasPermission(principal.Role, permission) {
				a.logger.WarnContext(r.Context(), "access denied: insufficient permissions",
					"user_id", principal.ID,
					"role", principal.Role,
					"required_permission", permission)
				writeJSONError(w, http.StatusForbidden, "Access denied")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"success":false,"message":"` + message + `"}`))
}
