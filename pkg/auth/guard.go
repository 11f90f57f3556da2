package auth

import (
	"context"
	"strings"

	"fahrerexpress/pkg/apperrors"
	"fahrerexpress/pkg/logger"
	"fahrerexpress/pkg/models"
	"fahrerexpress/storage"
)

// Guard gates privileged operations to holders of the admin role. It keeps
// no state between calls: role membership and token validity are checked on
// every request.
type Guard struct {
	identities IdentityProvider
	roles      storage.IRoleStorage
	log        logger.ILogger
}

func NewGuard(identities IdentityProvider, roles storage.IRoleStorage, log logger.ILogger) *Guard {
	return &Guard{identities: identities, roles: roles, log: log}
}

// Authorize checks an Authorization header value and returns the admin
// identity behind it.
func (g *Guard) Authorize(ctx context.Context, authorization string) (*models.Identity, error) {
	token, ok := bearerToken(authorization)
	if !ok {
		return nil, apperrors.Unauthorized("missing or malformed authorization header")
	}

	identity, err := g.identities.Verify(ctx, token)
	if err != nil {
		g.log.Info("rejected bearer token", logger.Error(err))
		return nil, apperrors.Unauthorized("invalid or expired token")
	}

	isAdmin, err := g.roles.HasRole(ctx, identity.UserID, models.RoleAdmin)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if !isAdmin {
		g.log.Warning("non-admin called privileged endpoint", logger.String("user_id", identity.UserID))
		return nil, apperrors.Forbidden("admin role required")
	}
	return identity, nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.Count(token, ".") != 2 {
		return "", false
	}
	return token, true
}
