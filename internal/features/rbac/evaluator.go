package rbac

import (
	"context"
	"sync"

	common_models "go-lpm/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Cache memoizes a principal's role names and permission codes for the
// lifetime of one request. It is created by the auth middleware, travels in
// the request context, and must be invalidated by any operation that changes
// role membership before permissions are read again.
type Cache struct {
	mu    sync.Mutex
	names map[primitive.ObjectID]map[string]struct{}
	codes map[primitive.ObjectID]map[string]struct{}
}

func NewCache() *Cache {
	return &Cache{
		names: make(map[primitive.ObjectID]map[string]struct{}),
		codes: make(map[primitive.ObjectID]map[string]struct{}),
	}
}

// Invalidate drops the memoized sets for one user.
func (c *Cache) Invalidate(userID primitive.ObjectID) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.names, userID)
	delete(c.codes, userID)
	c.mu.Unlock()
}

func (c *Cache) get(m map[primitive.ObjectID]map[string]struct{}, userID primitive.ObjectID) (map[string]struct{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := m[userID]
	return v, ok
}

func (c *Cache) put(m map[primitive.ObjectID]map[string]struct{}, userID primitive.ObjectID, v map[string]struct{}) {
	c.mu.Lock()
	m[userID] = v
	c.mu.Unlock()
}

// CacheFrom extracts the request cache, or nil when none is attached
// (evaluation then hits the store every time).
func CacheFrom(ctx context.Context) *Cache {
	cache, _ := ctx.Value(common_models.PermCacheKey).(*Cache)
	return cache
}

// ContextWithCache attaches a per-request cache.
func ContextWithCache(ctx context.Context, cache *Cache) context.Context {
	return context.WithValue(ctx, common_models.PermCacheKey, cache)
}

// PrincipalFrom extracts the request principal; a missing principal resolves
// to the unauthenticated zero value.
func PrincipalFrom(ctx context.Context) Principal {
	principal, _ := ctx.Value(common_models.PrincipalKey).(Principal)
	return principal
}

// Evaluator resolves a principal's permission set from role membership and
// answers permission questions. It is stateless; memoization lives in the
// per-request Cache.
type Evaluator struct {
	roles RoleSource
}

func NewEvaluator(roles RoleSource) *Evaluator {
	return &Evaluator{roles: roles}
}

// resolve fetches the principal's roles once and builds the name and code
// sets, populating the request cache when one is attached.
func (e *Evaluator) resolve(ctx context.Context, principal Principal) (names, codes map[string]struct{}, err error) {
	roles, err := e.roles.RolesForUser(ctx, principal.OrganizationID, principal.UserID)
	if err != nil {
		return nil, nil, err
	}
	names = make(map[string]struct{}, len(roles))
	codes = make(map[string]struct{})
	for _, role := range roles {
		names[role.Name] = struct{}{}
		for _, code := range role.PermissionCodes {
			codes[code] = struct{}{}
		}
	}
	if cache := CacheFrom(ctx); cache != nil {
		cache.put(cache.names, principal.UserID, names)
		cache.put(cache.codes, principal.UserID, codes)
	}
	return names, codes, nil
}

// RoleNames returns the set of role names the principal holds.
// Unauthenticated or role-less principals resolve to an empty set.
func (e *Evaluator) RoleNames(ctx context.Context, principal Principal) (map[string]struct{}, error) {
	if !principal.Authenticated {
		return map[string]struct{}{}, nil
	}
	if cache := CacheFrom(ctx); cache != nil {
		if names, ok := cache.get(cache.names, principal.UserID); ok {
			return names, nil
		}
	}
	names, _, err := e.resolve(ctx, principal)
	return names, err
}

// PermissionCodes returns the union of permission codes across all roles the
// principal holds.
func (e *Evaluator) PermissionCodes(ctx context.Context, principal Principal) (map[string]struct{}, error) {
	if !principal.Authenticated {
		return map[string]struct{}{}, nil
	}
	if cache := CacheFrom(ctx); cache != nil {
		if codes, ok := cache.get(cache.codes, principal.UserID); ok {
			return codes, nil
		}
	}
	_, codes, err := e.resolve(ctx, principal)
	return codes, err
}

// HasPermission reports whether the principal holds the code. An empty code
// is vacuously true.
func (e *Evaluator) HasPermission(ctx context.Context, principal Principal, code string) (bool, error) {
	if code == "" {
		return true, nil
	}
	codes, err := e.PermissionCodes(ctx, principal)
	if err != nil {
		return false, err
	}
	_, ok := codes[code]
	return ok, nil
}

// HasAll reports whether the principal holds every listed code. An empty
// requirement set is vacuously true.
func (e *Evaluator) HasAll(ctx context.Context, principal Principal, required []string) (bool, error) {
	filtered := nonEmpty(required)
	if len(filtered) == 0 {
		return true, nil
	}
	codes, err := e.PermissionCodes(ctx, principal)
	if err != nil {
		return false, err
	}
	for _, code := range filtered {
		if _, ok := codes[code]; !ok {
			return false, nil
		}
	}
	return true, nil
}

// HasAny reports whether the principal holds at least one listed code. An
// empty requirement set is vacuously true.
func (e *Evaluator) HasAny(ctx context.Context, principal Principal, options []string) (bool, error) {
	filtered := nonEmpty(options)
	if len(filtered) == 0 {
		return true, nil
	}
	codes, err := e.PermissionCodes(ctx, principal)
	if err != nil {
		return false, err
	}
	for _, code := range filtered {
		if _, ok := codes[code]; ok {
			return true, nil
		}
	}
	return false, nil
}

// IsClientUser reports whether the principal holds the Client role.
func (e *Evaluator) IsClientUser(ctx context.Context, principal Principal) (bool, error) {
	if !principal.Authenticated {
		return false, nil
	}
	names, err := e.RoleNames(ctx, principal)
	if err != nil {
		return false, err
	}
	_, ok := names[RoleClient]
	return ok, nil
}

func nonEmpty(codes []string) []string {
	filtered := codes[:0:0]
	for _, code := range codes {
		if code != "" {
			filtered = append(filtered, code)
		}
	}
	return filtered
}
