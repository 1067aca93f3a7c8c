package auth

import "strings"

// Role is the closed set of principal roles. There is no implicit hierarchy:
// what a role can do is exactly what the grant table below enumerates.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleEditor Role = "EDITOR"
	RoleAuthor Role = "AUTHOR"
	RoleReader Role = "READER"
)

// ParseRole maps a string to a known role. Unknown input yields ok=false.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(s)) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleEditor:
		return RoleEditor, true
	case RoleAuthor:
		return RoleAuthor, true
	case RoleReader:
		return RoleReader, true
	}
	return "", false
}

// Permission is an opaque string of the shape resource:action[:scope] where
// scope is "any" (regardless of ownership) or "own" (only owned resources).
type Permission string

const (
	PermArticleCreate    Permission = "article:create"
	PermArticleReadAny   Permission = "article:read:any"
	PermArticleReadOwn   Permission = "article:read:own"
	PermArticleUpdateAny Permission = "article:update:any"
	PermArticleUpdateOwn Permission = "article:update:own"
	PermArticleDeleteAny Permission = "article:delete:any"
	PermArticleDeleteOwn Permission = "article:delete:own"

	PermCommentCreate    Permission = "comment:create"
	PermCommentUpdateAny Permission = "comment:update:any"
	PermCommentUpdateOwn Permission = "comment:update:own"
	PermCommentDeleteAny Permission = "comment:delete:any"
	PermCommentDeleteOwn Permission = "comment:delete:own"

	PermNotificationRead Permission = "notification:read"

	PermUserReadAny   Permission = "user:read:any"
	PermUserUpdateAny Permission = "user:update:any"
	PermUserDeleteAny Permission = "user:delete:any"
)

const (
	scopeAnySuffix = ":any"
	scopeOwnSuffix = ":own"
)

// OwnVariant returns the :own counterpart of an :any-scoped permission.
// Permissions without an :any scope have no ownership fallback.
func (p Permission) OwnVariant() (Permission, bool) {
	s := string(p)
	if !strings.HasSuffix(s, scopeAnySuffix) {
		return "", false
	}
	return Permission(strings.TrimSuffix(s, scopeAnySuffix) + scopeOwnSuffix), true
}

// rolePermissions is the static grant table. ADMIN holding every permission
// is a data fact, not an inheritance rule.
var rolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermArticleCreate, PermArticleReadAny, PermArticleReadOwn,
		PermArticleUpdateAny, PermArticleUpdateOwn,
		PermArticleDeleteAny, PermArticleDeleteOwn,
		PermCommentCreate, PermCommentUpdateAny, PermCommentUpdateOwn,
		PermCommentDeleteAny, PermCommentDeleteOwn,
		PermNotificationRead,
		PermUserReadAny, PermUserUpdateAny, PermUserDeleteAny,
	},
	RoleEditor: {
		PermArticleCreate, PermArticleReadAny, PermArticleUpdateAny,
		PermCommentCreate, PermCommentUpdateAny,
		PermNotificationRead,
		PermUserReadAny,
	},
	RoleAuthor: {
		PermArticleCreate, PermArticleReadAny, PermArticleReadOwn,
		PermArticleUpdateOwn,
		PermCommentCreate, PermCommentUpdateOwn, PermCommentDeleteOwn,
		PermNotificationRead,
	},
	RoleReader: {
		PermArticleReadAny,
		PermCommentCreate, PermCommentUpdateOwn, PermCommentDeleteOwn,
		PermNotificationRead,
	},
}

// grantIndex is built once at init and read-only afterwards, so concurrent
// lookups need no synchronization.
var grantIndex map[Role]map[Permission]struct{}

func init() {
	grantIndex = make(map[Role]map[Permission]struct{}, len(rolePermissions))
	for role, perms := range rolePermissions {
		set := make(map[Permission]struct{}, len(perms))
		for _, p := range perms {
			set[p] = struct{}{}
		}
		grantIndex[role] = set
	}
}

// HasPermission reports whether the role is granted the permission. Unknown
// roles hold nothing.
func HasPermission(role Role, permission Permission) bool {
	set, ok := grantIndex[role]
	if !ok {
		return false
	}
	_, granted := set[permission]
	return granted
}

// PermissionsForRole returns a copy of the role's grant set.
func PermissionsForRole(role Role) []Permission {
	perms := rolePermissions[role]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}
