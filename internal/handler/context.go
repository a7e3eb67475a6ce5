package handler

type ContextKey string

var (
	RoleCtxKey     ContextKey = "role"
	IdentityCtxKey ContextKey = "identity"
)
