package auth

import "context"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleBoss     Role = "boss"
	RoleEmployee Role = "employee"
)

// Caller is the authenticated principal behind a request.
type Caller struct {
	UserID uint
	Role   Role
}

// CanManageOrders gates order edits, order deletes and manual stock changes.
func (c Caller) CanManageOrders() bool {
	return c.Role == RoleAdmin || c.Role == RoleBoss
}

type ctxKey struct{}

func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

func CallerFrom(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(ctxKey{}).(Caller)
	return c, ok
}
