package auth

import "context"

type ownerCtxKey struct{}

// ContextWithOwner stores the authenticated owner identity in ctx.
func ContextWithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerCtxKey{}, owner)
}

func OwnerFromContext(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(ownerCtxKey{}).(string)
	return owner, ok && owner != ""
}
