package session

import "context"

type ctxKey struct{}

func WithEntry(ctx context.Context, e Entry) context.Context {
	return context.WithValue(ctx, ctxKey{}, e)
}

func FromContext(ctx context.Context) (Entry, bool) {
	e, ok := ctx.Value(ctxKey{}).(Entry)
	return e, ok
}
