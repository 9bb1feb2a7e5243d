package tag

import "context"

type contextKey struct{}

// NewContext returns a copy of ctx carrying t.
func NewContext(ctx context.Context, t *Tag) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

// FromContext returns the Tag carried by ctx, if any. Handlers running
// outside the tagging middleware see ok == false.
func FromContext(ctx context.Context) (*Tag, bool) {
	t, ok := ctx.Value(contextKey{}).(*Tag)
	return t, ok
}
