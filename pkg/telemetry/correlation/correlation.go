package correlation

import (
	"context"
	"net/http"

	"github.com/oklog/ulid/v2"
)

// Header carries the correlation ID between the sync client and the API.
const Header = "X-Correlation-Id"

type correlationKey struct{}

// ExtractCorrelationID fetches a correlation ID from the context if present.
func ExtractCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if val, ok := ctx.Value(correlationKey{}).(string); ok {
		return val
	}
	return ""
}

// ContextWithCorrelationID sets the correlation ID onto the context.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

// EnsureCorrelationID guarantees a correlation ID on the context, generating one when missing.
func EnsureCorrelationID(ctx context.Context) (context.Context, string) {
	cid := ExtractCorrelationID(ctx)
	if cid == "" {
		cid = ulid.Make().String()
	}
	return ContextWithCorrelationID(ctx, cid), cid
}

// InjectHeader copies the context's correlation ID onto an outgoing request.
func InjectHeader(req *http.Request) {
	if req == nil {
		return
	}
	if cid := ExtractCorrelationID(req.Context()); cid != "" {
		req.Header.Set(Header, cid)
	}
}
