package kit

import "context"

// Endpoint is the fundamental request/response unit shared by all
// transports. HTTP handlers and MCP tools decode into a typed request,
// call the endpoint, and encode the response for their wire format.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware wraps an Endpoint with cross-cutting behavior.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares so the first argument is outermost:
// Chain(a, b, c)(ep) runs a's before, then b's, then c's, then ep.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
