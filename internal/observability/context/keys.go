package context

import "context"

type scopeKey struct{}

// Scope holds the identifiers a request acts on. Zero values are unknown.
type Scope struct {
	RequestID  string
	CustomerID int64
	InvoiceID  int64
	Format     string
}

// ScopeFrom returns the scope stored on ctx.
func ScopeFrom(ctx context.Context) Scope {
	if ctx == nil {
		return Scope{}
	}
	scope, _ := ctx.Value(scopeKey{}).(Scope)
	return scope
}

func update(ctx context.Context, apply func(*Scope)) context.Context {
	scope := ScopeFrom(ctx)
	apply(&scope)
	return context.WithValue(ctx, scopeKey{}, scope)
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil || requestID == "" {
		return ctx
	}
	return update(ctx, func(s *Scope) { s.RequestID = requestID })
}

// WithCustomerID records the customer an operation touches.
func WithCustomerID(ctx context.Context, customerID int64) context.Context {
	if ctx == nil || customerID <= 0 {
		return ctx
	}
	return update(ctx, func(s *Scope) { s.CustomerID = customerID })
}

func WithInvoiceID(ctx context.Context, invoiceID int64) context.Context {
	if ctx == nil || invoiceID <= 0 {
		return ctx
	}
	return update(ctx, func(s *Scope) { s.InvoiceID = invoiceID })
}

// WithFormat records the negotiated response representation.
func WithFormat(ctx context.Context, format string) context.Context {
	if ctx == nil || format == "" {
		return ctx
	}
	return update(ctx, func(s *Scope) { s.Format = format })
}
