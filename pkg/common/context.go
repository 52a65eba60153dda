package common

import "context"

// ContextKey represents a context key type
type ContextKey string

// Context keys
const (
	ContextKeyAccountID   ContextKey = "account_id"
	ContextKeyRequestInfo ContextKey = "request_info"
)

// RequestInfo collects what inner handlers learn about a request so that
// outer middleware can report it after the handler chain returns
type RequestInfo struct {
	accountID string
}

// AccountID returns the authenticated account, empty for public routes
func (i *RequestInfo) AccountID() string {
	if i == nil {
		return ""
	}
	return i.accountID
}

// WithRequestInfo attaches an empty RequestInfo to the context
func WithRequestInfo(ctx context.Context) (context.Context, *RequestInfo) {
	info := &RequestInfo{}
	return context.WithValue(ctx, ContextKeyRequestInfo, info), info
}

// WithAccountID adds the calling account to context and records it on the
// request info, if any
func WithAccountID(ctx context.Context, accountID string) context.Context {
	if info, ok := ctx.Value(ContextKeyRequestInfo).(*RequestInfo); ok {
		info.accountID = accountID
	}
	return context.WithValue(ctx, ContextKeyAccountID, accountID)
}

// GetAccountID extracts the calling account from context
func GetAccountID(ctx context.Context) (string, bool) {
	accountID, ok := ctx.Value(ContextKeyAccountID).(string)
	return accountID, ok && accountID != ""
}
