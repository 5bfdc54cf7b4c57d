// Package mail talks to the upstream mail provider's REST API and implements
// the batch.Invoker surface the orchestrator dispatches against.
package mail

import "context"

// TokenSource supplies bearer tokens for outgoing API calls. Implementations
// may refresh behind the scenes.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource always returns the same token. Suitable for service
// accounts with long-lived credentials and for tests.
type StaticTokenSource struct {
	token string
}

// NewStaticTokenSource wraps a fixed token.
func NewStaticTokenSource(token string) *StaticTokenSource {
	return &StaticTokenSource{token: token}
}

func (s *StaticTokenSource) Token(context.Context) (string, error) {
	return s.token, nil
}
