package logging

import (
	"context"
	"strings"
)

// ContextSeparator joins nested context labels.
const ContextSeparator = " → "

type stackKey struct{ _ byte }

// ContextStack tracks human-readable scope names on a context.Context. Each
// stack owns a private key, so two stacks never observe each other's frames
// and each goroutine sees only the scopes carried by its own context.
type ContextStack struct {
	key *stackKey
}

// Token restores the context that was active before a Push.
type Token struct {
	prev context.Context
}

// NewContextStack returns an empty stack.
func NewContextStack() *ContextStack {
	return &ContextStack{key: new(stackKey)}
}

// Push returns a context with name appended to the active scopes.
func (s *ContextStack) Push(ctx context.Context, name string) (context.Context, Token) {
	if ctx == nil {
		ctx = context.Background()
	}
	prev := s.Frames(ctx)
	next := make([]string, len(prev), len(prev)+1)
	copy(next, prev)
	next = append(next, name)
	return context.WithValue(ctx, s.key, next), Token{prev: ctx}
}

// Pop returns the snapshot captured by Push, discarding any scopes pushed
// after it whether or not they were popped.
func (s *ContextStack) Pop(tok Token) context.Context {
	if tok.prev == nil {
		return context.Background()
	}
	return tok.prev
}

// Frames returns the active scope names outermost first.
func (s *ContextStack) Frames(ctx context.Context) []string {
	if s == nil || ctx == nil {
		return nil
	}
	frames, _ := ctx.Value(s.key).([]string)
	return frames
}

// Current renders the active scopes, or "" when none are open.
func (s *ContextStack) Current(ctx context.Context) string {
	return strings.Join(s.Frames(ctx), ContextSeparator)
}

// Scope runs fn with name pushed. The caller's context is never modified,
// so returning early, failing, or panicking inside fn leaves it as it was.
func (s *ContextStack) Scope(ctx context.Context, name string, fn func(context.Context) error) error {
	inner, _ := s.Push(ctx, name)
	return fn(inner)
}
