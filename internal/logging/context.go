package logging

import (
	"context"
	"strings"
)

// MainThread is the thread name assumed when a context carries none.
const MainThread = "main"

type threadKey struct{}

// WithThread names the logical thread of execution carried by ctx. The name
// is rendered as [T:name] on every record logged with the returned context.
func WithThread(ctx context.Context, name string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, threadKey{}, strings.TrimSpace(name))
}

// ThreadName returns the thread name carried by ctx, defaulting to MainThread.
func ThreadName(ctx context.Context) string {
	if ctx != nil {
		if name, ok := ctx.Value(threadKey{}).(string); ok && name != "" {
			return name
		}
	}
	return MainThread
}
