package logger

import "context"

// RetryableHTTPLogger routes go-retryablehttp log calls into the package logger.
// It satisfies retryablehttp.LeveledLogger.
type RetryableHTTPLogger struct {
	ctx context.Context //nolint:containedctx // The retry client has no way to pass a context to its logger.
}

// NewRetryableHTTPLogger creates a RetryableHTTPLogger bound to ctx.
func NewRetryableHTTPLogger(ctx context.Context) *RetryableHTTPLogger {
	return &RetryableHTTPLogger{ctx: ctx}
}

// Error logs a message at error level.
func (l *RetryableHTTPLogger) Error(msg string, keysAndValues ...any) {
	ErrorKV(l.ctx, msg, keysAndValues...)
}

// Info logs a message at debug level; retry chatter is noise at info.
func (l *RetryableHTTPLogger) Info(msg string, keysAndValues ...any) {
	DebugKV(l.ctx, msg, keysAndValues...)
}

// Debug logs a message at debug level.
func (l *RetryableHTTPLogger) Debug(msg string, keysAndValues ...any) {
	DebugKV(l.ctx, msg, keysAndValues...)
}

// Warn logs a message at warn level.
func (l *RetryableHTTPLogger) Warn(msg string, keysAndValues ...any) {
	WarnKV(l.ctx, msg, keysAndValues...)
}
