// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wdcmon

// Logger is an optional logging interface for the engine. Key/value pairs
// follow the message, as in log/slog.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets a logger for protocol exchanges
func WithLogger(logger Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithStatistics makes the engine record exchanges into stats instead of
// a private tracker. Useful for sharing one tracker across reconnects.
func WithStatistics(stats *Statistics) Option {
	return func(e *Engine) {
		if stats != nil {
			e.stats = stats
		}
	}
}
