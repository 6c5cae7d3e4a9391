package compiler

import "log/slog"

// CompilerBuilderOption is a functional option for configuring a Compiler during construction.
type CompilerBuilderOption func(*compiler)

// WithLogger is an option builder that sets the logger used for compile summaries.
//
// Parameters:
//   - logger: the structured logger; nil keeps the default discard logger
//
// Returns:
//   - CompilerBuilderOption: a function that applies the logger option to a compiler
func WithLogger(logger *slog.Logger) CompilerBuilderOption {
	return func(c *compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}
