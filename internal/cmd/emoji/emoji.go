// Package emoji provides the status symbols used in CLI output.
package emoji

const (
	// Success marks a completed operation.
	Success = "✓"
	// Error marks a failed operation.
	Error = "✗"
	// Stop marks a shutdown.
	Stop = "■"
	// Warning marks a partial result.
	Warning = "!"
	// Pending marks an operation that was not started because another is
	// in progress.
	Pending = "…"
)
