// Package application defines what pricemap commands need from the
// running application.
//
// Commands accept the Application interface rather than the concrete App
// type, so tests can inject a Mock:
//
//	mock := &application.Mock{
//	    ClientFunc: func() (pricemap.Client, error) {
//	        return testClient, nil
//	    },
//	}
//	cmd := list.NewCommand(mock)
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/pricemap"
	"github.com/agentstation/pricemap/internal/history"
)

// Application provides the application interface that commands need.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Client returns the shared pricing client, created on first use.
	// Auto refresh is off until a caller turns it on.
	Client() (pricemap.Client, error)

	// History returns the run history database, or nil when history is
	// disabled by configuration.
	History() (*history.DB, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
