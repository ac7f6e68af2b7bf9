// Package discovery finds the settings source used when a schema is
// constructed without one. Owner keys passed to Discover must be comparable.
package discovery
