// Package settings defines the Source capability used to look up override
// values by name, together with adapters for maps, environment snapshots,
// structs, YAML documents and ordered chains of sources.
package settings
