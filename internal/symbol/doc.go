// Package symbol resolves dotted paths such as "app.settings.Production" to
// objects registered ahead of time. Containers are registered directly or
// through loaders that run on first use; members are read from containers
// through settings.From.
package symbol
