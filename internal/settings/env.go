package settings

import (
	"os"

	"github.com/caarlos0/env/v11"
)

// Env is a snapshot of environment variables. Values are strings.
type Env map[string]string

// NewEnv snapshots the current process environment.
func NewEnv() Env {
	return EnvFrom(os.Environ())
}

// EnvFrom builds an Env from KEY=VALUE pairs as returned by os.Environ.
func EnvFrom(environ []string) Env {
	return Env(env.ToMap(environ))
}

// Lookup returns the variable called name.
func (e Env) Lookup(name string) (any, bool) {
	v, ok := e[name]
	if !ok {
		return nil, false
	}
	return v, true
}
