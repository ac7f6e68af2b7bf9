package discovery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/eugenenazirov/yzconfig/internal/settings"
	"github.com/eugenenazirov/yzconfig/internal/symbol"
)

const (
	// EnvModule names the environment variable holding a dotted path to the
	// settings source.
	EnvModule = "YZCONFIG_MODULE"
	// LocalModule is the container name tried when nothing else applies.
	LocalModule = "settings"
)

var localFiles = []string{"settings.yaml", "settings.yml"}

// Framework is a host framework that exposes global settings. Settings
// errors are returned to callers unchanged. Settings may itself discover
// sources for other owners, but not for the owner being resolved.
type Framework interface {
	Settings() (settings.Source, error)
}

// FrameworkFunc adapts a function to Framework.
type FrameworkFunc func() (settings.Source, error)

// Settings calls f.
func (f FrameworkFunc) Settings() (settings.Source, error) {
	return f()
}

// Discoverer locates the settings source for a schema and memoizes it.
type Discoverer struct {
	resolver  *symbol.Registry
	framework Framework
	lookupEnv func(string) (string, bool)
	searchDir string
	logger    *zap.Logger
	cache     *Cache

	mu    sync.Mutex
	locks map[any]*sync.Mutex
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithResolver sets the registry used for dotted paths and the local
// settings container.
func WithResolver(r *symbol.Registry) Option {
	return func(d *Discoverer) {
		d.resolver = r
	}
}

// WithFramework installs a host framework. While one is installed the local
// settings fallback is never consulted.
func WithFramework(f Framework) Option {
	return func(d *Discoverer) {
		d.framework = f
	}
}

// WithLookupEnv overrides environment access, primarily for tests.
func WithLookupEnv(fn func(string) (string, bool)) Option {
	return func(d *Discoverer) {
		d.lookupEnv = fn
	}
}

// WithSearchDir sets the directory where the search for settings.yaml starts.
// Parent directories are searched as well.
func WithSearchDir(dir string) Option {
	return func(d *Discoverer) {
		d.searchDir = dir
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Discoverer) {
		d.logger = logger
	}
}

// New creates a Discoverer with an empty cache.
func New(opts ...Option) *Discoverer {
	d := &Discoverer{
		resolver:  symbol.Default(),
		lookupEnv: os.LookupEnv,
		logger:    zap.NewNop(),
		cache:     NewCache(),
		locks:     make(map[any]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var defaultDiscoverer = New()

// Default returns the process-wide Discoverer.
func Default() *Discoverer {
	return defaultDiscoverer
}

// Cache exposes the memoized sources.
func (d *Discoverer) Cache() *Cache {
	return d.cache
}

// Reset forgets every memoized source.
func (d *Discoverer) Reset() {
	d.cache.Reset()
}

// Discover returns the settings source for owner. A source cached for owner,
// or failing that for the nearest of its ancestors, wins. Otherwise the source
// is resolved from EnvModule, the installed framework or the local settings
// module, in that order, and cached for owner.
//
// First-time resolution is serialized per owner, so concurrent callers for
// one owner observe a single source. Owners must be comparable.
func (d *Discoverer) Discover(owner any, ancestors ...any) (settings.Source, error) {
	if src, ok := d.cached(owner, ancestors); ok {
		return src, nil
	}

	lock := d.ownerLock(owner)
	lock.Lock()
	defer lock.Unlock()

	if src, ok := d.cached(owner, ancestors); ok {
		return src, nil
	}

	src, err := d.resolve()
	if err != nil {
		return nil, err
	}
	return d.cache.Store(owner, src), nil
}

func (d *Discoverer) ownerLock(owner any) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()

	lock, ok := d.locks[owner]
	if !ok {
		lock = &sync.Mutex{}
		d.locks[owner] = lock
	}
	return lock
}

func (d *Discoverer) cached(owner any, ancestors []any) (settings.Source, bool) {
	if src, ok := d.cache.Get(owner); ok {
		return src, true
	}
	for _, a := range ancestors {
		if src, ok := d.cache.Get(a); ok {
			return src, true
		}
	}
	return nil, false
}

func (d *Discoverer) resolve() (settings.Source, error) {
	if path, ok := d.lookupEnv(EnvModule); ok && path != "" {
		return d.fromEnvModule(path)
	}

	if d.framework != nil {
		src, err := d.framework.Settings()
		if err != nil {
			return nil, err
		}
		d.logger.Debug("settings source resolved from framework")
		return src, nil
	}

	return d.fromLocal()
}

func (d *Discoverer) fromEnvModule(path string) (settings.Source, error) {
	sym, err := d.resolver.Resolve(path)
	if err == nil {
		var src settings.Source
		if src, err = settings.From(sym); err == nil {
			d.logger.Debug("settings source resolved from environment", zap.String("path", path))
			return src, nil
		}
	}

	return nil, &settings.ConfigurationError{
		Message: fmt.Sprintf("failed to import symbol %q given in environment variable", path),
		Err:     err,
	}
}

func (d *Discoverer) fromLocal() (settings.Source, error) {
	if d.resolver.Has(LocalModule) {
		sym, err := d.resolver.Resolve(LocalModule)
		if err == nil {
			if src, err := settings.From(sym); err == nil {
				d.logger.Debug("settings source resolved from local module")
				return src, nil
			}
		}
	}

	path, err := d.findLocalFile()
	if err == nil {
		src, loadErr := settings.LoadYAML(path)
		if loadErr != nil {
			return nil, &settings.ConfigurationError{Message: "failed to import settings", Err: loadErr}
		}
		d.logger.Debug("settings source resolved from file", zap.String("path", path))
		return src, nil
	}

	return nil, &settings.ConfigurationError{Message: "failed to import settings", Err: err}
}

var errNoLocalFile = errors.New("no local settings file")

// findLocalFile walks up from the search directory looking for a settings file.
func (d *Discoverer) findLocalFile() (string, error) {
	dir := d.searchDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = wd
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for {
		for _, name := range localFiles {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", errNoLocalFile
}
