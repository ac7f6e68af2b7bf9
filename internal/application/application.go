package application

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/yzconfig/internal/config"
	"github.com/eugenenazirov/yzconfig/internal/discovery"
	"github.com/eugenenazirov/yzconfig/internal/overlay"
	"github.com/eugenenazirov/yzconfig/internal/settings"
	"github.com/eugenenazirov/yzconfig/internal/symbol"
)

// App encapsulates the resolver, discovery and logger used by the CLI.
type App struct {
	cfg        config.Config
	logger     *zap.Logger
	registry   *symbol.Registry
	discoverer *discovery.Discoverer

	discoveryOpts []discovery.Option
}

// Option configures App.
type Option func(*App)

// WithRegistry overrides the symbol registry, primarily for tests.
func WithRegistry(r *symbol.Registry) Option {
	return func(a *App) {
		a.registry = r
	}
}

// WithDiscoveryOptions passes extra options to the Discoverer.
func WithDiscoveryOptions(opts ...discovery.Option) Option {
	return func(a *App) {
		a.discoveryOpts = append(a.discoveryOpts, opts...)
	}
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger, opts ...Option) *App {
	app := &App{
		cfg:      cfg,
		logger:   logger,
		registry: symbol.NewRegistry(),
	}
	for _, opt := range opts {
		opt(app)
	}
	base := []discovery.Option{
		discovery.WithResolver(app.registry),
		discovery.WithSearchDir(cfg.SearchDir),
		discovery.WithLogger(logger),
	}
	app.discoverer = discovery.New(append(base, app.discoveryOpts...)...)
	return app
}

// Registry returns the symbol registry modules are registered in.
func (a *App) Registry() *symbol.Registry {
	return a.registry
}

// RegisterModules registers YAML files, keyed by dotted name, as resolver
// containers. Files are read on first resolution.
func (a *App) RegisterModules(specs map[string]string) error {
	for name, path := range specs {
		path := path
		if err := a.registry.RegisterLoader(name, func() (any, error) {
			return settings.LoadYAML(path)
		}); err != nil {
			return fmt.Errorf("register module %s: %w", name, err)
		}
		a.logger.Debug("module registered", zap.String("name", name), zap.String("path", path))
	}
	return nil
}

// ResolveRequest describes a single schema resolution.
type ResolveRequest struct {
	SchemaPath  string
	Prefix      string
	// SourceFiles are YAML settings files; a later file beats an earlier one.
	SourceFiles []string
	UseEnv      bool
	Overrides   map[string]string
}

// Source builds the settings source for req, or nil when req names none and
// discovery should run. Precedence: overrides > environment > files.
func (a *App) Source(req ResolveRequest) (settings.Source, error) {
	var chain settings.Chain
	if len(req.Overrides) > 0 {
		overrides, err := settings.From(req.Overrides)
		if err != nil {
			return nil, err
		}
		chain = append(chain, overrides)
	}
	if req.UseEnv {
		chain = append(chain, settings.NewEnv())
	}
	for i := len(req.SourceFiles) - 1; i >= 0; i-- {
		src, err := settings.LoadYAML(req.SourceFiles[i])
		if err != nil {
			return nil, fmt.Errorf("load settings: %w", err)
		}
		chain = append(chain, src)
	}

	if len(chain) == 0 {
		return nil, nil
	}
	return chain, nil
}

// Resolve loads the schema and constructs an instance from it.
func (a *App) Resolve(req ResolveRequest) (*overlay.Instance, error) {
	schema, err := LoadSchema(req.SchemaPath)
	if err != nil {
		return nil, err
	}

	src, err := a.Source(req)
	if err != nil {
		return nil, err
	}

	inst, err := overlay.New(schema, req.Prefix, src,
		overlay.WithDiscoverer(a.discoverer),
		overlay.WithLogger(a.logger),
	)
	if err != nil {
		return nil, err
	}

	a.logger.Info("configuration resolved",
		zap.String("schema", schema.Name()),
		zap.String("prefix", req.Prefix),
		zap.Bool("discovered", src == nil),
	)
	return inst, nil
}

// Lookup resolves a dotted path against the registry.
func (a *App) Lookup(path string) (any, error) {
	return a.registry.Resolve(path)
}

// Render writes v in the configured output format.
func (a *App) Render(w io.Writer, v any) error {
	return Render(w, a.cfg.Output, v)
}

// Render writes v as YAML or JSON.
func Render(w io.Writer, format string, v any) error {
	if inst, ok := v.(*overlay.Instance); ok {
		v = inst.Public()
	}

	switch strings.ToLower(format) {
	case config.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case config.OutputYAML, "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
