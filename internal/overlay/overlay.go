package overlay

import (
	"errors"

	"go.uber.org/zap"

	"github.com/eugenenazirov/yzconfig/internal/discovery"
	"github.com/eugenenazirov/yzconfig/internal/settings"
)

type options struct {
	discoverer *discovery.Discoverer
	logger     *zap.Logger
}

// Option configures New.
type Option func(*options)

// WithDiscoverer sets the Discoverer consulted when no source is given.
func WithDiscoverer(d *discovery.Discoverer) Option {
	return func(o *options) {
		o.discoverer = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New materializes schema. Each public field takes the value src holds under
// prefix+name, or its default when src lacks that name; hidden fields always
// take their default. When src is nil the source is discovered and memoized
// per schema. The post-load hook runs next, then the schema check unless
// CheckSettingsField or the source's CheckSettingsAttr is falsy.
//
// A failed assertion in the check is returned as *settings.ConfigurationError;
// every other error is returned unchanged. No instance is returned on error.
func New(schema *Schema, prefix string, src settings.Source, opts ...Option) (*Instance, error) {
	if schema == nil {
		return nil, ErrNilSchema
	}

	o := options{
		discoverer: discovery.Default(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if src == nil {
		ancestors := schema.Ancestors()
		keys := make([]any, len(ancestors))
		for i, a := range ancestors {
			keys[i] = a
		}

		var err error
		src, err = o.discoverer.Discover(schema, keys...)
		if err != nil {
			return nil, err
		}
	}

	inst := &Instance{
		schema: schema,
		prefix: prefix,
		source: src,
		values: make(map[string]any),
	}

	overridden := 0
	for name, def := range schema.Defaults() {
		if !IsHidden(name) {
			if v, ok := src.Lookup(prefix + name); ok {
				inst.values[name] = v
				overridden++
				continue
			}
		}
		inst.values[name] = def
	}

	if err := schema.Hook()(inst); err != nil {
		return nil, err
	}

	checked := needsCheck(inst, src)
	if checked {
		if err := schema.Checker()(inst); err != nil {
			var assertErr *AssertionError
			if errors.As(err, &assertErr) {
				return nil, &settings.ConfigurationError{Message: assertErr.Message, Err: err}
			}
			return nil, err
		}
	}

	o.logger.Debug("configuration loaded",
		zap.String("schema", schema.Name()),
		zap.String("prefix", prefix),
		zap.Int("fields", len(inst.values)),
		zap.Int("overridden", overridden),
		zap.Bool("checked", checked),
	)

	return inst, nil
}

func needsCheck(inst *Instance, src settings.Source) bool {
	if !settings.Truthy(inst.values[CheckSettingsField]) {
		return false
	}
	if v, ok := src.Lookup(CheckSettingsAttr); ok && !settings.Truthy(v) {
		return false
	}
	return true
}
