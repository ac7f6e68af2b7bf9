package discovery

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/yzconfig/internal/settings"
	"github.com/eugenenazirov/yzconfig/internal/symbol"
)

type ownerKey struct{ name string }

func envFrom(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func newTestDiscoverer(t *testing.T, opts ...Option) (*Discoverer, *symbol.Registry) {
	t.Helper()

	reg := symbol.NewRegistry()
	base := []Option{
		WithResolver(reg),
		WithLookupEnv(envFrom(nil)),
		WithSearchDir(t.TempDir()),
		WithLogger(zaptest.NewLogger(t)),
	}
	return New(append(base, opts...)...), reg
}

func TestDiscoverFromEnvModule(t *testing.T) {
	t.Parallel()

	d, reg := newTestDiscoverer(t, WithLookupEnv(envFrom(map[string]string{EnvModule: "yzconfig.tests.testsettings"})))
	want := settings.Map{"PREFIX1_VAR1": "yes"}
	if err := reg.Register("yzconfig.tests", settings.Map{"testsettings": want}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	src, err := d.Discover(&ownerKey{"env"})
	if err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}
	if v, _ := src.Lookup("PREFIX1_VAR1"); v != "yes" {
		t.Fatalf("expected source from environment module, got %v", v)
	}
}

func TestDiscoverEnvModuleFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     string
		register func(*symbol.Registry) error
	}{
		{
			name:     "missing module",
			path:     "nosuchmodule",
			register: func(*symbol.Registry) error { return nil },
		},
		{
			name:     "blank module",
			path:     "   ",
			register: func(*symbol.Registry) error { return nil },
		},
		{
			name: "unsupported value",
			path: "app.answer",
			register: func(r *symbol.Registry) error {
				return r.Register("app", settings.Map{"answer": 42})
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			d, reg := newTestDiscoverer(t,
				WithLookupEnv(envFrom(map[string]string{EnvModule: tc.path})),
				WithFramework(FrameworkFunc(func() (settings.Source, error) {
					t.Fatalf("framework must not be consulted when %s is set", EnvModule)
					return nil, nil
				})),
			)
			if err := tc.register(reg); err != nil {
				t.Fatalf("register: %v", err)
			}

			_, err := d.Discover(&ownerKey{tc.name})

			var cfgErr *settings.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigurationError, got %T (%v)", err, err)
			}
			if d.Cache().Len() != 0 {
				t.Fatalf("expected failed resolution not to be cached")
			}
		})
	}
}

func TestDiscoverEnvModuleFailureKeepsResolutionCause(t *testing.T) {
	t.Parallel()

	d, _ := newTestDiscoverer(t, WithLookupEnv(envFrom(map[string]string{EnvModule: "nosuchmodule"})))

	_, err := d.Discover(&ownerKey{"cause"})
	var resErr *symbol.ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected ResolutionError in chain, got %v", err)
	}
	if resErr.Path != "nosuchmodule" {
		t.Fatalf("unexpected path %q", resErr.Path)
	}
}

func TestDiscoverFromFramework(t *testing.T) {
	t.Parallel()

	framework := FrameworkFunc(func() (settings.Source, error) {
		return settings.Map{"FRAMEWORK": true}, nil
	})
	d, reg := newTestDiscoverer(t, WithFramework(framework))
	if err := reg.Register(LocalModule, settings.Map{"LOCAL": true}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	src, err := d.Discover(&ownerKey{"framework"})
	if err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}
	if _, ok := src.Lookup("FRAMEWORK"); !ok {
		t.Fatalf("expected framework settings to win over local module")
	}
}

type frameworkInitError struct{}

func (frameworkInitError) Error() string { return "settings are not configured" }

func TestDiscoverFrameworkErrorPassesThrough(t *testing.T) {
	t.Parallel()

	initErr := frameworkInitError{}
	d, _ := newTestDiscoverer(t, WithFramework(FrameworkFunc(func() (settings.Source, error) {
		return nil, initErr
	})))

	_, err := d.Discover(&ownerKey{"broken"})
	if err != initErr {
		t.Fatalf("expected framework error unchanged, got %T (%v)", err, err)
	}
}

func TestDiscoverFromLocalModule(t *testing.T) {
	t.Parallel()

	d, reg := newTestDiscoverer(t)
	if err := reg.Register(LocalModule, settings.Map{"LOCAL": "module"}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	src, err := d.Discover(&ownerKey{"local"})
	if err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}
	if v, _ := src.Lookup("LOCAL"); v != "module" {
		t.Fatalf("expected local module, got %v", v)
	}
}

func TestDiscoverFromLocalFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "settings.yaml"), []byte("LOCAL: file\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	d, _ := newTestDiscoverer(t, WithSearchDir(nested))

	src, err := d.Discover(&ownerKey{"file"})
	if err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}
	if v, _ := src.Lookup("LOCAL"); v != "file" {
		t.Fatalf("expected settings from parent directory file, got %v", v)
	}
}

func TestDiscoverInvalidLocalFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "settings.yml"), []byte("- not\n- a mapping\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	d, _ := newTestDiscoverer(t, WithSearchDir(dir))

	var cfgErr *settings.ConfigurationError
	if _, err := d.Discover(&ownerKey{"invalid"}); !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestDiscoverNothingFound(t *testing.T) {
	t.Parallel()

	d, _ := newTestDiscoverer(t)

	_, err := d.Discover(&ownerKey{"none"})
	var cfgErr *settings.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %T (%v)", err, err)
	}
	if cfgErr.Message != "failed to import settings" {
		t.Fatalf("unexpected message %q", cfgErr.Message)
	}
}

func TestDiscoverCachesPerOwner(t *testing.T) {
	t.Parallel()

	calls := 0
	d, _ := newTestDiscoverer(t, WithFramework(FrameworkFunc(func() (settings.Source, error) {
		calls++
		return settings.Map{"CALL": calls}, nil
	})))

	owner := &ownerKey{"cached"}
	first, err := d.Discover(owner)
	if err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}
	second, err := d.Discover(owner)
	if err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}
	if v, _ := second.Lookup("CALL"); v != 1 {
		t.Fatalf("expected cached source, got call %v", v)
	}
	if v, _ := first.Lookup("CALL"); v != 1 {
		t.Fatalf("expected first call, got %v", v)
	}

	other, err := d.Discover(&ownerKey{"other"})
	if err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}
	if v, _ := other.Lookup("CALL"); v != 2 {
		t.Fatalf("expected a fresh resolution for another owner, got call %v", v)
	}

	d.Reset()
	if d.Cache().Len() != 0 {
		t.Fatalf("expected Reset to clear the cache")
	}
	again, err := d.Discover(owner)
	if err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}
	if v, _ := again.Lookup("CALL"); v != 3 {
		t.Fatalf("expected resolution after Reset, got call %v", v)
	}
}

func TestDiscoverUsesAncestorCache(t *testing.T) {
	t.Parallel()

	calls := 0
	d, _ := newTestDiscoverer(t, WithFramework(FrameworkFunc(func() (settings.Source, error) {
		calls++
		return settings.Map{"CALL": calls}, nil
	})))

	base := &ownerKey{"base"}
	derived := &ownerKey{"derived"}

	if _, err := d.Discover(base); err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}
	src, err := d.Discover(derived, base)
	if err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}
	if v, _ := src.Lookup("CALL"); v != 1 {
		t.Fatalf("expected derived owner to reuse ancestor source, got call %v", v)
	}
	if calls != 1 {
		t.Fatalf("expected a single resolution, got %d", calls)
	}
}

func TestDiscoverConcurrentFirstUse(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	calls := 0
	d, _ := newTestDiscoverer(t, WithFramework(FrameworkFunc(func() (settings.Source, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return settings.Map{}, nil
	})))

	owner := &ownerKey{"concurrent"}
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := d.Discover(owner); err != nil {
				t.Errorf("Discover failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if calls != 1 {
		t.Fatalf("expected one resolution, got %d", calls)
	}
}

func TestDiscoverBlankModuleIsMalformed(t *testing.T) {
	t.Parallel()

	d, _ := newTestDiscoverer(t, WithLookupEnv(envFrom(map[string]string{EnvModule: "   "})))

	_, err := d.Discover(&ownerKey{"blank"})
	var cfgErr *settings.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if cfgErr.Message != `failed to import symbol "   " given in environment variable` {
		t.Fatalf("unexpected message %q", cfgErr.Message)
	}
	if !errors.Is(err, symbol.ErrMalformedPath) {
		t.Fatalf("expected ErrMalformedPath in chain, got %v", err)
	}
}

func TestDiscoverFrameworkMayDiscoverOtherOwners(t *testing.T) {
	t.Parallel()

	inner := &ownerKey{"inner"}
	var d *Discoverer
	calls := 0
	d, _ = newTestDiscoverer(t, WithFramework(FrameworkFunc(func() (settings.Source, error) {
		calls++
		if calls > 1 {
			return settings.Map{"LEVEL": "inner"}, nil
		}
		src, err := d.Discover(inner)
		if err != nil {
			return nil, err
		}
		v, _ := src.Lookup("LEVEL")
		return settings.Map{"LEVEL": "outer", "INNER": v}, nil
	})))

	done := make(chan error, 1)
	go func() {
		_, err := d.Discover(&ownerKey{"outer"})
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Discover returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("nested discovery did not complete")
	}

	src, ok := d.Cache().Get(inner)
	if !ok {
		t.Fatalf("expected inner owner to be cached")
	}
	if v, _ := src.Lookup("LEVEL"); v != "inner" {
		t.Fatalf("unexpected inner source value %v", v)
	}
}

func TestDiscoverReadsProcessEnvironment(t *testing.T) {
	reg := symbol.NewRegistry()
	if err := reg.Register("proc.settings", settings.Map{"FROM_PROCESS": true}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	t.Setenv(EnvModule, "proc.settings")

	d := New(WithResolver(reg), WithSearchDir(t.TempDir()))
	src, err := d.Discover(&ownerKey{"process"})
	if err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}
	if _, ok := src.Lookup("FROM_PROCESS"); !ok {
		t.Fatalf("expected source named by %s", EnvModule)
	}
}

func TestCacheStoreKeepsFirstEntry(t *testing.T) {
	t.Parallel()

	c := NewCache()
	first := settings.Map{"N": 1}
	second := settings.Map{"N": 2}

	if got := c.Store("k", first); got.(settings.Map)["N"] != 1 {
		t.Fatalf("expected first entry to be stored")
	}
	if got := c.Store("k", second); got.(settings.Map)["N"] != 1 {
		t.Fatalf("expected existing entry to be kept")
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatalf("expected missing key to be absent")
	}
}

func TestDefaultDiscoverer(t *testing.T) {
	t.Parallel()

	if Default() == nil || Default() != Default() {
		t.Fatalf("expected a stable default discoverer")
	}
}
