package application

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/yzconfig/internal/overlay"
	"github.com/eugenenazirov/yzconfig/internal/settings"
)

// ErrSchemaCycle is returned when schema files extend each other in a loop.
var ErrSchemaCycle = errors.New("schema extends itself")

// schemaFile represents the YAML schema file structure.
type schemaFile struct {
	Name          string         `yaml:"name"`
	Extends       string         `yaml:"extends"`
	CheckSettings *bool          `yaml:"check_settings"`
	Required      []string       `yaml:"required"`
	Fields        map[string]any `yaml:"fields"`
}

// LoadSchema reads a schema file and every file it extends.
func LoadSchema(path string) (*overlay.Schema, error) {
	return loadSchema(path, map[string]bool{})
}

func loadSchema(path string, visiting map[string]bool) (*overlay.Schema, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if visiting[abs] {
		return nil, fmt.Errorf("%w: %s", ErrSchemaCycle, path)
	}
	visiting[abs] = true

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}

	var file schemaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", path, err)
	}

	name := file.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	}

	var schema *overlay.Schema
	if file.Extends != "" {
		parentPath := file.Extends
		if !filepath.IsAbs(parentPath) {
			parentPath = filepath.Join(filepath.Dir(abs), parentPath)
		}
		parent, err := loadSchema(parentPath, visiting)
		if err != nil {
			return nil, err
		}
		schema = parent.Extend(name)
	} else {
		schema = overlay.NewSchema(name)
	}

	for field, def := range file.Fields {
		schema.Field(field, def)
	}
	if file.CheckSettings != nil {
		schema.CheckSettings(*file.CheckSettings)
	}
	if len(file.Required) > 0 {
		schema.Check(requireFields(schema.Parent(), file.Required))
	}

	return schema, nil
}

// requireFields asserts that every listed field is non-empty, after any
// check inherited from parent passes.
func requireFields(parent *overlay.Schema, names []string) overlay.CheckFunc {
	return func(inst *overlay.Instance) error {
		if parent != nil {
			if err := parent.Checker()(inst); err != nil {
				return err
			}
		}
		for _, name := range names {
			v, _ := inst.Lookup(name)
			if err := overlay.Assert(settings.Truthy(v), "%s is empty", name); err != nil {
				return err
			}
		}
		return nil
	}
}
