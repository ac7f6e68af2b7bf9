package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/yzconfig/internal/application"
	"github.com/eugenenazirov/yzconfig/internal/config"
	"github.com/eugenenazirov/yzconfig/internal/logging"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "yzconfig: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	kingpinApp := kingpin.New("yzconfig", "Resolve layered configuration from declared defaults and settings sources")
	logLevel := kingpinApp.Flag("log-level", "Log level (debug, info, warn, error)").String()
	output := kingpinApp.Flag("output", "Output format (yaml, json)").Short('o').String()
	searchDir := kingpinApp.Flag("search-dir", "Directory where the search for settings.yaml starts").String()
	modules := kingpinApp.Flag("module", "Register a YAML file as a resolvable container (NAME=FILE)").StringMap()

	resolveCmd := kingpinApp.Command("resolve", "Resolve a schema against its settings source")
	schemaPath := resolveCmd.Flag("schema", "Path to the schema YAML file").Required().ExistingFile()
	prefix := resolveCmd.Flag("prefix", "Prefix prepended to field names in the source").String()
	sourceFiles := resolveCmd.Flag("source", "YAML settings file; later files take precedence").ExistingFiles()
	useEnv := resolveCmd.Flag("env", "Read settings from the environment").Bool()
	sets := resolveCmd.Flag("set", "Explicit setting (KEY=VALUE), highest precedence").StringMap()

	lookupCmd := kingpinApp.Command("lookup", "Resolve a dotted path against registered modules")
	lookupPath := lookupCmd.Arg("path", "Dotted path, e.g. deploy.prod.DATABASE_URL").Required().String()

	command, err := kingpinApp.Parse(args)
	if err != nil {
		return err
	}

	overrides := &config.CLIOverrides{}
	if *logLevel != "" {
		overrides.LogLevel = logLevel
	}
	if *output != "" {
		overrides.Output = output
	}
	if *searchDir != "" {
		overrides.SearchDir = searchDir
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	app := application.New(cfg, logger)
	if err := app.RegisterModules(*modules); err != nil {
		return err
	}

	var result any
	switch command {
	case resolveCmd.FullCommand():
		result, err = app.Resolve(application.ResolveRequest{
			SchemaPath:  *schemaPath,
			Prefix:      *prefix,
			SourceFiles: *sourceFiles,
			UseEnv:      *useEnv,
			Overrides:   *sets,
		})
	case lookupCmd.FullCommand():
		result, err = app.Lookup(*lookupPath)
	}
	if err != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
		return err
	}

	return app.Render(stdout, result)
}
