package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/maxkimambo/gasrun/internal/config"
	"github.com/maxkimambo/gasrun/internal/demo"
	"github.com/maxkimambo/gasrun/internal/errors"
	"github.com/maxkimambo/gasrun/internal/logger"
	"github.com/maxkimambo/gasrun/internal/store"
	"github.com/maxkimambo/gasrun/internal/task"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// environment is what every command needs: configuration, the store and
// the known task kinds.
type environment struct {
	cfg      *config.Config
	store    *store.Store
	registry *task.Registry
}

func loadEnvironment() (*environment, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if cacheRoot != "" {
		cfg.CacheRoot = cacheRoot
	}
	if err := applyConfigLogLevel(cfg); err != nil {
		return nil, err
	}

	st, err := store.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	registry := task.NewRegistry()
	if err := demo.Register(registry); err != nil {
		return nil, err
	}

	logger.Op.WithFields(map[string]interface{}{
		"config":     path,
		"cache_root": cfg.CacheRoot,
		"codec":      cfg.Codec,
		"scheduler":  cfg.SchedulerAddress(),
	}).Debug("Environment loaded")
	return &environment{cfg: cfg, store: st, registry: registry}, nil
}

// applyConfigLogLevel honours log_level unless a flag or LOG_MODE already
// chose the verbosity.
func applyConfigLogLevel(cfg *config.Config) error {
	if verbose || debug || quiet || os.Getenv("LOG_MODE") != "" {
		return nil
	}
	if err := logger.ApplyLevel(cfg.LogLevel); err != nil {
		return errors.NewConfigurationError("log_level", err.Error())
	}
	return nil
}

// taskFlags are the flags shared by every command that names a task.
type taskFlags struct {
	params     []string
	paramsFile string
}

func (f *taskFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.params, "param", nil, "Task parameter in name=value format, value parsed as YAML (repeatable)")
	cmd.Flags().StringVar(&f.paramsFile, "params-file", "", "YAML file with a mapping of task parameters")
}

// build resolves KIND plus parameters to a task.
func (f *taskFlags) build(env *environment, kind string) (task.Task, error) {
	params, err := parseParams(f.paramsFile, f.params)
	if err != nil {
		return nil, errors.NewInvalidParametersError(kind, err)
	}
	t, err := env.registry.Build(kind, params)
	if err != nil {
		return nil, errors.NewInvalidParametersError(kind, err)
	}
	return t, nil
}

// parseParams reads the optional params file, then applies name=value
// pairs on top in the order given.
func parseParams(file string, pairs []string) (task.Params, error) {
	params := task.NewParams()

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return params, fmt.Errorf("read params file: %w", err)
		}
		fromFile, err := decodeParamsYAML(data)
		if err != nil {
			return params, fmt.Errorf("parse params file %s: %w", file, err)
		}
		params = fromFile
	}

	for _, pair := range pairs {
		name, value, err := parseParam(pair)
		if err != nil {
			return params, err
		}
		params = params.With(name, value)
	}
	return params, nil
}

// parseParam splits name=value and decodes the value as a YAML scalar or
// flow collection, so 7 is an int, true a bool and [1, 2] a list.
func parseParam(pair string) (string, interface{}, error) {
	parts := strings.SplitN(pair, "=", 2)
	if len(parts) != 2 {
		return "", nil, fmt.Errorf("invalid parameter format: %s. Expected name=value", pair)
	}

	name := strings.TrimSpace(parts[0])
	raw := strings.TrimSpace(parts[1])
	if name == "" {
		return "", nil, fmt.Errorf("parameter name cannot be empty")
	}
	if raw == "" {
		return name, "", nil
	}

	var value interface{}
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
		return "", nil, fmt.Errorf("invalid value for parameter %s: %w", name, err)
	}
	if value == nil {
		// YAML null spellings have no meaning as parameters; keep the text.
		return name, raw, nil
	}
	return name, value, nil
}

// decodeParamsYAML decodes a top-level mapping keeping document order.
func decodeParamsYAML(data []byte) (task.Params, error) {
	params := task.NewParams()

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return params, err
	}
	if len(doc.Content) == 0 {
		return params, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return params, fmt.Errorf("expected a mapping of parameters")
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		var value interface{}
		if err := root.Content[i+1].Decode(&value); err != nil {
			return params, fmt.Errorf("parameter %s: %w", root.Content[i].Value, err)
		}
		params = params.With(root.Content[i].Value, value)
	}
	return params, nil
}
