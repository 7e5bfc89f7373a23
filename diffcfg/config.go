package diffcfg

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/schemadrift/schemadrift/ir"
)

// Config is the user-facing YAML document accepted via --config/--config-inline:
// a newline-separated list of table names scoping the run, plus an exclusion
// list since the diff engine has both directions of table scoping available.
type Config struct {
	TargetTables []string
	SkipTables   []string
}

type rawConfig struct {
	TargetTables string `yaml:"target_tables"`
	SkipTables   string `yaml:"skip_tables"`
}

func parseRaw(buf []byte) (Config, error) {
	var raw rawConfig
	if err := yaml.UnmarshalStrict(buf, &raw); err != nil {
		return Config{}, fmt.Errorf("diffcfg: parse config: %w", err)
	}
	return Config{
		TargetTables: splitLines(raw.TargetTables),
		SkipTables:   splitLines(raw.SkipTables),
	}, nil
}

func splitLines(s string) []string {
	s = strings.Trim(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// ParseConfigFile loads a Config from a YAML file on disk, as pointed to by
// a --config flag. An empty path is a no-op, returning the zero Config.
func ParseConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("diffcfg: read config %q: %w", path, err)
	}
	return parseRaw(buf)
}

// ParseConfigInline loads a Config from a YAML document given directly on
// the command line, as pointed to by a --config-inline flag.
func ParseConfigInline(yamlText string) (Config, error) {
	return parseRaw([]byte(yamlText))
}

// MergeConfigs concatenates TargetTables and SkipTables across every config
// in order, so --config and --config-inline can each be given multiple
// times and accumulate.
func MergeConfigs(configs []Config) Config {
	var merged Config
	for _, c := range configs {
		merged.TargetTables = append(merged.TargetTables, c.TargetTables...)
		merged.SkipTables = append(merged.SkipTables, c.SkipTables...)
	}
	return merged
}

// LoadConfigs reads every --config file and --config-inline document, in
// the order given, and merges them into one Config. Either slice may be
// empty; each flag may be repeated.
func LoadConfigs(configPaths, configInlines []string) (Config, error) {
	var configs []Config
	for _, path := range configPaths {
		c, err := ParseConfigFile(path)
		if err != nil {
			return Config{}, err
		}
		configs = append(configs, c)
	}
	for _, inline := range configInlines {
		c, err := ParseConfigInline(inline)
		if err != nil {
			return Config{}, err
		}
		configs = append(configs, c)
	}
	return MergeConfigs(configs), nil
}

// FilterObjects drops schema objects whose owning table isn't selected by
// config: SkipTables always excludes, TargetTables (when non-empty) is an
// allowlist. Objects with no identifiable owning table (extensions, schema
// definitions, standalone comments) always pass through.
func FilterObjects(objects []ir.SchemaObject, config Config) []ir.SchemaObject {
	if len(config.TargetTables) == 0 && len(config.SkipTables) == 0 {
		return objects
	}

	skip := make(map[string]bool, len(config.SkipTables))
	for _, t := range config.SkipTables {
		skip[t] = true
	}
	target := make(map[string]bool, len(config.TargetTables))
	for _, t := range config.TargetTables {
		target[t] = true
	}

	filtered := make([]ir.SchemaObject, 0, len(objects))
	for _, object := range objects {
		name, ok := ir.OwningTableName(object)
		if !ok {
			filtered = append(filtered, object)
			continue
		}
		if skip[name] {
			continue
		}
		if len(target) > 0 && !target[name] {
			continue
		}
		filtered = append(filtered, object)
	}
	return filtered
}
