package addon

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/config"
)

// Config is the add-on service configuration. Secrets (host API token,
// generator endpoint) are interpolated from environment variables by the
// loader rather than stored in the YAML itself.
type Config struct {
	Server    ServerSettings
	Addon     AddonSettings
	HostAPI   HostAPISettings
	Generator GeneratorSettings
}

type ServerSettings struct {
	Addr    string
	BaseURL string `yaml:"baseURL"`
}

type AddonSettings struct {
	Key             string
	Name            string
	Dialog          DialogOptions
	TrackerSubtypes []string `yaml:"trackerSubtypes"`
	WikiSubtypes    []string `yaml:"wikiSubtypes"`
}

type HostAPISettings struct {
	Email    string
	APIToken string `yaml:"apiToken"`
}

type GeneratorSettings struct {
	Endpoint    string
	Model       string
	MaxTokens   int `yaml:"maxTokens"`
	Temperature float64
	Heading     string
}

// EnvLookup resolves ${VAR} references in config sources. Injected so
// tests can supply synthetic environments.
type EnvLookup func(key string) (string, bool)

// YAMLConfigUnmarshaler loads Config from one or more YAML sources,
// later sources overriding earlier ones.
type YAMLConfigUnmarshaler struct {
	Lookup EnvLookup
}

func (u YAMLConfigUnmarshaler) Unmarshal(sources ...io.Reader) (Config, error) {
	var result Config
	var options []config.YAMLOption
	for _, s := range sources {
		options = append(options, config.Source(s))
	}
	var lookup func(key string) (string, bool) = u.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	options = append(options, config.Expand(lookup))
	yaml, err := config.NewYAML(options...)
	if err != nil {
		return result, fmt.Errorf("failed to read yaml config %w", err)
	}
	readError := func(key string, cause error) error {
		return fmt.Errorf("failed to read '%s' from yaml config %w", key, cause)
	}
	key := "server"
	err = yaml.Get(key).Populate(&result.Server)
	if err != nil {
		return result, readError(key, err)
	}
	key = "addon"
	err = yaml.Get(key).Populate(&result.Addon)
	if err != nil {
		return result, readError(key, err)
	}
	key = "hostAPI"
	err = yaml.Get(key).Populate(&result.HostAPI)
	if err != nil {
		return result, readError(key, err)
	}
	key = "generator"
	err = yaml.Get(key).Populate(&result.Generator)
	if err != nil {
		return result, readError(key, err)
	}
	return result, nil
}

// LoadConfig loads the embedded defaults, then an optional operator
// config file layered on top.
func LoadConfig(path string) (Config, error) {
	var result Config

	defaults, err := EmbeddedDefaults()
	if err != nil {
		return result, fmt.Errorf("failed to read embedded config defaults %w", err)
	}

	sources := []io.Reader{defaults.Reader}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return result, fmt.Errorf("failed to open config file %w", err)
		}
		defer f.Close()
		sources = append(sources, f)
	}

	unmarshaler := YAMLConfigUnmarshaler{}
	return unmarshaler.Unmarshal(sources...)
}

// DescriptorParams derives the manifest identity from config.
func (c Config) DescriptorParams() DescriptorParams {
	return DescriptorParams{
		Key:            c.Addon.Key,
		Name:           c.Addon.Name,
		BaseURL:        c.Server.BaseURL,
		DialogOptions:  c.Addon.Dialog,
		TrackerSubtype: c.Addon.TrackerSubtypes,
		WikiSubtype:    c.Addon.WikiSubtypes,
	}
}
