package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ballastio/ballast/pkg/errors"
)

// Load reads a YAML configuration file into config. ${VAR} references are
// substituted with environment variable values before parsing, so connection
// strings and credentials stay out of the file itself.
func Load(path string, config interface{}) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is chosen by the operator
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to read config file").
			WithDetail("path", path)
	}

	content := substituteEnvVars(string(data))
	if err := yaml.Unmarshal([]byte(content), config); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse config file").
			WithDetail("path", path)
	}

	return nil
}

// Save writes a configuration as YAML.
func Save(path string, config interface{}) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to marshal config")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to write config file").
			WithDetail("path", path)
	}

	return nil
}

// substituteEnvVars replaces every ${VAR} reference with the value of the
// environment variable VAR. Unset variables substitute to the empty string.
func substituteEnvVars(content string) string {
	var out strings.Builder
	for {
		start := strings.Index(content, "${")
		if start < 0 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end < 0 {
			break
		}
		out.WriteString(content[:start])
		out.WriteString(os.Getenv(content[start+2 : start+end]))
		content = content[start+end+1:]
	}
	out.WriteString(content)
	return out.String()
}
