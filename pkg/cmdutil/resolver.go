package cmdutil

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v2"
)

// ConfigPaths are the default locations of the optional YAML configuration.
var ConfigPaths = []string{
	"/etc/nvme-ata-security.yaml",
	"~/.config/nvme-ata-security.yaml",
}

// YAMLLoader is a kong.ConfigurationLoader reading flag defaults from a flat
// YAML map keyed by flag name, e.g.
//
//	log-level: debug
//	hash: dta
//	password-file: /etc/keys/nvme0
//
// Password values themselves are never taken from the configuration.
func YAMLLoader(r io.Reader) (kong.Resolver, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	values := map[string]interface{}{}
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("invalid YAML configuration: %v", err)
	}
	return kong.ResolverFunc(func(ctx *kong.Context, parent *kong.Path, flag *kong.Flag) (interface{}, error) {
		if flag.Tag.Type == "password" || strings.EqualFold(flag.Name, "password") {
			return nil, nil
		}
		v, ok := values[flag.Name]
		if !ok || v == nil {
			return nil, nil
		}
		switch v.(type) {
		case map[interface{}]interface{}, []interface{}:
			return nil, fmt.Errorf("configuration key %q must be a scalar", flag.Name)
		}
		return fmt.Sprint(v), nil
	}), nil
}
