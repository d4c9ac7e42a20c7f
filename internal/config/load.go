package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads and validates the TOML config file at path, grounded on the
// teacher's config.Config Start-time load step (config/manage.go):
// viper does the TOML parse and mapstructure decode, validator checks the
// decoded shape, and the case-insensitive module/group naming rule (spec
// §8) is enforced on top.
func Load(path string) (*NodeConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &NodeConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	base := filepath.Base(path)
	cfg.EquipmentID = strings.TrimSuffix(base, filepath.Ext(base))

	for name, mc := range cfg.Modules {
		if mc.Visibility == "" {
			mc.Visibility = "user"
			cfg.Modules[name] = mc
		}
	}

	validate := validator.New()
	for name, mc := range cfg.Modules {
		if err := validate.Struct(mc); err != nil {
			return nil, fmt.Errorf("module %q: %w", name, err)
		}
	}

	if err := validateNaming(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateNaming enforces spec §6/§8: module names must be unique
// case-insensitively and must not collide with any group name.
func validateNaming(cfg *NodeConfig) error {
	seen := map[string]string{}
	claim := func(key, label string) error {
		lower := strings.ToLower(key)
		if prev, ok := seen[lower]; ok {
			return fmt.Errorf("name %q collides with %s (case-insensitive)", key, prev)
		}
		seen[lower] = label
		return nil
	}

	for name := range cfg.Modules {
		if err := claim(name, fmt.Sprintf("module %q", name)); err != nil {
			return err
		}
	}
	for name, mc := range cfg.Modules {
		if mc.Group == "" {
			continue
		}
		if err := claim(mc.Group, fmt.Sprintf("the group of module %q", name)); err != nil {
			return err
		}
	}
	return nil
}
