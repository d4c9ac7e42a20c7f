package config

// ModuleConfig is one `[modules.<name>]` table (spec §6).
type ModuleConfig struct {
	Class       string                 `mapstructure:"class" validate:"required"`
	Description string                 `mapstructure:"description"`
	Group       string                 `mapstructure:"group"`
	Visibility  string                 `mapstructure:"visibility" validate:"omitempty,oneof=none user advanced expert"`
	Parameters  map[string]interface{} `mapstructure:"parameters"`
}

// NodeConfig is the full decoded TOML config file.
type NodeConfig struct {
	Description string                  `mapstructure:"description"`
	Modules     map[string]ModuleConfig `mapstructure:"modules"`

	// EquipmentID is derived from the config file's base name, not read
	// from the file itself (spec §6).
	EquipmentID string `mapstructure:"-"`
}
