// Package config loads and (re)validates the node's TOML configuration,
// grounded on the teacher's config.Config Start/Reload/Stop shape: Load
// parses and validates once; NewWatcher arranges for a reload callback to
// fire on a file-system change or on an explicit Watcher.Reload (which the
// CLI calls on SIGHUP), the way config/manage.go wires
// fsnotify and registered reload callbacks together.
package config
