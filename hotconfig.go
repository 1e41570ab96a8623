// hotconfig.go: Settings hot reload via Argus
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package chronos

import (
	"fmt"
	"time"

	"github.com/agilira/argus"
)

// HotSettings watches a configuration file and pushes every parsed change
// into a SettingsStore, so subscribers registered via SettingsStore.OnChange
// fire without the caller polling anything.
type HotSettings struct {
	store   *SettingsStore
	watcher *argus.Watcher
	logger  Logger
}

// HotSettingsOptions configures hot reload behavior.
type HotSettingsOptions struct {
	// ConfigPath is the file to watch. Supports JSON, YAML, TOML, HCL,
	// INI, and Properties, same as Argus's UniversalConfigWatcher.
	ConfigPath string

	// PollInterval is how often to check for changes. Default 1s, floor 100ms.
	PollInterval time.Duration

	// Logger receives reload diagnostics. Defaults to NoOpLogger.
	Logger Logger
}

// NewHotSettings starts watching opts.ConfigPath and applying parsed
// settings to store.
func NewHotSettings(store *SettingsStore, opts HotSettingsOptions) (*HotSettings, error) {
	if opts.ConfigPath == "" {
		return nil, fmt.Errorf("config_path is required")
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = time.Second
	} else if opts.PollInterval < 100*time.Millisecond {
		opts.PollInterval = 100 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = NoOpLogger{}
	}

	hs := &HotSettings{store: store, logger: opts.Logger}

	watcher, err := argus.UniversalConfigWatcherWithConfig(opts.ConfigPath, hs.handleChange, argus.Config{
		PollInterval: opts.PollInterval,
	})
	if err != nil {
		return nil, err
	}
	hs.watcher = watcher
	return hs, nil
}

// Start begins watching, tolerating a watcher already running.
func (hs *HotSettings) Start() error {
	if hs.watcher.IsRunning() {
		return nil
	}
	return hs.watcher.Start()
}

// Stop stops watching the configuration file.
func (hs *HotSettings) Stop() error {
	return hs.watcher.Stop()
}

func (hs *HotSettings) handleChange(data map[string]interface{}) {
	section, ok := data["chronos"].(map[string]interface{})
	if !ok {
		section = data
	}

	updated := hs.store.Update(func(s *Settings) {
		if v, ok := parseDurationValue(section["static_interval"]); ok {
			s.StaticInterval = v
		}
		if v, ok := parseIntValue(section["min_value_length_for_compression"]); ok {
			s.MinValueLengthForCompression = v
		}
		if v, ok := parseIntValue(section["max_parent_key_count_per_item"]); ok {
			s.MaxParentKeyCountPerItem = v
		}
		if v, ok := parseIntValue(section["operation_count_before_soft_cleanup"]); ok {
			s.OperationCountBeforeSoftCleanup = v
		}
		if v, ok := parseIntValue(section["chances_of_auto_cleanup"]); ok {
			s.ChancesOfAutoCleanup = v
		}
		if v, ok := parseDurationValue(section["default_distributed_cache_absolute_expiration"]); ok {
			s.DefaultDistributedCacheAbsoluteExpiration = v
		}
	})

	hs.logger.Info("settings reloaded", "static_interval", updated.StaticInterval,
		"operation_count_before_soft_cleanup", updated.OperationCountBeforeSoftCleanup)
}

func parseIntValue(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func parseDurationValue(value interface{}) (time.Duration, bool) {
	if str, ok := value.(string); ok {
		if d, err := time.ParseDuration(str); err == nil {
			return d, true
		}
	}
	return 0, false
}
