package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// RulesFile is the administrator-maintained rule document. Any list present in
// the file replaces the matching admin list from the TOML config.
type RulesFile struct {
	RequiredSchemas        []RequiredSchema    `yaml:"required_schemas"`
	ConditionalSchemas     []ConditionalSchema `yaml:"conditional_schemas"`
	AvailablePreDaySchemas []string            `yaml:"available_pre_day_schemas"`
	RUHTriggerTypes        []string            `yaml:"ruh_trigger_types"`
	ImmediateConfirmTypes  []string            `yaml:"immediate_confirm_types"`
	EndOfDayConfirmTypes   []string            `yaml:"end_of_day_confirm_types"`
	Lonnskoder             []string            `yaml:"lonnskoder"`
	Vehicles               []string            `yaml:"vehicles"`
	IsWinter               *bool               `yaml:"is_winter"`
}

// LoadRules reads an admin rules YAML document.
func LoadRules(path string) (RulesFile, error) {
	var rules RulesFile
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return rules, fmt.Errorf("rules file %q not found", path)
		}
		return rules, fmt.Errorf("read rules file: %w", err)
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return rules, fmt.Errorf("parse rules file: %w", err)
	}
	return rules, nil
}

func (c *Config) applyRulesFile(path string) error {
	rules, err := LoadRules(path)
	if err != nil {
		return err
	}
	if rules.RequiredSchemas != nil {
		c.Admin.RequiredSchemas = rules.RequiredSchemas
	}
	if rules.ConditionalSchemas != nil {
		c.Admin.ConditionalSchemas = rules.ConditionalSchemas
	}
	if rules.AvailablePreDaySchemas != nil {
		c.Admin.AvailablePreDaySchemas = rules.AvailablePreDaySchemas
	}
	if rules.RUHTriggerTypes != nil {
		c.Admin.RUHTriggerTypes = rules.RUHTriggerTypes
	}
	if rules.ImmediateConfirmTypes != nil {
		c.Admin.ImmediateConfirmTypes = rules.ImmediateConfirmTypes
	}
	if rules.EndOfDayConfirmTypes != nil {
		c.Admin.EndOfDayConfirmTypes = rules.EndOfDayConfirmTypes
	}
	if rules.Lonnskoder != nil {
		c.Admin.Lonnskoder = rules.Lonnskoder
	}
	if rules.Vehicles != nil {
		c.Admin.Vehicles = rules.Vehicles
	}
	if rules.IsWinter != nil {
		c.Admin.IsWinter = *rules.IsWinter
	}
	// Rule data goes through the same canonicalization as TOML values.
	return c.normalizeAdmin()
}
