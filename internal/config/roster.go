package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/sla-tracker/internal/domain"
)

const scheduleStartLayout = "2006-01-02"

// RosterConfig is the on-disk roster and working-hours table.
type RosterConfig struct {
	Timezone       string              `yaml:"timezone"`
	DefaultWindow  domain.WorkingHours `yaml:"default_window"`
	CoverageWindow domain.WorkingHours `yaml:"coverage_window"`
	ScheduleStart  string              `yaml:"schedule_start"`
	Actors         []domain.Actor      `yaml:"actors"`
}

// DefaultRosterConfig returns the configuration used when no roster file exists.
func DefaultRosterConfig() RosterConfig {
	return RosterConfig{
		Timezone:       "UTC",
		DefaultWindow:  domain.DefaultWorkingHours,
		CoverageWindow: domain.DefaultWorkingHours,
	}
}

// LoadRoster reads the roster file. A missing file falls back to defaults.
func LoadRoster(path string) (RosterConfig, error) {
	if path == "" {
		return DefaultRosterConfig(), nil
	}

	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultRosterConfig(), nil
	}
	if err != nil {
		return RosterConfig{}, fmt.Errorf("read roster: %w", err)
	}
	return ParseRoster(content)
}

// ParseRoster decodes and validates roster YAML.
func ParseRoster(content []byte) (RosterConfig, error) {
	cfg := DefaultRosterConfig()
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return RosterConfig{}, fmt.Errorf("parse roster: %w", err)
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
	if err := cfg.Validate(); err != nil {
		return RosterConfig{}, err
	}
	return cfg, nil
}

// Validate checks windows, timezone and schedule start.
func (c RosterConfig) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.ScheduleStartTime(); err != nil {
		return err
	}
	if err := c.DefaultWindow.Validate(); err != nil {
		return fmt.Errorf("default_window: %w", err)
	}
	if err := c.CoverageWindow.Validate(); err != nil {
		return fmt.Errorf("coverage_window: %w", err)
	}
	seen := make(map[string]struct{}, len(c.Actors))
	for i, a := range c.Actors {
		if a.ID == "" {
			return fmt.Errorf("actors[%d]: missing id", i)
		}
		if _, dup := seen[a.ID]; dup {
			return fmt.Errorf("actors[%d]: duplicate id %q", i, a.ID)
		}
		seen[a.ID] = struct{}{}
		if a.Window != nil {
			if err := a.Window.Validate(); err != nil {
				return fmt.Errorf("actor %q window: %w", a.ID, err)
			}
		}
	}
	return nil
}

// Location returns the reference location for working hours.
func (c RosterConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ScheduleStartTime parses schedule_start in the reference location. An empty value
// yields the zero time, meaning the schedule has no start bound.
func (c RosterConfig) ScheduleStartTime() (time.Time, error) {
	if c.ScheduleStart == "" {
		return time.Time{}, nil
	}
	loc, err := c.Location()
	if err != nil {
		return time.Time{}, err
	}
	start, err := time.ParseInLocation(scheduleStartLayout, c.ScheduleStart, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("schedule_start: %w", err)
	}
	return start, nil
}

// Roster builds the runtime roster.
func (c RosterConfig) Roster() *domain.Roster {
	return domain.NewRoster(c.DefaultWindow, c.Actors)
}
