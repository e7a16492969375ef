package models

import (
	"encoding/json"
	"fmt"
)

type StageKind string

const (
	StageLeague   StageKind = "league"
	StageGroups   StageKind = "groups"
	StageKnockout StageKind = "knockout"
)

const DefaultAdvancersPerGroup = 2

// SeedingPolicy selects how the seeder pairs advancers in the first knockout round.
type SeedingPolicy string

const (
	SeedingStandard SeedingPolicy = "standard" // seed 1 vs seed N, 2 vs N-1, ...
	SeedingPaired   SeedingPolicy = "paired"   // seeds paired in listing order
)

// Stage is one phase of a tournament. Ordering defines the sequence within the tournament.
type Stage struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	Name         string    `json:"name" db:"name"`
	Kind         StageKind `json:"kind" db:"kind"`
	Ordering     int       `json:"ordering" db:"ordering"`
	ConfigJSON   *string   `json:"-" db:"config"` // Raw JSON string from DB

	Config StageConfig `json:"config,omitempty" db:"-"`
}

// StageConfig is the typed form of a stage's config blob. The concrete type always
// matches the stage kind.
type StageConfig interface {
	Kind() StageKind
}

type LeagueConfig struct{}

func (LeagueConfig) Kind() StageKind { return StageLeague }

// GroupsConfig links a groups stage to the knockout stage feeding its slots.
type GroupsConfig struct {
	FromStageID       *int `json:"from_stage_id,omitempty"`
	AdvancersPerGroup int  `json:"advancers_per_group,omitempty"`
}

func (GroupsConfig) Kind() StageKind { return StageGroups }

// KnockoutConfig links a knockout stage to the group/league stage it is seeded from.
type KnockoutConfig struct {
	FromStageID       *int          `json:"from_stage_id,omitempty"`
	AdvancersPerGroup int           `json:"advancers_per_group,omitempty"`
	Seeding           SeedingPolicy `json:"seeding,omitempty"`
}

func (KnockoutConfig) Kind() StageKind { return StageKnockout }

// rawStageConfig accepts both spellings of the source link that admin tooling writes.
type rawStageConfig struct {
	FromStageID       *int          `json:"from_stage_id"`
	FromStageIDCamel  *int          `json:"fromStageId"`
	AdvancersPerGroup int           `json:"advancers_per_group"`
	Seeding           SeedingPolicy `json:"seeding"`
}

func (r rawStageConfig) fromStageID() *int {
	if r.FromStageID != nil {
		return r.FromStageID
	}
	return r.FromStageIDCamel
}

// ParseStageConfig decodes the config blob of a stage of the given kind.
// An empty blob yields the zero config for that kind.
func ParseStageConfig(kind StageKind, raw *string) (StageConfig, error) {
	var rc rawStageConfig
	if raw != nil && *raw != "" {
		if err := json.Unmarshal([]byte(*raw), &rc); err != nil {
			return nil, fmt.Errorf("invalid %s stage config: %w", kind, err)
		}
	}
	if rc.AdvancersPerGroup < 0 {
		return nil, fmt.Errorf("invalid %s stage config: advancers_per_group must not be negative", kind)
	}

	switch kind {
	case StageLeague:
		return LeagueConfig{}, nil
	case StageGroups:
		return GroupsConfig{FromStageID: rc.fromStageID(), AdvancersPerGroup: rc.AdvancersPerGroup}, nil
	case StageKnockout:
		seeding := rc.Seeding
		switch seeding {
		case "":
			seeding = SeedingStandard
		case SeedingStandard, SeedingPaired:
		default:
			return nil, fmt.Errorf("invalid knockout stage config: unknown seeding %q", rc.Seeding)
		}
		return KnockoutConfig{FromStageID: rc.fromStageID(), AdvancersPerGroup: rc.AdvancersPerGroup, Seeding: seeding}, nil
	default:
		return nil, fmt.Errorf("unknown stage kind %q", kind)
	}
}

// ParseConfig populates s.Config from s.ConfigJSON.
func (s *Stage) ParseConfig() error {
	cfg, err := ParseStageConfig(s.Kind, s.ConfigJSON)
	if err != nil {
		return err
	}
	s.Config = cfg
	return nil
}

// FromStageID returns the explicit source-stage link, if the stage declares one.
func (s *Stage) FromStageID() *int {
	switch c := s.Config.(type) {
	case GroupsConfig:
		return c.FromStageID
	case KnockoutConfig:
		return c.FromStageID
	}
	return nil
}

// DeclaresSource reports whether the stage's config explicitly links it to stageID.
func (s *Stage) DeclaresSource(stageID int) bool {
	from := s.FromStageID()
	return from != nil && *from == stageID
}

// AdvancersPerGroup returns the configured value, or 0 when the stage leaves it unset.
func (s *Stage) AdvancersPerGroup() int {
	switch c := s.Config.(type) {
	case GroupsConfig:
		return c.AdvancersPerGroup
	case KnockoutConfig:
		return c.AdvancersPerGroup
	}
	return 0
}

func (s *Stage) IsKnockout() bool { return s.Kind == StageKnockout }
