// Package rollout decides whether a user falls into the cohort that sees a
// gradually enabled feature.
//
// Decisions are pure: every input, including the deployment environment,
// arrives in Config. Percentage cohorts hash the user (or session) id with
// xxHash, so:
//   - the same identity always gets the same answer for a feature
//   - raising the percentage only adds users, never removes them
//   - a fixed salt keeps assignments stable across restarts
package rollout

import "slices"

// Strategy selects how a cohort is chosen.
type Strategy string

const (
	StrategyPercentage  Strategy = "percentage"
	StrategyUserCohort  Strategy = "user-cohort"
	StrategyEnvironment Strategy = "environment"
)

// DefaultDevEnvironments are the environments the environment strategy
// treats as non-production when Config.DevEnvironments is empty.
var DefaultDevEnvironments = []string{"dev", "development", "local"}

// Identity is who is asking. SessionID is used when there is no stable user id.
type Identity struct {
	UserID    string `json:"userId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// key returns the id used for hashing, preferring the user id.
func (i Identity) key() string {
	if i.UserID != "" {
		return i.UserID
	}
	return i.SessionID
}

// Config describes one feature's rollout.
type Config struct {
	Enabled    bool     `json:"enabled"`
	Strategy   Strategy `json:"strategy"`
	Percentage *int     `json:"percentage,omitempty"` // 0-100; nil means nobody
	Whitelist  []string `json:"whitelist,omitempty"`

	// FeatureKey and Salt seed the hash so cohorts differ between features.
	FeatureKey string `json:"featureKey,omitempty"`
	Salt       string `json:"-"`

	// Environment is the current deployment environment.
	Environment     string   `json:"environment,omitempty"`
	DevEnvironments []string `json:"devEnvironments,omitempty"`
}

// Decide reports whether identity is in the feature's cohort.
//
// Enabled=false wins over everything else. Any misconfiguration (unknown
// strategy, missing or out-of-range percentage, no identity to hash) yields
// false rather than an error.
func Decide(identity Identity, cfg Config) bool {
	if !cfg.Enabled {
		return false
	}

	switch cfg.Strategy {
	case StrategyPercentage:
		return inPercentage(identity, cfg)
	case StrategyUserCohort:
		return identity.UserID != "" && slices.Contains(cfg.Whitelist, identity.UserID)
	case StrategyEnvironment:
		if isDevEnvironment(cfg) {
			return true
		}
		return inPercentage(identity, cfg)
	default:
		return false
	}
}

func inPercentage(identity Identity, cfg Config) bool {
	if cfg.Percentage == nil {
		return false
	}
	pct := *cfg.Percentage
	if pct <= 0 || pct > 100 {
		return false
	}
	bucket := BucketUser(identity.key(), cfg.FeatureKey, cfg.Salt)
	if bucket < 0 {
		return false
	}
	return bucket < pct
}

func isDevEnvironment(cfg Config) bool {
	if cfg.Environment == "" {
		return false
	}
	devEnvs := cfg.DevEnvironments
	if len(devEnvs) == 0 {
		devEnvs = DefaultDevEnvironments
	}
	return slices.Contains(devEnvs, cfg.Environment)
}

// Percent is a convenience for building a Config literal.
func Percent(p int) *int { return &p }
