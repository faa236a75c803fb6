// Package gate decides which UI variant a request sees for each gated
// feature.
package gate

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/TimurManjosov/odegate/internal/analytics"
	"github.com/TimurManjosov/odegate/internal/rollout"
	"github.com/TimurManjosov/odegate/internal/telemetry"
)

// Variant is the UI path served for a feature.
type Variant string

const (
	Unified Variant = "unified"
	Legacy  Variant = "legacy"
)

// Gate holds the rollout configuration of every gated feature. It is
// immutable after construction and safe for concurrent use.
type Gate struct {
	features map[string]rollout.Config
	pub      analytics.Publisher
	log      zerolog.Logger
}

// New builds a gate over features. A nil publisher drops exposure events.
func New(features map[string]rollout.Config, pub analytics.Publisher, logger zerolog.Logger) *Gate {
	fs := make(map[string]rollout.Config, len(features))
	for k, cfg := range features {
		if cfg.FeatureKey == "" {
			cfg.FeatureKey = k
		}
		fs[k] = cfg
	}
	if pub == nil {
		pub = analytics.NopPublisher{}
	}
	return &Gate{features: fs, pub: pub, log: logger}
}

// Variant returns the variant for id. Unknown features and every
// misconfiguration resolve to Legacy.
func (g *Gate) Variant(ctx context.Context, feature string, id rollout.Identity) Variant {
	v := Legacy
	if cfg, ok := g.features[feature]; ok && rollout.Decide(id, cfg) {
		v = Unified
	}

	telemetry.RolloutDecisions.WithLabelValues(feature, string(v)).Inc()
	ev := analytics.NewEvent(analytics.TypeFeatureExposure, id.UserID, feature, string(v))
	if err := g.pub.Publish(ctx, ev); err != nil {
		g.log.Warn().Err(err).Str("feature", feature).Msg("exposure event not published")
	}
	return v
}

// Enabled reports whether id sees the unified variant of feature.
func (g *Gate) Enabled(ctx context.Context, feature string, id rollout.Identity) bool {
	return g.Variant(ctx, feature, id) == Unified
}

// Known reports whether feature is configured.
func (g *Gate) Known(feature string) bool {
	_, ok := g.features[feature]
	return ok
}

// Features lists configured feature keys in sorted order.
func (g *Gate) Features() []string {
	keys := make([]string, 0, len(g.features))
	for k := range g.features {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
