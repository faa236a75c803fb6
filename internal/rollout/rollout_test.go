package rollout

import (
	"strconv"
	"testing"
)

func percentageConfig(p int) Config {
	return Config{
		Enabled:    true,
		Strategy:   StrategyPercentage,
		Percentage: Percent(p),
		FeatureKey: "unified-buttons",
		Salt:       "test-salt",
	}
}

func TestDecide_KillSwitch(t *testing.T) {
	identity := Identity{UserID: "user-1", SessionID: "sess-1"}
	configs := []Config{
		{Strategy: StrategyPercentage, Percentage: Percent(100)},
		{Strategy: StrategyUserCohort, Whitelist: []string{"user-1"}},
		{Strategy: StrategyEnvironment, Environment: "dev", Percentage: Percent(100)},
		{Strategy: "bogus"},
		{},
	}
	for _, cfg := range configs {
		cfg.Enabled = false
		if Decide(identity, cfg) {
			t.Errorf("disabled config %+v returned true", cfg)
		}
	}
}

func TestDecide_Deterministic(t *testing.T) {
	for _, p := range []int{1, 25, 50, 99} {
		cfg := percentageConfig(p)
		for i := 0; i < 20; i++ {
			id := Identity{UserID: "user-" + strconv.Itoa(i)}
			first := Decide(id, cfg)
			for n := 0; n < 50; n++ {
				if Decide(id, cfg) != first {
					t.Fatalf("Decide flickered for %+v at %d%%", id, p)
				}
			}
		}
	}
}

func TestDecide_PercentageBoundaries(t *testing.T) {
	for i := 0; i < 1000; i++ {
		id := Identity{UserID: "user-" + strconv.Itoa(i)}
		if Decide(id, percentageConfig(0)) {
			t.Fatalf("percentage 0 included %s", id.UserID)
		}
		if !Decide(id, percentageConfig(100)) {
			t.Fatalf("percentage 100 excluded %s", id.UserID)
		}
	}
}

func TestDecide_PercentageDistribution(t *testing.T) {
	cfg := percentageConfig(25)
	included := 0
	total := 10000
	for i := 0; i < total; i++ {
		if Decide(Identity{UserID: "user-" + strconv.Itoa(i)}, cfg) {
			included++
		}
	}
	pct := float64(included) / float64(total) * 100
	if pct < 20 || pct > 30 {
		t.Errorf("Expected ~25%% rollout, got %.2f%% (%d/%d)", pct, included, total)
	}
}

func TestDecide_RaisingPercentageOnlyAddsUsers(t *testing.T) {
	for i := 0; i < 2000; i++ {
		id := Identity{UserID: "user-" + strconv.Itoa(i)}
		if Decide(id, percentageConfig(10)) && !Decide(id, percentageConfig(20)) {
			t.Fatalf("%s dropped out when raising 10%% -> 20%%", id.UserID)
		}
	}
}

func TestDecide_SessionFallback(t *testing.T) {
	cfg := percentageConfig(100)
	if !Decide(Identity{SessionID: "sess-abc"}, cfg) {
		t.Error("session id should be used when there is no user id")
	}

	// The user id wins over the session id when both are present.
	cfg = percentageConfig(50)
	for i := 0; i < 200; i++ {
		userID := "user-" + strconv.Itoa(i)
		want := Decide(Identity{UserID: userID}, cfg)
		if got := Decide(Identity{UserID: userID, SessionID: "sess-" + strconv.Itoa(i)}, cfg); got != want {
			t.Fatalf("session id changed decision for %s", userID)
		}
	}
}

func TestDecide_Misconfiguration(t *testing.T) {
	identity := Identity{UserID: "user-1"}
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing percentage", Config{Enabled: true, Strategy: StrategyPercentage}},
		{"negative percentage", Config{Enabled: true, Strategy: StrategyPercentage, Percentage: Percent(-5)}},
		{"percentage above 100", Config{Enabled: true, Strategy: StrategyPercentage, Percentage: Percent(150)}},
		{"unknown strategy", Config{Enabled: true, Strategy: "coin-flip", Percentage: Percent(100)}},
		{"empty strategy", Config{Enabled: true, Percentage: Percent(100)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if Decide(identity, tt.cfg) {
				t.Error("expected false")
			}
		})
	}

	if Decide(Identity{}, percentageConfig(100)) {
		t.Error("absent identity should not be included")
	}
}

func TestDecide_UserCohort(t *testing.T) {
	cfg := Config{Enabled: true, Strategy: StrategyUserCohort, Whitelist: []string{"alice", "bob"}}

	if !Decide(Identity{UserID: "alice"}, cfg) {
		t.Error("whitelisted user excluded")
	}
	if Decide(Identity{UserID: "carol"}, cfg) {
		t.Error("non-whitelisted user included")
	}
	if Decide(Identity{SessionID: "alice"}, cfg) {
		t.Error("session id must not match the whitelist")
	}
	cfg.Whitelist = nil
	if Decide(Identity{UserID: "alice"}, cfg) {
		t.Error("empty whitelist included a user")
	}
}

func TestDecide_Environment(t *testing.T) {
	base := Config{Enabled: true, Strategy: StrategyEnvironment, FeatureKey: "unified-buttons", Salt: "s"}

	dev := base
	dev.Environment = "development"
	if !Decide(Identity{}, dev) {
		t.Error("development should include everyone, even without identity")
	}

	custom := base
	custom.Environment = "staging"
	custom.DevEnvironments = []string{"staging"}
	if !Decide(Identity{UserID: "u"}, custom) {
		t.Error("custom dev environment not honoured")
	}

	prod := base
	prod.Environment = "prod"
	if Decide(Identity{UserID: "u"}, prod) {
		t.Error("prod without percentage should exclude")
	}
	prod.Percentage = Percent(100)
	if !Decide(Identity{UserID: "u"}, prod) {
		t.Error("prod should fall back to percentage behaviour")
	}
	prod.Percentage = Percent(0)
	if Decide(Identity{UserID: "u"}, prod) {
		t.Error("prod at 0% should exclude")
	}
}

func TestDecide_FeaturesBucketIndependently(t *testing.T) {
	a := percentageConfig(50)
	b := percentageConfig(50)
	b.FeatureKey = "memory-wallet-v2"

	differ := 0
	for i := 0; i < 1000; i++ {
		id := Identity{UserID: "user-" + strconv.Itoa(i)}
		if Decide(id, a) != Decide(id, b) {
			differ++
		}
	}
	if differ == 0 {
		t.Error("expected cohorts to differ between features")
	}
}

func BenchmarkDecide(b *testing.B) {
	cfg := percentageConfig(37)
	id := Identity{UserID: "user-123"}
	for i := 0; i < b.N; i++ {
		Decide(id, cfg)
	}
}
