package gomhd

import (
	"testing"

	"github.com/nabbar/gomhd/types"
)

func validConfig() Config {
	return Config{
		Name:           "test",
		Listen:         ":0",
		ConnLimit:      16,
		PoolSize:       4096,
		RequestHandler: func(ctx RequestContext) types.Action { return types.AbortAction },
	}
}

func TestConfigValidateAccepts(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected a well-formed config to validate, got %v", err)
	}
}

func TestConfigValidateRejectsMissingRequired(t *testing.T) {
	cases := []struct {
		name string
		fn   func(c Config) Config
	}{
		{"missing name", func(c Config) Config { c.Name = ""; return c }},
		{"missing listen and listener", func(c Config) Config { c.Listen = ""; return c }},
		{"zero conn limit", func(c Config) Config { c.ConnLimit = 0; return c }},
		{"pool size under floor", func(c Config) Config { c.PoolSize = 16; return c }},
		{"missing handler", func(c Config) Config { c.RequestHandler = nil; return c }},
	}
	for _, tc := range cases {
		cfg := tc.fn(validConfig())
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected Validate to reject the config", tc.name)
		}
	}
}

func TestConfigCloneIsIndependentValue(t *testing.T) {
	cfg := validConfig()
	clone := cfg.Clone()

	clone.Name = "renamed"

	if cfg.Name == clone.Name {
		t.Fatal("expected Clone to return a value copy, not share the Name field")
	}
}

func TestConfigBindableFallsBackToListen(t *testing.T) {
	cfg := validConfig()
	if got := cfg.bindable(); got != ":0" {
		t.Fatalf("expected bindable to fall back to Listen, got %q", got)
	}
}
