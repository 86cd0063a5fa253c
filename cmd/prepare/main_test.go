package main

import (
	"reflect"
	"testing"

	"github.com/tunogya/ecgprep/pkg/model"
	"github.com/tunogya/ecgprep/pkg/prepare"
)

func validConfig() Config {
	def := prepare.DefaultConfig()
	return Config{
		FeatureNBeats:  def.Window.FeatureNBeats,
		LeadNBeats:     def.Window.LeadNBeats,
		ForecastNBeats: def.Window.ForecastNBeats,
		ExcludeOnly:    "N",
		TestFrac:       def.TestFrac,
		VectorDim:      model.VectorDim96,
		BatchSize:      1000,
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"zero batch", func(c *Config) { c.BatchSize = 0 }, false},
		{"negative batch", func(c *Config) { c.BatchSize = -5 }, false},
		{"empty exclude", func(c *Config) { c.ExcludeOnly = "" }, false},
		{"only commas", func(c *Config) { c.ExcludeOnly = " , ," }, false},
		{"zero forecast", func(c *Config) { c.ForecastNBeats = 0 }, false},
		{"odd dimension", func(c *Config) { c.VectorDim = 95 }, false},
	}
	for _, tt := range tests {
		cfg := validConfig()
		tt.modify(&cfg)
		if err := cfg.validate(); (err == nil) != tt.ok {
			t.Errorf("%s: validate() = %v, want ok=%v", tt.name, err, tt.ok)
		}
	}
}

func TestSplitSymbols(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"N", []string{"N"}},
		{"N,?", []string{"N", "?"}},
		{" N , L,,", []string{"N", "L"}},
		{"", nil},
	}
	for _, tt := range tests {
		if got := splitSymbols(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitSymbols(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
