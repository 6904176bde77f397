package main

import (
	"testing"
	"time"

	"oanda-dashboard/internal/cfg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTargets(t *testing.T) {
	c := cfg.Settings{
		Profiles: map[string]cfg.Profile{
			"practice": {
				BaseURL:  "https://api-fxpractice.oanda.com",
				Token:    "practice-token",
				Accounts: map[string]string{"primary": "101-1", "mt4": "101-2"},
			},
			"live": {
				BaseURL:  "https://api-fxtrade.oanda.com",
				Token:    "live-token",
				Accounts: map[string]string{"main": "001-1"},
			},
		},
		RESTTimeout: time.Second,
	}

	targets := buildTargets(c)
	require.Len(t, targets, 3)

	assert.Equal(t, "live", targets[0].Env)
	assert.Equal(t, "main", targets[0].Alias)
	assert.Equal(t, "001-1", targets[0].AccountID)

	assert.Equal(t, "practice", targets[1].Env)
	assert.Equal(t, "mt4", targets[1].Alias)
	assert.Equal(t, "101-2", targets[1].AccountID)
	assert.Equal(t, "primary", targets[2].Alias)
	assert.Equal(t, "101-1", targets[2].AccountID)

	// accounts of one environment share a broker client
	assert.Same(t, targets[1].Source, targets[2].Source)
	assert.NotSame(t, targets[0].Source, targets[1].Source)
}

func TestBuildTargets_Empty(t *testing.T) {
	assert.Empty(t, buildTargets(cfg.Settings{}))
}
