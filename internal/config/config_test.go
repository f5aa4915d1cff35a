package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-sms-must-flow/internal/common"
)

func viperFromYAML(t *testing.T, doc string) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBufferString(doc)))
	return v
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, DefaultDatabasePath(), cfg.DatabasePath)
	assert.Empty(t, cfg.RulesPath)
	assert.GreaterOrEqual(t, cfg.Workers, 1)
	assert.True(t, cfg.Heuristics)
	assert.Equal(t, time.Local, cfg.Location)
	assert.Equal(t, "INR", cfg.Currency)
	assert.Empty(t, cfg.Banks)
	assert.Empty(t, cfg.BlacklistTerms)
}

func TestLoadFrom_File(t *testing.T) {
	t.Setenv("SMSPICE_TEST_DIR", "/data")

	v := viperFromYAML(t, `
rules:
  path: $SMSPICE_TEST_DIR/rules.yaml
database:
  path: /tmp/inbox.db
classify:
  workers: 3
  heuristics: false
  timezone: Asia/Kolkata
blacklist:
  terms: ["reward points", "  ", "cashback"]
banks:
  citybk: City Bank
export:
  currency: usd
`)

	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, "/data/rules.yaml", cfg.RulesPath)
	assert.Equal(t, "/tmp/inbox.db", cfg.DatabasePath)
	assert.Equal(t, 3, cfg.Workers)
	assert.False(t, cfg.Heuristics)
	assert.Equal(t, "Asia/Kolkata", cfg.Location.String())
	assert.Equal(t, []string{"reward points", "cashback"}, cfg.BlacklistTerms)
	assert.Equal(t, map[string]string{"CITYBK": "City Bank"}, cfg.Banks)
	assert.Equal(t, "USD", cfg.Currency)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		errMsg string
	}{
		{name: "zero workers", doc: "classify: {workers: 0}", errMsg: "classify.workers"},
		{name: "unknown timezone", doc: "classify: {timezone: Mars/Olympus}", errMsg: "classify.timezone"},
		{name: "bad currency", doc: "export: {currency: rupees}", errMsg: "export.currency"},
		{name: "bad log level", doc: "logging: {level: loud}", errMsg: "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(viperFromYAML(t, tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
