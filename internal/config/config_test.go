package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromLookup_Defaults(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(nil))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, 10, cfg.GeohashPrecision)
	assert.Equal(t, 9, cfg.SearchMaxCells)
	assert.Equal(t, 5*time.Second, cfg.SearchRangeTimeout)
	assert.Equal(t, 3, cfg.SearchMaxAttempts)
	assert.Equal(t, 200*time.Millisecond, cfg.SearchRetryBackoff)
	assert.Equal(t, 9, cfg.SearchMaxConcurrency)
	assert.Equal(t, 0.001, cfg.PrivacyFuzzDegrees)
}

func TestFromLookup_Overrides(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"PORT":                   "9000",
		"STORE_BACKEND":          "SQLite",
		"SQLITE_PATH":            "/tmp/posts.db",
		"GEOHASH_PRECISION":      "9",
		"SEARCH_RANGE_TIMEOUT":   "1500ms",
		"SEARCH_MAX_ATTEMPTS":    "5",
		"SEARCH_MAX_CONCURRENCY": "4",
		"PRIVACY_FUZZ_DEGREES":   "0",
	}))
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, BackendSQLite, cfg.StoreBackend)
	assert.Equal(t, "/tmp/posts.db", cfg.SQLitePath)
	assert.Equal(t, 9, cfg.GeohashPrecision)
	assert.Equal(t, 1500*time.Millisecond, cfg.SearchRangeTimeout)
	assert.Equal(t, 5, cfg.SearchMaxAttempts)
	assert.Equal(t, 4, cfg.SearchMaxConcurrency)
	assert.Zero(t, cfg.PrivacyFuzzDegrees)
}

func TestFromLookup_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"数値でない精度", map[string]string{"GEOHASH_PRECISION": "ten"}, "GEOHASH_PRECISION"},
		{"精度が範囲外", map[string]string{"GEOHASH_PRECISION": "13"}, "GEOHASH_PRECISION"},
		{"不正なタイムアウト", map[string]string{"SEARCH_RANGE_TIMEOUT": "5"}, "SEARCH_RANGE_TIMEOUT"},
		{"ゼロのタイムアウト", map[string]string{"SEARCH_RANGE_TIMEOUT": "0s"}, "SEARCH_RANGE_TIMEOUT"},
		{"試行回数0", map[string]string{"SEARCH_MAX_ATTEMPTS": "0"}, "SEARCH_MAX_ATTEMPTS"},
		{"負のバックオフ", map[string]string{"SEARCH_RETRY_BACKOFF": "-1s"}, "SEARCH_RETRY_BACKOFF"},
		{"NaNのずらし量", map[string]string{"PRIVACY_FUZZ_DEGREES": "NaN"}, "PRIVACY_FUZZ_DEGREES"},
		{"未対応のストア", map[string]string{"STORE_BACKEND": "redis"}, "STORE_BACKEND"},
		{"Firestoreのプロジェクトなし", map[string]string{"STORE_BACKEND": "firestore"}, "FIRESTORE_PROJECT_ID"},
		{"PostgresのURLなし", map[string]string{"STORE_BACKEND": "postgres"}, "DATABASE_URL"},
		{"Supabaseのキーなし", map[string]string{"STORE_BACKEND": "supabase", "SUPABASE_URL": "http://localhost"}, "SUPABASE_ANON_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromLookup(lookupFrom(tt.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFromLookup_BlankValuesUseDefaults(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{"PORT": "  ", "SEARCH_MAX_CELLS": ""}))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 9, cfg.SearchMaxCells)
}
