package config

import "time"

// CacheConfig controls the redis caches. User lookups are cached for TTL
// and dropped whenever the user is updated through the API. Report
// responses (statistics, license lists) are cached for ReportTTL; a zero
// ReportTTL disables that cache.
type CacheConfig struct {
	Enabled       bool
	TTL           time.Duration
	Prefix        string
	ReportTTL     time.Duration
	ReportMaxBody int // responses larger than this are not cached
}

// LoadCacheConfig reads CACHE_* variables, falling back to defaults.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:       envBool("CACHE_ENABLED", true),
		TTL:           envDur("CACHE_TTL", 10*time.Minute),
		Prefix:        envStr("CACHE_PREFIX", "te"),
		ReportTTL:     envDur("CACHE_REPORT_TTL", time.Minute),
		ReportMaxBody: envInt("CACHE_REPORT_MAX_BODY", 1<<20),
	}
}
