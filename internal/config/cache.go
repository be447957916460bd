package config

import (
    "strings"
    "time"

    "github.com/spf13/viper"
)

// CacheConfig controls the Redis response cache on the store-owner routes.
// Methods is the set of cacheable HTTP methods, upper-cased.  KeyStrategy is
// one of route, route_query, method_route_query, user_route or
// user_route_query (the default, so owners never share entries).  Responses
// larger than MaxBodyBytes are passed through uncached.
type CacheConfig struct {
    Enabled      bool
    Methods      map[string]bool
    TTL          time.Duration
    KeyStrategy  string
    Prefix       string
    MaxBodyBytes int
}

func setCacheDefaults(v *viper.Viper) {
    v.SetDefault("CACHE_ENABLED", true)
    v.SetDefault("CACHE_METHODS", "GET")
    v.SetDefault("CACHE_TTL", "30s")
    v.SetDefault("CACHE_KEY_STRATEGY", "user_route_query")
    v.SetDefault("CACHE_PREFIX", "cache")
    v.SetDefault("CACHE_MAX_BODY_BYTES", 1048576)
}

func loadCache(v *viper.Viper) CacheConfig {
    return CacheConfig{
        Enabled:      v.GetBool("CACHE_ENABLED"),
        Methods:      parseMethods(v.GetString("CACHE_METHODS")),
        TTL:          v.GetDuration("CACHE_TTL"),
        KeyStrategy:  v.GetString("CACHE_KEY_STRATEGY"),
        Prefix:       v.GetString("CACHE_PREFIX"),
        MaxBodyBytes: v.GetInt("CACHE_MAX_BODY_BYTES"),
    }
}

func parseMethods(s string) map[string]bool {
    m := map[string]bool{}
    for _, p := range strings.Split(s, ",") {
        p = strings.TrimSpace(strings.ToUpper(p))
        if p != "" {
            m[p] = true
        }
    }
    return m
}
