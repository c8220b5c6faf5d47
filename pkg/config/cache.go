package config

import (
	"fmt"
	"strings"
	"time"
)

// CacheConfig controls the in-memory store warm-up and refresh behavior.
type CacheConfig struct {
	// WarmupTimeout bounds the initial full load from the database at startup.
	WarmupTimeout time.Duration `koanf:"warmupTimeout"`
	// RefreshTimeout bounds a single background refresh run.
	RefreshTimeout time.Duration `koanf:"refreshTimeout"`
}

// String returns a string representation of the cache configuration.
func (c *CacheConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Cache ---\n")
	b.WriteString(fmt.Sprintf("  warmupTimeout: %s\n", c.WarmupTimeout))
	b.WriteString(fmt.Sprintf("  refreshTimeout: %s\n", c.RefreshTimeout))
	return b.String()
}

func (c *CacheConfig) Validate() error {
	if c.WarmupTimeout <= 0 {
		return fmt.Errorf("cache warmup timeout is not configured")
	}
	if c.RefreshTimeout <= 0 {
		return fmt.Errorf("cache refresh timeout is not configured")
	}
	return nil
}
