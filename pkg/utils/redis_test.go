package utils

import "testing"

func TestCapScriptsCompile(t *testing.T) {
	// Compile-time smoke test: scripts should be initialized.
	if capAcquireScript == nil || capReleaseScript == nil {
		t.Fatalf("expected scripts to be initialized")
	}
}

func TestRedisConfigDefaults(t *testing.T) {
	c := RedisConfig{Addr: "localhost:6379"}.withDefaults()
	if c.PoolSize <= 0 || c.DialTimeout <= 0 {
		t.Fatalf("expected defaults applied, got %+v", c)
	}
}
