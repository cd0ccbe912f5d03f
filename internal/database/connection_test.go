package database

import (
	"testing"
	"time"

	"github.com/mroshb/friendgraph/internal/config"
)

func TestConnectRedis_Disabled(t *testing.T) {
	rdb, err := ConnectRedis(&config.Config{})
	if err != nil || rdb != nil {
		t.Errorf("ConnectRedis() = %v, %v; want nil, nil", rdb, err)
	}
}

func TestConnectRedis_Unreachable(t *testing.T) {
	cfg := &config.Config{RedisAddr: "127.0.0.1:1", StoreTimeoutMs: 200}

	start := time.Now()
	rdb, err := ConnectRedis(cfg)
	if err == nil {
		rdb.Close()
		t.Fatal("ConnectRedis() error = nil, want ping failure")
	}
	if time.Since(start) > 5*time.Second {
		t.Errorf("ConnectRedis() took %v, want bounded by store timeout", time.Since(start))
	}
}
