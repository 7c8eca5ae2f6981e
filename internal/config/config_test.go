package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("does-not-exist.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.App.ServiceName != "bookd" || cfg.App.HTTP.Port != 8080 {
		t.Fatalf("app defaults = %+v", cfg.App)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("redis addr = %q", cfg.Redis.Addr)
	}
	if cfg.Kafka.Enabled {
		t.Fatal("kafka must default to disabled")
	}
	if cfg.Kafka.TradesTopic != "trades.executed" {
		t.Fatalf("trades topic = %q", cfg.Kafka.TradesTopic)
	}
	if len(cfg.Symbols) != 3 || cfg.Symbols[0] != "BTC/USD" {
		t.Fatalf("symbols = %v", cfg.Symbols)
	}
	if !cfg.DB.BootstrapSchema {
		t.Fatal("schema bootstrap must default on")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("OBK_REDIS_ADDR", "redis.internal:6380")
	t.Setenv("OBK_APP_LOG_LEVEL", "debug")

	cfg, err := Load("does-not-exist.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Redis.Addr != "redis.internal:6380" {
		t.Fatalf("redis addr = %q, want env override", cfg.Redis.Addr)
	}
	if cfg.App.LogLevel != "debug" {
		t.Fatalf("log level = %q, want debug", cfg.App.LogLevel)
	}
}
