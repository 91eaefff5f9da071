package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the app's entire runtime setup. It is populated from a
// .config.json file, with a .env file as an optional source of the same
// values for container setups.
type Config struct {
	Port            int            `json:"port"`
	Env             string         `json:"env"`
	Pepper          string         `json:"pepper"`
	HMACKey         string         `json:"hmac_key"`
	CSRFKey         string         `json:"csrf_key"`
	CacheTTLSeconds int            `json:"cache_ttl_seconds"`
	Database        PostgresConfig `json:"database"`
	Redis           RedisConfig    `json:"redis"`
}

type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// RedisConfig holds the connection info of the page cache backend. An empty
// Addr means caching falls back to the in-process store.
type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// IsProd returns true if the app is running in production.
func (c Config) IsProd() bool {
	return c.Env == "prod"
}

// ConnectionInfo returns the database connection string.
func (pc PostgresConfig) ConnectionInfo() string {
	if pc.Password == "" {
		return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=disable", pc.Host, pc.Port, pc.User, pc.Name)
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", pc.Host, pc.Port, pc.User, pc.Password, pc.Name)
}

// DefaultConfig returns a Config suitable for local development.
func DefaultConfig() Config {
	return Config{
		Port:            1111,
		Env:             "dev",
		Pepper:          "secret-random-string",
		HMACKey:         "secret-hmac-key",
		CSRFKey:         "32-byte-long-auth-key-for-csrf!!",
		CacheTTLSeconds: 20,
		Database:        DefaultPostgresConfig(),
	}
}

// DefaultPostgresConfig returns the connection info of a local dev database.
func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "",
		Name:     "wtf_blog",
	}
}

// LoadConfig loads configuration from a .config.json file if present,
// otherwise it falls back to the default dev setup. A .env file, if present,
// is loaded first so its values can override individual fields. In
// production the config file is required and missing it is fatal.
func LoadConfig(prodRequired bool) Config {
	godotenv.Load()
	f, err := os.Open(".config.json")
	if err != nil {
		if prodRequired {
			panic(".config.json required in production")
		}
		return fromEnv(DefaultConfig())
	}
	defer f.Close()
	var c Config
	if err := json.NewDecoder(f).Decode(&c); err != nil {
		panic(err)
	}
	fmt.Println("Successfully loaded .config.json")
	return fromEnv(c)
}

// fromEnv overrides config fields with their environment counterparts.
func fromEnv(c Config) Config {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv("ENV"); v != "" {
		c.Env = v
	}
	if v := os.Getenv("PEPPER"); v != "" {
		c.Pepper = v
	}
	if v := os.Getenv("HMAC_KEY"); v != "" {
		c.HMACKey = v
	}
	if v := os.Getenv("CSRF_KEY"); v != "" {
		c.CSRFKey = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("DB_USER"); v != "" {
		c.Database.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		c.Database.Name = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	return c
}
