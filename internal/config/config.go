package config

import (
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

type Postgres struct {
	Host     string `help:"Postgres host." default:"localhost" env:"DB_HOST"`
	Port     string `help:"Postgres port." default:"5432" env:"DB_PORT"`
	User     string `help:"Postgres user." default:"kanso_user" env:"DB_USER"`
	Password string `help:"Postgres password." env:"DB_PASSWORD"`
	Name     string `help:"Postgres database." default:"kanso_db" env:"DB_NAME"`
	Table    string `help:"Key-value table name." default:"kv_store" env:"DB_TABLE"`
}

func (p Postgres) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     net.JoinHostPort(p.Host, p.Port),
		Path:     "/" + p.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

type Redis struct {
	Host      string        `help:"Redis host." default:"localhost" env:"REDIS_HOST"`
	Port      string        `help:"Redis port." default:"6379" env:"REDIS_PORT"`
	Password  string        `help:"Redis password." env:"REDIS_PASSWORD"`
	DB        int           `help:"Redis database index." default:"0" env:"REDIS_DB"`
	Cache     bool          `help:"Cache store reads in redis." env:"REDIS_CACHE"`
	CacheTTL  time.Duration `help:"TTL of cached values." default:"30m" env:"REDIS_CACHE_TTL"`
	RateLimit int           `help:"Requests per minute per namespace and IP; 0 disables." default:"100" env:"RATE_LIMIT"`
}

type Config struct {
	Addr     string `help:"HTTP listen address." default:":8080" env:"HTTP_ADDR"`
	LogLevel string `help:"Log level." default:"info" enum:"debug,info,warn,error" env:"LOG_LEVEL"`

	Store      string `help:"Storage backend." default:"sqlite" enum:"memory,sqlite,postgres,redis" env:"STORE_DRIVER"`
	SQLitePath string `help:"SQLite database file." name:"sqlite-path" default:"data/kanso.db" env:"SQLITE_PATH"`

	Postgres Postgres `embed:"" prefix:"pg-"`
	Redis    Redis    `embed:"" prefix:"redis-"`

	RolloverSchedule string `help:"Cron spec (with seconds) of the day rollover refresh." default:"5 0 0 * * *" env:"ROLLOVER_SCHEDULE"`
}

// UsesRedis reports whether any configured component needs a redis client.
func (c *Config) UsesRedis() bool {
	return c.Store == "redis" || c.Redis.Cache || c.Redis.RateLimit > 0
}

// Load reads .env (if present), then the environment, then args. Flags take
// precedence over environment variables.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	parser, err := kong.New(&cfg,
		kong.Name("kanso-habits"),
		kong.Description("Habit tracking service"),
		kong.UsageOnError(),
	)
	if err != nil {
		return nil, err
	}

	if _, err := parser.Parse(args); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
