package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/shopspring/decimal"
)

type Config struct {
	Address       string   `env:"RUN_ADDRESS"    envDefault:"localhost:8080"`
	Database      string   `env:"DATABASE_URI"`
	RedisAddress  string   `env:"REDIS_ADDRESS"`
	RedisPassword string   `env:"REDIS_PASSWORD"`
	RedisDB       int      `env:"REDIS_DB"       envDefault:"0"`
	LogLvl        string   `env:"LOG_LVL"        envDefault:"info"`
	LogFormat     string   `env:"LOG_FORMAT"     envDefault:"console"`
	JWTSecret     string   `env:"JWT_SECRET"     envDefault:"change-me"`
	CORSOrigins   []string `env:"CORS_ORIGINS"   envDefault:"http://localhost:3000,http://localhost:5173" envSeparator:","`

	Ledger   Ledger
	Checkout Checkout
}

type Ledger struct {
	OverdraftFloor decimal.Decimal `env:"OVERDRAFT_FLOOR" envDefault:"-15.00"`
}

type Checkout struct {
	APIURL        string        `env:"CHECKOUT_API_URL"        envDefault:"https://api.sumup.com/v0.1"`
	APIKey        string        `env:"CHECKOUT_API_KEY"`
	MerchantCode  string        `env:"CHECKOUT_MERCHANT_CODE"`
	ReaderID      string        `env:"CHECKOUT_READER_ID"`
	Currency      string        `env:"CURRENCY"                envDefault:"EUR"`
	PollInterval  time.Duration `env:"CHECKOUT_POLL_INTERVAL"  envDefault:"3s"`
	PollTimeout   time.Duration `env:"CHECKOUT_POLL_TIMEOUT"   envDefault:"120s"`
	SweepInterval time.Duration `env:"CHECKOUT_SWEEP_INTERVAL" envDefault:"30s"`
	Workers       int           `env:"CHECKOUT_WORKERS"        envDefault:"16"`
	CreateTimeout time.Duration `env:"CHECKOUT_CREATE_TIMEOUT" envDefault:"30s"`
	StatusTimeout time.Duration `env:"CHECKOUT_STATUS_TIMEOUT" envDefault:"10s"`
}

// MaxAttempts is the poll budget derived from timeout and interval.
func (c Checkout) MaxAttempts() int {
	if c.PollInterval <= 0 {
		return 1
	}
	n := int(c.PollTimeout / c.PollInterval)
	if n < 1 {
		return 1
	}
	return n
}

// RequestTimeout is the longest per-call deadline of the gateway client.
func (c Checkout) RequestTimeout() time.Duration {
	return max(c.CreateTimeout, c.StatusTimeout)
}

func New() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("can't parse env: %w", err)
	}

	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.StringVar(&cfg.Address, "a", cfg.Address, "address and port to run server")
	fs.StringVar(&cfg.Database, "d", cfg.Database, "database DSN, empty for in-memory storage")
	fs.StringVar(&cfg.RedisAddress, "r", cfg.RedisAddress, "redis address for checkout sessions")
	fs.StringVar(&cfg.LogLvl, "l", cfg.LogLvl, "log level")
	fs.StringVar(&cfg.Checkout.APIURL, "c", cfg.Checkout.APIURL, "checkout gateway base url")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return nil, err
	}

	if !strings.HasPrefix(cfg.Checkout.APIURL, "http://") && !strings.HasPrefix(cfg.Checkout.APIURL, "https://") {
		cfg.Checkout.APIURL = "https://" + cfg.Checkout.APIURL
	}
	cfg.Checkout.APIURL = strings.TrimRight(cfg.Checkout.APIURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Checkout.PollInterval <= 0 {
		errs = append(errs, errors.New("checkout poll interval must be positive"))
	}
	if c.Checkout.PollTimeout < c.Checkout.PollInterval {
		errs = append(errs, errors.New("checkout poll timeout must not be shorter than the interval"))
	}
	if c.Checkout.Workers <= 0 {
		errs = append(errs, errors.New("checkout workers must be positive"))
	}
	if c.Ledger.OverdraftFloor.IsPositive() {
		errs = append(errs, errors.New("overdraft floor must not be positive"))
	}
	return errors.Join(errs...)
}
