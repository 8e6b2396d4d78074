package httpd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is loaded once at startup and immutable afterwards.
type Config struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	// Workers sizes the concurrent variant's pool. Ignored by the
	// sequential variant.
	Workers int `json:"workers"`
	// Backlog sizes the bounded hand-off queue between the accept loop and
	// the worker pool; connections beyond it wait in the OS accept queue.
	Backlog      int           `json:"backlog"`
	ReadTimeout  time.Duration `json:"-"`
	WriteTimeout time.Duration `json:"-"`
	Algorithm    Algorithm     `json:"algorithm"`
	MaxBodyBytes int64         `json:"max_body_bytes"`
	Registration string        `json:"registration"`
	StudentName  string        `json:"student_name"`

	// Wire form of the timeouts, e.g. "30s".
	ReadTimeoutStr  string `json:"read_timeout"`
	WriteTimeoutStr string `json:"write_timeout"`
}

func DefaultConfig() Config {
	return Config{
		Host:         "0.0.0.0",
		Port:         8080,
		Workers:      10,
		Backlog:      20,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Algorithm:    AlgoSHA1,
		MaxBodyBytes: 1 << 20,
		Registration: "5217",
		StudentName:  "bench-station",
	}
}

// LoadConfig builds the effective configuration: defaults, then the JSON
// file at path (if non-empty), then HTTPBENCH_* environment overrides.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("httpd: open config: %w", err)
		}
		defer f.Close()
		if err := json.NewDecoder(f).Decode(&c); err != nil {
			return Config{}, fmt.Errorf("httpd: decode config: %w", err)
		}
	}
	if err := c.parseDurations(); err != nil {
		return Config{}, err
	}
	c = mergeEnv(c)
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) parseDurations() error {
	if s := strings.TrimSpace(c.ReadTimeoutStr); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("httpd: bad read_timeout %q: %w", s, err)
		}
		c.ReadTimeout = d
	}
	if s := strings.TrimSpace(c.WriteTimeoutStr); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("httpd: bad write_timeout %q: %w", s, err)
		}
		c.WriteTimeout = d
	}
	return nil
}

func mergeEnv(c Config) Config {
	if v := strings.TrimSpace(os.Getenv("HTTPBENCH_HOST")); v != "" {
		c.Host = v
	}
	if v := strings.TrimSpace(os.Getenv("HTTPBENCH_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Port = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("HTTPBENCH_WORKERS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("HTTPBENCH_ALGORITHM")); v != "" {
		c.Algorithm = Algorithm(strings.ToLower(v))
	}
	if v := strings.TrimSpace(os.Getenv("HTTPBENCH_REGISTRATION")); v != "" {
		c.Registration = v
	}
	if v := strings.TrimSpace(os.Getenv("HTTPBENCH_STUDENT_NAME")); v != "" {
		c.StudentName = v
	}
	return c
}

func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("httpd: invalid port %d", c.Port)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("httpd: workers must be positive, got %d", c.Workers)
	}
	if c.Backlog < 0 {
		return fmt.Errorf("httpd: backlog must not be negative, got %d", c.Backlog)
	}
	if !c.Algorithm.Valid() {
		return fmt.Errorf("httpd: unknown digest algorithm %q", c.Algorithm)
	}
	if len(c.Registration) != 4 {
		return fmt.Errorf("httpd: registration must have 4 digits, got %q", c.Registration)
	}
	for _, r := range c.Registration {
		if r < '0' || r > '9' {
			return fmt.Errorf("httpd: registration must be numeric, got %q", c.Registration)
		}
	}
	return nil
}

// Addr is the host:port the server listens on.
func (c Config) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
