package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"openpeer/internal/message/info"
)

// Config holds runtime wiring options. Durations are kept as raw strings in
// the file and parsed by Resolve.
type Config struct {
	Home         string `toml:"home"`         // state directory, e.g. $HOME/.openpeer
	Domain       string `toml:"domain"`       // identity and service domain
	Bootstrapper string `toml:"bootstrapper"` // bootstrapper URL
	LogLevel     string `toml:"log_level"`    // zerolog level name
	LocationDB   string `toml:"location_db"`  // SQLite path, relative to Home
	PeerCache    int    `toml:"peer_cache"`   // peer registry size
	Listen       string `toml:"listen"`       // services dev server address
	PublicURL    string `toml:"public_url"`   // URL the services advertise

	TimeoutRaw       string `toml:"timeout"`
	ProofLifetimeRaw string `toml:"proof_lifetime"`

	Timeout       time.Duration `toml:"-"`
	ProofLifetime time.Duration `toml:"-"`

	Agent AgentConfig `toml:"agent"`
	Push  PushConfig  `toml:"push"`
}

type AgentConfig struct {
	UserAgent string `toml:"user_agent"`
	Name      string `toml:"name"`
	Image     string `toml:"image"`
	URL       string `toml:"url"`
}

type PushConfig struct {
	DeviceToken string `toml:"device_token"`
	Folder      string `toml:"folder"`
	MappedType  string `toml:"mapped_type"`
	Unread      bool   `toml:"unread"`
	Sound       string `toml:"sound"`
	ExpiresRaw  string `toml:"expires"`

	Expires time.Duration `toml:"-"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Domain:           "localhost",
		Bootstrapper:     "http://127.0.0.1:8480/",
		LogLevel:         "info",
		LocationDB:       "locations.db",
		PeerCache:        256,
		Listen:           "127.0.0.1:8480",
		TimeoutRaw:       "30s",
		ProofLifetimeRaw: "1h",
		Agent: AgentConfig{
			UserAgent: "openpeer/1.0",
			Name:      "openpeer",
		},
		Push: PushConfig{ExpiresRaw: "168h"},
	}
}

// LoadConfig reads path over the defaults. A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	return cfg, cfg.Resolve()
}

// Resolve parses the raw durations and fills Home.
func (c *Config) Resolve() error {
	var err error
	if c.Timeout, err = parseDuration("timeout", c.TimeoutRaw); err != nil {
		return err
	}
	if c.ProofLifetime, err = parseDuration("proof_lifetime", c.ProofLifetimeRaw); err != nil {
		return err
	}
	if c.Push.Expires, err = parseDuration("push.expires", c.Push.ExpiresRaw); err != nil {
		return err
	}
	if c.Home == "" {
		dir, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		c.Home = filepath.Join(dir, ".openpeer")
	}
	return nil
}

func parseDuration(name, raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config %s: %w", name, err)
	}
	return d, nil
}

// LocationDBPath returns the SQLite path, resolved against Home.
func (c Config) LocationDBPath() string {
	if c.LocationDB == ":memory:" || filepath.IsAbs(c.LocationDB) {
		return c.LocationDB
	}
	return filepath.Join(c.Home, c.LocationDB)
}

// AgentInfo is the agent block sent with requests.
func (c Config) AgentInfo() info.AgentInfo {
	return info.AgentInfo{
		UserAgent: c.Agent.UserAgent,
		Name:      c.Agent.Name,
		Image:     c.Agent.Image,
		URL:       c.Agent.URL,
	}
}

// PushRegistration is the push block of push-mailbox registration; the
// expiry is relative to now.
func (c Config) PushRegistration(now time.Time) info.PushRegistration {
	p := info.PushRegistration{
		DeviceToken: c.Push.DeviceToken,
		Folder:      c.Push.Folder,
		MappedType:  c.Push.MappedType,
		Unread:      c.Push.Unread,
		Sound:       c.Push.Sound,
	}
	if c.Push.Expires > 0 {
		p.Expires = now.Add(c.Push.Expires).UTC().Truncate(time.Second)
	}
	return p
}

// Encode writes c as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
