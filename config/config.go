// Package config loads the player configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/matt-g-everett/ledahead/prerender"
)

// Config holds all ledahead configuration.
type Config struct {
	Mqtt      Mqtt      `yaml:"mqtt"`
	Prerender Prerender `yaml:"prerender"`
	Playback  Playback  `yaml:"playback"`
	API       API       `yaml:"api"`
}

// Mqtt holds the broker connection and topic names.
type Mqtt struct {
	URL      string `yaml:"url"`
	ClientID string `yaml:"clientId"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Topics   Topics `yaml:"topics"`
}

// Topics are the MQTT topics the player uses.
type Topics struct {
	Stream  string `yaml:"stream"`
	Control string `yaml:"control"`
	Status  string `yaml:"status"`
}

// Prerender sizes the frame cache.
type Prerender struct {
	Capacity      int           `yaml:"capacity"`
	NotifyBuffer  int           `yaml:"notifyBuffer"`
	RetryInterval time.Duration `yaml:"retryInterval"`
}

// Playback controls what is played and how fast.
type Playback struct {
	FrameRate  float64       `yaml:"frameRate"`
	Animations []string      `yaml:"animations"`
	Cycle      time.Duration `yaml:"cycle"`
	Transition time.Duration `yaml:"transition"`
	Loop       bool          `yaml:"loop"`
}

// API configures the status server. An empty Listen disables it.
type API struct {
	Listen string `yaml:"listen"`
	Static string `yaml:"static"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	opts := prerender.DefaultOptions()
	return Config{
		Mqtt: Mqtt{
			URL:      "tcp://localhost:1883",
			ClientID: "ledahead",
			Topics: Topics{
				Stream:  "home/xmastree/stream",
				Control: "home/xmastree/control",
				Status:  "home/xmastree/status",
			},
		},
		Prerender: Prerender{
			Capacity:      opts.Capacity,
			NotifyBuffer:  opts.NotifyBuffer,
			RetryInterval: opts.RetryInterval,
		},
		Playback: Playback{
			FrameRate:  30,
			Cycle:      5 * time.Minute,
			Transition: 5 * time.Second,
			Loop:       true,
		},
		API: API{
			Listen: ":3000",
			Static: "client/dist",
		},
	}
}

// Load reads the YAML config at path over the defaults. Unknown fields are an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &cfg, nil
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	if c.Prerender.Capacity <= 0 {
		return fmt.Errorf("config: prerender.capacity %d: %w", c.Prerender.Capacity, prerender.ErrInvalidCapacity)
	}
	if c.Prerender.NotifyBuffer < 0 {
		return errors.New("config: prerender.notifyBuffer must not be negative")
	}
	if c.Playback.FrameRate <= 0 {
		return fmt.Errorf("config: playback.frameRate must be positive, got %v", c.Playback.FrameRate)
	}
	if len(c.Playback.Animations) == 0 {
		return errors.New("config: playback.animations is empty")
	}
	if c.Playback.Transition < 0 || c.Playback.Cycle < 0 {
		return errors.New("config: playback durations must not be negative")
	}
	if c.Mqtt.Topics.Stream == "" {
		return errors.New("config: mqtt.topics.stream is empty")
	}
	return nil
}

// PrerenderOptions converts the prerender section for prerender.NewRegistry.
func (c *Config) PrerenderOptions() prerender.Options {
	return prerender.Options{
		Capacity:      c.Prerender.Capacity,
		NotifyBuffer:  c.Prerender.NotifyBuffer,
		RetryInterval: c.Prerender.RetryInterval,
	}
}

// FrameInterval is the time between paint ticks.
func (c *Config) FrameInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.Playback.FrameRate)
}
