// Package config holds the copier configuration assembled from defaults, an
// optional YAML file, environment variables and command-line flags.
package config

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Default values.
const (
	DefaultPort          = 19000
	DefaultSettleDelay   = 2 * time.Second
	DefaultBetweenDelay  = 5 * time.Second
	DefaultConnTimeout   = 15 * time.Second
	DefaultListenCommand = "nc -l"
	DefaultRBDBinary     = "rbd"
	DefaultLogLevel      = "info"
)

// Config is the complete copier configuration.
type Config struct {
	Destination DestinationConfig
	SSH         SSHConfig

	DataPool      string        // Data pool for images created at the destination (EC pools)
	Force         bool          // Overwrite destination images
	ListenCommand string        // Remote listener, the relay port is appended
	RBDBinary     string        // rbd executable, local and remote
	SettleDelay   time.Duration // Wait after starting the remote listener
	BetweenDelay  time.Duration // Wait between transfers when copying several images
	Progress      bool          // Show a byte progress bar
	LogLevel      string        // logrus level name
}

// DestinationConfig describes where images are copied to.
type DestinationConfig struct {
	Host string // Destination host name or address (also the ssh target)
	User string // Remote login user
	Port int    // TCP port the remote listener binds
}

// SSHConfig holds remote shell connection settings.
type SSHConfig struct {
	Port           int           // SSH port (0 = ~/.ssh/config, then 22)
	IdentityFile   string        // Private key file
	Passphrase     string        // Private key passphrase
	Password       string        // Password authentication
	KnownHosts     string        // known_hosts file
	StrictHostKey  bool          // Verify the destination host key
	ConnectTimeout time.Duration // Dial and handshake timeout
}

// Validate checks the configuration for errors.
// Does not check that the destination is reachable - only config structure.
func (c *Config) Validate() error {
	if err := c.Destination.Validate(); err != nil {
		return err
	}

	if err := c.SSH.Validate(); err != nil {
		return fmt.Errorf("ssh: %w", err)
	}

	if c.SettleDelay < 0 {
		return fmt.Errorf("settle-delay must be >= 0, got %s", c.SettleDelay)
	}
	if c.BetweenDelay < 0 {
		return fmt.Errorf("between-delay must be >= 0, got %s", c.BetweenDelay)
	}
	if c.ListenCommand == "" {
		return fmt.Errorf("listen-command is required")
	}
	if c.RBDBinary == "" {
		return fmt.Errorf("rbd-binary is required")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log-level: %w", err)
	}

	return nil
}

// Validate checks destination configuration.
func (d *DestinationConfig) Validate() error {
	if d.Host == "" {
		return fmt.Errorf("either set the environment variable destination_host or provide it via the command line")
	}
	if d.User == "" {
		return fmt.Errorf("there's no destination user set. Set the environment variable USER")
	}
	if d.Port <= 0 || d.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", d.Port)
	}
	return nil
}

// Validate checks ssh configuration.
func (s *SSHConfig) Validate() error {
	if s.Port < 0 || s.Port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535, got %d", s.Port)
	}
	if s.ConnectTimeout < 0 {
		return fmt.Errorf("connect-timeout must be >= 0, got %s", s.ConnectTimeout)
	}
	return nil
}
