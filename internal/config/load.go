package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Keys shared by flags, the config file and the environment.
const (
	KeyDestinationHost = "destination-host"
	KeyUser            = "user"
	KeyPort            = "port"
	KeyDataPool        = "data-pool"
	KeyForce           = "force"
	KeySSHPort         = "ssh-port"
	KeyIdentityFile    = "identity-file"
	KeyPassphrase      = "passphrase"
	KeyPassword        = "password"
	KeyKnownHosts      = "known-hosts"
	KeyStrictHostKey   = "strict-host-key"
	KeyConnectTimeout  = "connect-timeout"
	KeyListenCommand   = "listen-command"
	KeyRBDBinary       = "rbd-binary"
	KeySettleDelay     = "settle-delay"
	KeyBetweenDelay    = "between-delay"
	KeyProgress        = "progress"
	KeyLogLevel        = "log-level"
)

// EnvPrefix prefixes every environment variable, e.g. RCOPY_DATA_POOL.
const EnvPrefix = "RCOPY"

// Load builds a Config. Sources, lowest priority first: defaults, the YAML
// file at configFile (optional), environment variables, then flags that were
// set on the command line.
//
// The destination user, relay port and host also honour the plain USER, PORT
// and destination_host variables.
func Load(flags *pflag.FlagSet, configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv(KeyUser, EnvPrefix+"_USER", "USER")
	_ = v.BindEnv(KeyPort, EnvPrefix+"_PORT", "PORT")
	_ = v.BindEnv(KeyDestinationHost, EnvPrefix+"_DESTINATION_HOST", "destination_host", "DESTINATION_HOST")

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	cfg := &Config{
		Destination: DestinationConfig{
			Host: v.GetString(KeyDestinationHost),
			User: v.GetString(KeyUser),
			Port: v.GetInt(KeyPort),
		},
		SSH: SSHConfig{
			Port:           v.GetInt(KeySSHPort),
			IdentityFile:   v.GetString(KeyIdentityFile),
			Passphrase:     v.GetString(KeyPassphrase),
			Password:       v.GetString(KeyPassword),
			KnownHosts:     v.GetString(KeyKnownHosts),
			StrictHostKey:  v.GetBool(KeyStrictHostKey),
			ConnectTimeout: v.GetDuration(KeyConnectTimeout),
		},
		DataPool:      v.GetString(KeyDataPool),
		Force:         v.GetBool(KeyForce),
		ListenCommand: v.GetString(KeyListenCommand),
		RBDBinary:     v.GetString(KeyRBDBinary),
		SettleDelay:   v.GetDuration(KeySettleDelay),
		BetweenDelay:  v.GetDuration(KeyBetweenDelay),
		Progress:      v.GetBool(KeyProgress),
		LogLevel:      v.GetString(KeyLogLevel),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyPort, DefaultPort)
	v.SetDefault(KeyConnectTimeout, DefaultConnTimeout)
	v.SetDefault(KeyListenCommand, DefaultListenCommand)
	v.SetDefault(KeyRBDBinary, DefaultRBDBinary)
	v.SetDefault(KeySettleDelay, DefaultSettleDelay)
	v.SetDefault(KeyBetweenDelay, DefaultBetweenDelay)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
}
