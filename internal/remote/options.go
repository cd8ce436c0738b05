package remote

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kevinburke/ssh_config"
	"github.com/sirupsen/logrus"
)

// DefaultPort is the SSH port used when neither the options nor ~/.ssh/config
// name one.
const DefaultPort = 22

// DefaultTimeout bounds the TCP dial and SSH handshake.
const DefaultTimeout = 15 * time.Second

// Options configures a connection to the remote host.
type Options struct {
	Host          string        // Host name, address or ~/.ssh/config alias
	User          string        // Login user
	Port          int           // SSH port (0 = ~/.ssh/config, then 22)
	KeyPath       string        // Private key file (empty = IdentityFile, then ~/.ssh defaults)
	Passphrase    string        // Private key passphrase
	Password      string        // Password authentication
	KnownHosts    string        // known_hosts file used when StrictHostKey is set
	StrictHostKey bool          // Verify host keys against KnownHosts
	Timeout       time.Duration // Dial and handshake timeout (0 = DefaultTimeout)

	Logger logrus.FieldLogger // Defaults to the logrus standard logger
}

// configGet reads ~/.ssh/config. Tests replace it.
var configGet = ssh_config.Get

// resolved holds the effective connection parameters.
type resolved struct {
	addr     string
	hostname string
	user     string
	keyFiles []string
}

// resolve applies ~/.ssh/config and defaults to opts.
func (o Options) resolve() (resolved, error) {
	if o.Host == "" {
		return resolved{}, fmt.Errorf("remote host is required")
	}

	r := resolved{hostname: o.Host, user: o.User}

	if h := configGet(o.Host, "HostName"); h != "" {
		r.hostname = h
	}

	if r.user == "" {
		r.user = configGet(o.Host, "User")
	}
	if r.user == "" {
		return resolved{}, fmt.Errorf("remote user is required for %s", o.Host)
	}

	port := o.Port
	if port == 0 {
		port = DefaultPort
		if p := configGet(o.Host, "Port"); p != "" {
			n, err := strconv.Atoi(p)
			if err != nil {
				return resolved{}, fmt.Errorf("invalid Port %q in ssh config for %s: %w", p, o.Host, err)
			}
			port = n
		}
	}
	if port <= 0 || port > 65535 {
		return resolved{}, fmt.Errorf("invalid ssh port %d", port)
	}
	r.addr = net.JoinHostPort(r.hostname, strconv.Itoa(port))

	r.keyFiles = o.keyFiles()

	return r, nil
}

// keyFiles returns the private keys to try, most specific first.
// An explicit KeyPath is always returned so a typo surfaces as an error;
// the others are only returned when they exist.
func (o Options) keyFiles() []string {
	if o.KeyPath != "" {
		return []string{expandHome(o.KeyPath)}
	}

	var candidates []string
	if kf := configGet(o.Host, "IdentityFile"); kf != "" {
		candidates = append(candidates, expandHome(kf))
	}
	home, err := os.UserHomeDir()
	if err == nil {
		for _, name := range []string{"id_ed25519", "id_ecdsa", "id_rsa"} {
			candidates = append(candidates, filepath.Join(home, ".ssh", name))
		}
	}

	var files []string
	seen := make(map[string]bool)
	for _, c := range candidates {
		if seen[c] {
			continue
		}
		seen[c] = true
		if _, err := os.Stat(c); err == nil {
			files = append(files, c)
		}
	}
	return files
}

// expandHome expands a leading ~ since ssh_config does not.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
