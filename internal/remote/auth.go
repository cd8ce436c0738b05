package remote

import (
	"errors"
	"fmt"
	"net"
	"os"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// authMethods collects every usable authentication method: key files, the
// password, then the ssh-agent when SSH_AUTH_SOCK is set.
func authMethods(keyFiles []string, passphrase, password string, explicitKey bool) ([]ssh.AuthMethod, func(), error) {
	var (
		auths   []ssh.AuthMethod
		signers []ssh.Signer
	)

	for _, kf := range keyFiles {
		signer, err := loadSigner(kf, passphrase)
		if err != nil {
			if explicitKey {
				return nil, nil, fmt.Errorf("load key %s: %w", kf, err)
			}
			// Default keys that cannot be used are skipped
			continue
		}
		signers = append(signers, signer)
	}
	if len(signers) > 0 {
		auths = append(auths, ssh.PublicKeys(signers...))
	}

	if password != "" {
		auths = append(auths, ssh.Password(password))
	}

	cleanup := func() {}
	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		if conn, err := net.Dial("unix", sock); err == nil {
			ag := agent.NewClient(conn)
			auths = append(auths, ssh.PublicKeysCallback(ag.Signers))
			cleanup = func() { _ = conn.Close() }
		}
	}

	return auths, cleanup, nil
}

// loadSigner loads a private key with an optional passphrase.
func loadSigner(path, passphrase string) (ssh.Signer, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if passphrase != "" {
		return ssh.ParsePrivateKeyWithPassphrase(b, []byte(passphrase))
	}
	s, err := ssh.ParsePrivateKey(b)
	if err == nil {
		return s, nil
	}
	var passphraseMissingError *ssh.PassphraseMissingError
	if errors.As(err, &passphraseMissingError) {
		return nil, fmt.Errorf("private key is encrypted; provide a passphrase")
	}
	return nil, err
}

// hostKeyCallback verifies against known_hosts when strict, and otherwise
// accepts any host key.
func hostKeyCallback(knownHostsPath string, strict bool) (ssh.HostKeyCallback, error) {
	if !strict {
		return ssh.InsecureIgnoreHostKey(), nil
	}

	if knownHostsPath == "" {
		knownHostsPath = expandHome("~/.ssh/known_hosts")
	}
	if _, err := os.Stat(knownHostsPath); err != nil {
		return nil, fmt.Errorf("known_hosts file not found at %s and strict host key checking is enabled", knownHostsPath)
	}

	cb, err := knownhosts.New(knownHostsPath)
	if err != nil {
		return nil, fmt.Errorf("known_hosts: %w", err)
	}
	return cb, nil
}
