package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/jbweber/rcopy/internal/config"
	"github.com/jbweber/rcopy/internal/remote"
)

// connect opens the SSH connection to the destination host.
func connect(ctx context.Context, cfg *config.Config) (*remote.Client, error) {
	client, err := remote.ConnectWithContext(ctx, sshOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Destination.Host, err)
	}
	return client, nil
}

func sshOptions(cfg *config.Config) remote.Options {
	return remote.Options{
		Host:          cfg.Destination.Host,
		User:          cfg.Destination.User,
		Port:          cfg.SSH.Port,
		KeyPath:       cfg.SSH.IdentityFile,
		Passphrase:    cfg.SSH.Passphrase,
		Password:      cfg.SSH.Password,
		KnownHosts:    cfg.SSH.KnownHosts,
		StrictHostKey: cfg.SSH.StrictHostKey,
		Timeout:       cfg.SSH.ConnectTimeout,
		Logger:        logrus.StandardLogger(),
	}
}

func closeClient(client *remote.Client) {
	if err := client.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close ssh connection: %v\n", err)
	}
}
