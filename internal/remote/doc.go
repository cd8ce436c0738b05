// Package remote provides an SSH client for starting commands on the
// destination host.
//
// This package wraps golang.org/x/crypto/ssh to provide:
//   - Connection management (connect, disconnect, ping)
//   - Host, port, user and identity resolution from ~/.ssh/config
//   - One-shot command execution with exit status (Run, Exec)
//   - Long-running commands that are waited on later (Start)
//
// Connection Management:
//
//	client, err := remote.Connect(remote.Options{Host: "ceph-b", User: "admin"})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	if err := client.Ping(ctx); err != nil {
//	    return err
//	}
//
// Exit Status:
//
// A remote command that runs and exits non-zero is not an error for Run and
// Exec; the status is returned to the caller. Process.Wait reports non-zero
// exits as *ExitError. Errors are reserved for transport failures and
// cancellation.
//
// Client satisfies rbd.Shell, so an rbd.Manager can run against the remote
// cluster through it.
package remote
