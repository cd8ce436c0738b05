// Package transfer copies rbd images to a pool on another host.
//
// This package orchestrates the low-level components (rbd, remote) into the
// copy workflow:
//   - Plan: Resolve source and destination selectors into image pairs
//   - Copier.Copy: Copy a single image
//   - Copier.Run: Copy every pair in order, pausing between transfers
//
// A copy applies the destination conflict policy, starts a listener piped
// into "rbd import" on the destination host over SSH, waits a fixed settle
// delay, then streams "rbd export" from the local cluster to the listener
// over a plain TCP connection.
//
// Error Handling:
//
// Every failure is fatal for the run. Run stops at the first failed transfer
// and returns the records collected so far; nothing is retried and a
// partially imported destination image is left in place.
//
// Context Support:
//
// Cancelling the context kills the local export, the remote listener and
// any pending delay.
//
// Example usage:
//
//	pairs, err := transfer.Plan(ctx, src, dest, localImages)
//	if err != nil {
//	    return err
//	}
//	copier := transfer.NewCopier(localImages, remoteImages, sshClient, opts)
//	transfers, err := copier.Run(ctx, pairs)
package transfer
