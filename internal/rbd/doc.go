// Package rbd drives the Ceph rbd command-line tool.
//
// This package handles all image operations the copier needs:
//   - Image listing and inspection (ls, info)
//   - Existence checks and removal with rbd's exit status semantics
//   - Streaming exports to an io.Writer
//   - Building the remote import pipeline (netcat listener piped into rbd import)
//
// Runners:
//
// Every rbd invocation goes through a Runner. LocalRunner executes rbd on the
// local host with os/exec; ShellRunner executes it through a remote shell
// (see internal/remote). The same Manager therefore works on both ends of a
// transfer:
//
//	local := rbd.NewManager(rbd.LocalRunner{})
//	remote := rbd.NewManager(rbd.ShellRunner{Shell: sshClient})
//
//	images, err := local.ListImages(ctx, "rbd")
//	if err != nil {
//	    return err
//	}
//
//	result, err := remote.RemoveImage(ctx, rbd.Ref{Pool: "backup", Image: images[0]})
//	if err != nil {
//	    return err
//	}
//
// Exit Status:
//
// A command that runs but exits non-zero is reported as *CommandError, which
// carries the exit code and stderr. Errors that prevent the command from
// running at all (missing binary, broken SSH connection) are returned as-is.
// "rbd rm" exits 2 when the image does not exist; RemoveImage reports that as
// RemoveNotFound instead of an error.
package rbd
