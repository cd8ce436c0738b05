package rbd

import (
	"fmt"
	"strings"
)

// DefaultListenCommand starts a netcat listener; the port is appended.
const DefaultListenCommand = "nc -l"

// ExportArgs returns the rbd arguments that write an image to standard output.
//
// Example: rbd/disk → --no-progress export rbd/disk -
func ExportArgs(ref Ref) []string {
	return []string{"--no-progress", "export", ref.String(), "-"}
}

// ImportArgs returns the rbd arguments that create an image from standard input.
// dataPool is optional and places the image data in a separate (usually
// erasure-coded) pool.
//
// Example: backup/disk → import --no-progress - backup/disk
func ImportArgs(ref Ref, dataPool string) []string {
	args := []string{"import", "--no-progress", "-", ref.String()}
	if dataPool != "" {
		args = append(args, "--data-pool", dataPool)
	}
	return args
}

// ImportPipeline returns the remote shell line that listens on port and pipes
// everything received into rbd import.
//
// Example: nc -l 19000 | rbd import --no-progress - backup/disk
func ImportPipeline(listenCommand string, port int, binary string, ref Ref, dataPool string) string {
	if listenCommand == "" {
		listenCommand = DefaultListenCommand
	}
	return fmt.Sprintf("%s %d | %s", listenCommand, port, CommandLine(binary, ImportArgs(ref, dataPool)))
}

// CommandLine joins binary and args into a single shell-quoted command line.
func CommandLine(binary string, args []string) string {
	if binary == "" {
		binary = DefaultBinary
	}
	quoted := make([]string, 0, len(args)+1)
	quoted = append(quoted, Quote(binary))
	for _, a := range args {
		quoted = append(quoted, Quote(a))
	}
	return strings.Join(quoted, " ")
}

// Quote quotes s for a POSIX shell. Common safe characters are left as-is;
// anything else is single-quoted with embedded quotes written as '\''.
func Quote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.IndexFunc(s, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return false
		}
		switch r {
		case '-', '_', '.', '/', '@', ':', ',', '+', '=':
			return false
		}
		return true
	}) == -1 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
