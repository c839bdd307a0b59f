// Package deps reports whether the external programs subgen shells out to
// are installed.
package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Requirement defines an external dependency subgen relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	// VersionArgs, when set, are passed to Command to read a version line.
	VersionArgs []string
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Path        string
	Description string
	Optional    bool
	Available   bool
	Version     string
	Detail      string
}

// Satisfied is true when the dependency is available or not required.
func (s Status) Satisfied() bool {
	return s.Available || s.Optional
}

// OutputRunner executes a command and returns its combined output.
type OutputRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

const versionTimeout = 5 * time.Second

// CheckBinaries evaluates the provided requirements and reports availability.
// Version lines are read only when runner is non-nil.
func CheckBinaries(ctx context.Context, requirements []Requirement, runner OutputRunner) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = resolved
		if runner != nil && len(req.VersionArgs) > 0 {
			status.Version = readVersion(ctx, runner, resolved, req.VersionArgs)
		}
		results = append(results, status)
	}
	return results
}

// Missing returns the required dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, s := range statuses {
		if !s.Satisfied() {
			missing = append(missing, s)
		}
	}
	return missing
}

// DefaultOutputRunner runs the command with exec and returns combined output.
func DefaultOutputRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput() //nolint:gosec
}

func readVersion(ctx context.Context, runner OutputRunner, binary string, args []string) string {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	out, err := runner(ctx, binary, args...)
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(line)
}
