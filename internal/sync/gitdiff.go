package sync

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// diffChange is a single path change between two revisions.
type diffChange struct {
	path    string
	removed bool
}

// gitDiffChanges shells out to `git diff --name-status` for the comparison
// range (e.g. "HEAD~1..HEAD") and classifies each changed path. Renames and
// copies are split into their removal/addition halves.
func gitDiffChanges(ctx context.Context, repoDir, comparisonRange string) ([]diffChange, error) {
	cmd := exec.CommandContext(ctx, "git", "-C", repoDir, "diff", "--name-status", comparisonRange)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("git diff %q: %s", comparisonRange, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("git diff %q: %w", comparisonRange, err)
	}

	return parseNameStatus(string(out))
}

func parseNameStatus(out string) ([]diffChange, error) {
	var changes []diffChange

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		status := fields[0]
		if status == "" {
			continue
		}

		switch status[0] {
		case 'A', 'M', 'T':
			if len(fields) < 2 {
				return nil, fmt.Errorf("malformed diff line %q", line)
			}
			changes = append(changes, diffChange{path: fields[1]})

		case 'D':
			if len(fields) < 2 {
				return nil, fmt.Errorf("malformed diff line %q", line)
			}
			changes = append(changes, diffChange{path: fields[1], removed: true})

		case 'R', 'C':
			// "R100\told\tnew" - old path goes away (renames only), new path syncs
			if len(fields) < 3 {
				return nil, fmt.Errorf("malformed diff line %q", line)
			}
			if status[0] == 'R' {
				changes = append(changes, diffChange{path: fields[1], removed: true})
			}
			changes = append(changes, diffChange{path: fields[2]})

		default:
			// unmerged/unknown statuses are skipped, not fatal
			continue
		}
	}

	return changes, nil
}
