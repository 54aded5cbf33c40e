package pathres

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/agnivade/levenshtein"
)

// fuzzy recursively scans the working directory (excluding dependency and
// build directories) up to the configured depth for a basename that equals
// the target case-insensitively or sits within edit distance of it. The
// first acceptable entry wins and carries a "did you mean" suggestion.
func (r *Resolver) fuzzy(input string, attempts []Attempt) (*Resolution, error) {
	target := filepath.Base(input)
	targetLower := strings.ToLower(target)

	var found string
	var foundBase string

	err := filepath.WalkDir(r.cwd, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree, keep scanning
		}
		if d.IsDir() {
			if path != r.cwd && (skipDirs[d.Name()] || r.depth(path) > r.cfg.FuzzyDepth) {
				return filepath.SkipDir
			}
			return nil
		}

		baseLower := strings.ToLower(d.Name())
		if baseLower == targetLower || levenshtein.ComputeDistance(baseLower, targetLower) < fuzzyMaxDistance {
			found = path
			foundBase = d.Name()
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		attempts = append(attempts, Attempt{Path: r.cwd, Reason: fmt.Sprintf("fuzzy scan: %v", err)})
	}

	if found != "" {
		return &Resolution{
			ResolvedPath: found,
			Strategy:     StrategyFuzzy,
			Attempted:    attempts,
			Suggestions:  []string{fmt.Sprintf("did you mean %q?", foundBase)},
		}, nil
	}

	attempts = append(attempts, Attempt{
		Path:   r.cwd,
		Reason: fmt.Sprintf("no entry within edit distance %d of %q", fuzzyMaxDistance-1, target),
	})
	return nil, &ResolutionError{Input: input, Attempted: attempts}
}

// depth returns how many levels below the resolver root the path sits.
func (r *Resolver) depth(path string) int {
	rel, err := filepath.Rel(r.cwd, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}
