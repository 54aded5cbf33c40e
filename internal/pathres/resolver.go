// Package pathres resolves user-supplied file paths through an ordered list
// of strategies, from exact absolute lookup down to a fuzzy scan of the
// workspace. Every failed candidate is recorded so tooling can explain
// exactly why a resolution failed.
package pathres

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Strategy names the lookup that produced a resolution.
type Strategy string

const (
	StrategyAbsolute     Strategy = "absolute_path"
	StrategyRelativeCwd  Strategy = "relative_to_cwd"
	StrategyProjectRoot  Strategy = "relative_to_project_root"
	StrategyAllowedDir   Strategy = "from_allowed_directory"
	StrategyParentSearch Strategy = "parent_directory_search"
	StrategyFuzzy        Strategy = "fuzzy_match"
)

// Attempt records one candidate path that failed and why.
type Attempt struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Resolution is a successful lookup, including the trail of candidates tried
// before the winning strategy.
type Resolution struct {
	ResolvedPath string    `json:"resolved_path"`
	Strategy     Strategy  `json:"strategy"`
	Attempted    []Attempt `json:"attempted,omitempty"`
	Suggestions  []string  `json:"suggestions,omitempty"`
}

// ResolutionError carries the complete ordered attempt trail when every
// strategy fails.
type ResolutionError struct {
	Input     string
	Attempted []Attempt
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve path %q: %d candidates failed", e.Input, len(e.Attempted))
}

// Config tunes the resolver. Zero values select the defaults.
type Config struct {
	AllowedDirs []string // extra roots tried in order
	ParentDepth int      // ancestor levels for parent_directory_search (default 5)
	FuzzyDepth  int      // recursion depth for fuzzy_match (default 4)
}

const (
	defaultParentDepth = 5
	defaultFuzzyDepth  = 4

	// fuzzyMaxDistance is the exclusive edit-distance threshold for a
	// basename to count as a fuzzy match.
	fuzzyMaxDistance = 3
)

// skipDirs are dependency/build directories excluded from the fuzzy scan.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"target":       true,
	"__pycache__":  true,
	".next":        true,
	".venv":        true,
}

// projectMarkers identify a project root when walking up from the working
// directory.
var projectMarkers = []string{".git", "go.mod", "package.json", "pyproject.toml", "Cargo.toml"}

// Resolver performs multi-strategy path resolution rooted at a working
// directory. It only reads the filesystem; existence checks are inherently
// racy against concurrent deletes, which callers must tolerate.
type Resolver struct {
	cwd string
	cfg Config
}

// New creates a resolver rooted at cwd (empty means the process working
// directory).
func New(cwd string, cfg Config) (*Resolver, error) {
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("pathres: working directory: %w", err)
		}
		cwd = wd
	}
	if cfg.ParentDepth <= 0 {
		cfg.ParentDepth = defaultParentDepth
	}
	if cfg.FuzzyDepth <= 0 {
		cfg.FuzzyDepth = defaultFuzzyDepth
	}
	return &Resolver{cwd: cwd, cfg: cfg}, nil
}

// Resolve tries each strategy in order and returns the first success with
// the accumulated failure trail. When every strategy fails it returns a
// *ResolutionError holding the full trail.
func (r *Resolver) Resolve(input string) (*Resolution, error) {
	var attempts []Attempt

	expanded, expandErr := expandHome(input)
	if expandErr != nil {
		attempts = append(attempts, Attempt{Path: input, Reason: expandErr.Error()})
		expanded = input
	}

	// 1. Absolute path.
	if filepath.IsAbs(expanded) {
		if reason, ok := usable(expanded); ok {
			return &Resolution{ResolvedPath: expanded, Strategy: StrategyAbsolute, Attempted: attempts}, nil
		} else {
			attempts = append(attempts, Attempt{Path: expanded, Reason: reason})
		}
		// Relative strategies make no sense for absolute inputs; fall
		// through to the fuzzy basename scan.
		return r.fuzzy(input, attempts)
	}

	// 2. Relative to the working directory.
	candidate := filepath.Join(r.cwd, expanded)
	if reason, ok := usable(candidate); ok {
		return &Resolution{ResolvedPath: candidate, Strategy: StrategyRelativeCwd, Attempted: attempts}, nil
	} else {
		attempts = append(attempts, Attempt{Path: candidate, Reason: reason})
	}

	// 3. Relative to the project root, when distinct from cwd.
	if root := detectProjectRoot(r.cwd); root != "" && root != r.cwd {
		candidate = filepath.Join(root, expanded)
		if reason, ok := usable(candidate); ok {
			return &Resolution{ResolvedPath: candidate, Strategy: StrategyProjectRoot, Attempted: attempts}, nil
		} else {
			attempts = append(attempts, Attempt{Path: candidate, Reason: reason})
		}
	}

	// 4. Allowed directories, in configured order.
	for _, dir := range r.cfg.AllowedDirs {
		candidate = filepath.Join(dir, expanded)
		if reason, ok := usable(candidate); ok {
			return &Resolution{ResolvedPath: candidate, Strategy: StrategyAllowedDir, Attempted: attempts}, nil
		} else {
			attempts = append(attempts, Attempt{Path: candidate, Reason: reason})
		}
	}

	// 5. Exact filename match walking up the ancestor chain. The walk starts
	// at the working directory itself unless the input was a bare filename,
	// in which case strategy 2 already tried that exact candidate.
	base := filepath.Base(expanded)
	dir := r.cwd
	if base == expanded {
		dir = filepath.Dir(r.cwd)
	}
	for level := 0; level < r.cfg.ParentDepth && dir != ""; level++ {
		candidate = filepath.Join(dir, base)
		if reason, ok := usable(candidate); ok {
			return &Resolution{ResolvedPath: candidate, Strategy: StrategyParentSearch, Attempted: attempts}, nil
		} else {
			attempts = append(attempts, Attempt{Path: candidate, Reason: reason})
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	// 6. Fuzzy scan of the workspace.
	return r.fuzzy(input, attempts)
}

// usable reports whether the path exists and is a readable file or
// directory; on failure it returns the reason.
func usable(path string) (reason string, ok bool) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "does not exist", false
		}
		return err.Error(), false
	}
	if info.Mode().IsRegular() || info.IsDir() {
		f, err := os.Open(path) //nolint:gosec // G304: existence-checked candidate
		if err != nil {
			return "not readable", false
		}
		_ = f.Close()
		return "", true
	}
	return "not a regular file or directory", false
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path, fmt.Errorf("expand ~: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

// detectProjectRoot walks up from dir looking for a project marker.
// Returns "" when none is found.
func detectProjectRoot(dir string) string {
	for {
		for _, marker := range projectMarkers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
