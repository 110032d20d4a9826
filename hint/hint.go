package hint

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Hint is a loaded hint: its prompt text plus the paths an agent needs to
// reach its resources and shell modules.
type Hint struct {
	// Name is the hint directory name.
	Name string
	// Dir is the absolute hint directory.
	Dir string
	// PromptPath is the prompt file that was selected for this platform.
	PromptPath string
	// Prompt is the trimmed prompt text.
	Prompt string
	// Modules are the sorted shell module paths under modules/.
	Modules []string
	// Metadata holds the optional hint.yaml contents.
	Metadata Metadata
}

// ResourcesDir returns the hint's resources directory (which may not exist).
func (h *Hint) ResourcesDir() string {
	return filepath.Join(h.Dir, "resources")
}

// ModulesDir returns the hint's modules directory (which may not exist).
func (h *Hint) ModulesDir() string {
	return filepath.Join(h.Dir, "modules")
}

// Metadata describes a hint, read from an optional hint.yaml in the hint
// directory. All fields are optional.
type Metadata struct {
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
	Version     string   `yaml:"version"`
}

// Info is a summary entry for listing available hints without loading them.
type Info struct {
	Name     string
	Metadata Metadata
}

// PlatformSuffix returns the hint file suffix for the current platform:
// "windows" on windows, "linux" otherwise.
func PlatformSuffix() string {
	if runtime.GOOS == "windows" {
		return "windows"
	}

	return "linux"
}

// SelectPromptFile picks the prompt file for a hint directory by platform.
//
// Priority:
//  1. hint_<suffix>.md
//  2. <name>_<suffix>.md
//  3. hint.md
//  4. <name>.md
func SelectPromptFile(hintDir, suffix string) (string, bool) {
	name := filepath.Base(hintDir)
	candidates := []string{
		filepath.Join(hintDir, "hint_"+suffix+".md"),
		filepath.Join(hintDir, name+"_"+suffix+".md"),
		filepath.Join(hintDir, "hint.md"),
		filepath.Join(hintDir, name+".md"),
	}

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, true
		}
	}

	return "", false
}

// readMetadata loads hint.yaml from a hint directory. A missing or unreadable
// file yields zero metadata, never an error; metadata is advisory.
func readMetadata(hintDir string) Metadata {
	var md Metadata

	data, err := os.ReadFile(filepath.Join(hintDir, "hint.yaml"))
	if err != nil {
		return md
	}

	_ = yaml.Unmarshal(data, &md)

	return md
}

// collectModules globs the hint's modules directory for shell modules
// matching the given patterns, returning a sorted list.
func collectModules(hintDir string, globs []string) []string {
	modulesDir := filepath.Join(hintDir, "modules")
	if info, err := os.Stat(modulesDir); err != nil || !info.IsDir() {
		return nil
	}

	var modules []string
	for _, g := range globs {
		matches, err := filepath.Glob(filepath.Join(modulesDir, g))
		if err != nil {
			continue
		}
		modules = append(modules, matches...)
	}

	sort.Strings(modules)

	return modules
}

// stripBOM removes a leading UTF-8 byte order mark if present.
func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}
