package flow

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/taskmesh/logging"
)

// ErrFlowNotFound is returned when a flow name resolves to no template.
var ErrFlowNotFound = errors.New("flow not found")

// Flow is a loaded flow template.
type Flow struct {
	// Name is the canonical template name (file base name, lower-cased,
	// underscores folded to hyphens).
	Name string
	// DisplayName is the first non-empty line of the markdown with any
	// leading # stripped. Falls back to Name when the body is empty.
	DisplayName string
	// Path is the markdown file the flow was loaded from.
	Path string
	// Content is the trimmed markdown body.
	Content string
	// Metadata holds the optional <name>.yaml sidecar contents.
	Metadata Metadata
}

// Metadata describes a flow, read from an optional yaml sidecar.
type Metadata struct {
	Description string   `yaml:"description"`
	Forbidden   []string `yaml:"forbidden"` // flow names a child of this flow must not spawn
}

// ForbidsFlow reports whether the metadata forbids spawning the named flow.
func (m Metadata) ForbidsFlow(name string) bool {
	canonical := canonicalName(name)
	for _, f := range m.Forbidden {
		if canonicalName(f) == canonical {
			return true
		}
	}

	return false
}

// LibraryOptions configures a Library.
type LibraryOptions struct {
	// Logger receives lookup misses. Defaults to a no-op logger.
	Logger logging.Logger
}

// Library resolves flow names to templates stored in a single directory.
// Templates are read from disk on every lookup so edits take effect without
// restarting, matching how the hint registry treats its library.
type Library struct {
	dir    string
	logger logging.Logger
}

// NewLibrary creates a flow library backed by the given directory.
func NewLibrary(dir string, optFns ...func(o *LibraryOptions)) *Library {
	opts := LibraryOptions{Logger: logging.NoOpLogger{}}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Library{dir: dir, logger: opts.Logger}
}

// Dir returns the library directory.
func (l *Library) Dir() string { return l.dir }

// Lookup resolves a flow name to its template. Matching is case-insensitive
// and hyphen/underscore-insensitive against the file base name.
func (l *Library) Lookup(name string) (*Flow, error) {
	canonical := canonicalName(name)
	if canonical == "" {
		return nil, fmt.Errorf("%w: empty name", ErrFlowNotFound)
	}

	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFlowNotFound, name)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".md") {
			continue
		}

		base := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if canonicalName(base) != canonical {
			continue
		}

		return l.load(filepath.Join(l.dir, e.Name()), canonicalName(base))
	}

	return nil, fmt.Errorf("%w: %s", ErrFlowNotFound, name)
}

// List loads every flow template in the library, sorted by canonical name.
func (l *Library) List() ([]*Flow, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, err
	}

	var flows []*Flow
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".md") {
			continue
		}

		base := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		f, err := l.load(filepath.Join(l.dir, e.Name()), canonicalName(base))
		if err != nil {
			continue
		}
		flows = append(flows, f)
	}

	sort.Slice(flows, func(i, j int) bool { return flows[i].Name < flows[j].Name })

	return flows, nil
}

// ComposeTask synthesizes the task text seeded into a child agent. When the
// flow resolves, the task becomes "Task: Use <DisplayName> Flow, <raw>" and
// the flow is returned so its content can be injected into the child's
// instructions. An empty or unresolvable name degrades to the raw task with
// a nil flow.
func (l *Library) ComposeTask(name, rawTask string) (string, *Flow) {
	if strings.TrimSpace(name) == "" {
		return rawTask, nil
	}

	f, err := l.Lookup(name)
	if err != nil {
		l.logger.Warn("flow not resolved, using raw task", "flow", name)
		return rawTask, nil
	}

	return fmt.Sprintf("Task: Use %s Flow, %s", f.DisplayName, rawTask), f
}

func (l *Library) load(path, name string) (*Flow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFlowNotFound, name)
	}

	content := strings.TrimSpace(string(data))

	f := &Flow{
		Name:        name,
		DisplayName: displayName(content, name),
		Path:        path,
		Content:     content,
	}

	sidecar := strings.TrimSuffix(path, filepath.Ext(path)) + ".yaml"
	if md, err := os.ReadFile(sidecar); err == nil {
		_ = yaml.Unmarshal(md, &f.Metadata)
	}

	return f, nil
}

// displayName extracts the first non-empty line with leading # markers and
// surrounding whitespace removed.
func displayName(content, fallback string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		return strings.TrimSpace(strings.TrimLeft(line, "#"))
	}

	return fallback
}

func canonicalName(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", "-"))
}
