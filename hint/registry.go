package hint

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/taskmesh/logging"
)

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	// PlatformSuffix selects platform specific prompt files and module globs.
	// Defaults to the current platform.
	PlatformSuffix string
	// ModuleGlobs overrides the module file patterns. Defaults to *.sh on
	// unix and *.psm1 plus *.ps1 on windows.
	ModuleGlobs []string
	// Logger receives hint switch events. Defaults to a no-op logger.
	Logger logging.Logger
}

// Registry manages the hint library rooted at a single directory and tracks
// the active hint. At most one hint is active at a time; Load atomically
// replaces the active hint and a failed Load leaves the previous hint in
// place.
type Registry struct {
	root   string
	suffix string
	globs  []string
	logger logging.Logger

	mu     sync.Mutex
	active *Hint
}

// NewRegistry creates a registry for the hint library at root.
func NewRegistry(root string, optFns ...func(o *RegistryOptions)) *Registry {
	opts := RegistryOptions{
		PlatformSuffix: PlatformSuffix(),
		Logger:         logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if len(opts.ModuleGlobs) == 0 {
		if opts.PlatformSuffix == "windows" {
			opts.ModuleGlobs = []string{"*.psm1", "*.ps1"}
		} else {
			opts.ModuleGlobs = []string{"*.sh"}
		}
	}

	return &Registry{
		root:   root,
		suffix: opts.PlatformSuffix,
		globs:  opts.ModuleGlobs,
		logger: opts.Logger,
	}
}

// Root returns the hint library root directory.
func (r *Registry) Root() string { return r.root }

// Load reads the named hint and makes it the active hint. The previous hint
// stays active if the load fails for any reason.
func (r *Registry) Load(name string) (*Hint, error) {
	hintDir, err := NewGate(r.root).Resolve(name)
	if err != nil {
		if IsCode(err, CodeResourceNotFound) {
			return nil, NewError(name, "hint directory not found", CodeHintNotFound)
		}
		return nil, NewError(name, "invalid hint name", CodePathRejected)
	}

	promptPath, ok := SelectPromptFile(hintDir, r.suffix)
	if !ok {
		return nil, NewError(name, "hint prompt not found", CodeHintNotFound)
	}

	data, err := os.ReadFile(promptPath)
	if err != nil {
		return nil, NewError(name, "failed to read hint prompt", CodeHintNotFound)
	}

	prompt := strings.TrimSpace(stripBOM(string(data)))
	if prompt == "" {
		return nil, NewError(name, "hint prompt is empty", CodeEmptyPrompt)
	}

	h := &Hint{
		Name:       name,
		Dir:        hintDir,
		PromptPath: promptPath,
		Prompt:     prompt,
		Modules:    collectModules(hintDir, r.globs),
		Metadata:   readMetadata(hintDir),
	}

	r.mu.Lock()
	previous := ""
	if r.active != nil {
		previous = r.active.Name
	}
	r.active = h
	r.mu.Unlock()

	r.logger.Info("hint loaded", "previous", previous, "hint", name, "modules", len(h.Modules))

	return h, nil
}

// Unload deactivates the active hint and returns its name along with the
// module paths that were available. No process-level teardown happens here:
// each command execution re-sources its modules, so dropping the references
// is enough. Unloading with no active hint is a no-op, not an error.
func (r *Registry) Unload() (string, []string) {
	r.mu.Lock()
	previous := ""
	var modules []string
	if r.active != nil {
		previous = r.active.Name
		modules = r.active.Modules
	}
	r.active = nil
	r.mu.Unlock()

	if previous != "" {
		r.logger.Info("hint unloaded", "hint", previous, "modules", len(modules))
	}

	return previous, modules
}

// Active returns the currently active hint, or nil.
func (r *Registry) Active() *Hint {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.active
}

// Resource reads a file from the active hint's resources directory through
// the resource gate. The path must be relative and confined to the
// resources directory.
func (r *Registry) Resource(relPath string) (string, error) {
	active := r.Active()
	if active == nil {
		return "", NewError("", "no active hint", CodeNoActiveHint)
	}

	resourcesDir := active.ResourcesDir()
	if info, err := os.Stat(resourcesDir); err != nil || !info.IsDir() {
		return "", NewError(active.Name, "hint has no resources directory", CodeNoActiveHint)
	}

	return NewGate(resourcesDir).Read(relPath)
}

// List enumerates the hint directories under the library root with their
// metadata, sorted by name. Hints are not loaded or activated.
func (r *Registry) List() ([]Info, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return nil, err
	}

	var infos []Info
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		infos = append(infos, Info{
			Name:     e.Name(),
			Metadata: readMetadata(filepath.Join(r.root, e.Name())),
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	return infos, nil
}
