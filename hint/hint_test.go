package hint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// newLibrary builds a hint library with one fully populated hint.
func newLibrary(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	dir := filepath.Join(root, "data-migration")
	writeFile(t, filepath.Join(dir, "hint.md"), "# Data Migration\nFollow the runbook.")
	writeFile(t, filepath.Join(dir, "hint.yaml"), "description: migrate datasets\ntags: [data, etl]\n")
	writeFile(t, filepath.Join(dir, "resources", "runbook.md"), "step one")
	writeFile(t, filepath.Join(dir, "resources", "sql", "schema.sql"), "create table t (id int);")
	writeFile(t, filepath.Join(dir, "modules", "b.sh"), "echo b")
	writeFile(t, filepath.Join(dir, "modules", "a.sh"), "echo a")
	writeFile(t, filepath.Join(dir, "modules", "skip.ps1"), "Write-Host skip")

	return root
}

func newLinuxRegistry(root string) *Registry {
	return NewRegistry(root, func(o *RegistryOptions) { o.PlatformSuffix = "linux" })
}

// ---------------------------------------------------------------------------
// Registry
// ---------------------------------------------------------------------------

func TestRegistryLoad(t *testing.T) {
	r := newLinuxRegistry(newLibrary(t))

	h, err := r.Load("data-migration")
	require.NoError(t, err)

	assert.Equal(t, "data-migration", h.Name)
	assert.Equal(t, "# Data Migration\nFollow the runbook.", h.Prompt)
	assert.Equal(t, "migrate datasets", h.Metadata.Description)
	require.Len(t, h.Modules, 2)
	assert.Equal(t, "a.sh", filepath.Base(h.Modules[0]))
	assert.Equal(t, "b.sh", filepath.Base(h.Modules[1]))
	assert.Same(t, h, r.Active())
}

func TestRegistryLoadUnknownHint(t *testing.T) {
	r := newLinuxRegistry(newLibrary(t))

	_, err := r.Load("nope")
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeHintNotFound))
	assert.Nil(t, r.Active())
}

func TestRegistryLoadReplacesActive(t *testing.T) {
	root := newLibrary(t)
	writeFile(t, filepath.Join(root, "triage", "triage.md"), "triage instructions")

	r := newLinuxRegistry(root)

	_, err := r.Load("data-migration")
	require.NoError(t, err)

	h, err := r.Load("triage")
	require.NoError(t, err)
	assert.Equal(t, "triage", r.Active().Name)
	assert.Equal(t, "triage instructions", h.Prompt)
}

func TestRegistryFailedLoadKeepsPrevious(t *testing.T) {
	root := newLibrary(t)
	writeFile(t, filepath.Join(root, "empty", "hint.md"), "   \n  ")

	r := newLinuxRegistry(root)

	_, err := r.Load("data-migration")
	require.NoError(t, err)

	_, err = r.Load("empty")
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeEmptyPrompt))
	assert.Equal(t, "data-migration", r.Active().Name)
}

func TestRegistryPromptSelectionPriority(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "deploy")
	writeFile(t, filepath.Join(dir, "deploy.md"), "generic by name")
	writeFile(t, filepath.Join(dir, "hint.md"), "generic")
	writeFile(t, filepath.Join(dir, "hint_linux.md"), "linux specific")

	r := newLinuxRegistry(root)

	h, err := r.Load("deploy")
	require.NoError(t, err)
	assert.Equal(t, "linux specific", h.Prompt)
}

func TestRegistryUnload(t *testing.T) {
	r := newLinuxRegistry(newLibrary(t))

	name, modules := r.Unload()
	assert.Empty(t, name)
	assert.Empty(t, modules)

	_, err := r.Load("data-migration")
	require.NoError(t, err)

	name, modules = r.Unload()
	assert.Equal(t, "data-migration", name)
	assert.Len(t, modules, 2) // a.sh and b.sh were available
	assert.Nil(t, r.Active())

	name, _ = r.Unload()
	assert.Empty(t, name)
}

func TestRegistryLoadUnloadLoadRoundTrip(t *testing.T) {
	r := newLinuxRegistry(newLibrary(t))

	first, err := r.Load("data-migration")
	require.NoError(t, err)

	firstResource, err := r.Resource("runbook.md")
	require.NoError(t, err)

	name, _ := r.Unload()
	require.Equal(t, "data-migration", name)
	require.Nil(t, r.Active())

	second, err := r.Load("data-migration")
	require.NoError(t, err)

	assert.Equal(t, first.Prompt, second.Prompt)
	assert.Equal(t, first.PromptPath, second.PromptPath)
	assert.Equal(t, first.Dir, second.Dir)
	assert.Equal(t, first.Modules, second.Modules)

	secondResource, err := r.Resource("runbook.md")
	require.NoError(t, err)
	assert.Equal(t, firstResource, secondResource)
}

func TestRegistryWindowsModuleGlobs(t *testing.T) {
	root := newLibrary(t)
	r := NewRegistry(root, func(o *RegistryOptions) { o.PlatformSuffix = "windows" })

	h, err := r.Load("data-migration")
	require.NoError(t, err)
	require.Len(t, h.Modules, 1)
	assert.Equal(t, "skip.ps1", filepath.Base(h.Modules[0]))
}

func TestRegistryList(t *testing.T) {
	root := newLibrary(t)
	writeFile(t, filepath.Join(root, "triage", "hint.md"), "x")

	r := newLinuxRegistry(root)

	infos, err := r.List()
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "data-migration", infos[0].Name)
	assert.Equal(t, "migrate datasets", infos[0].Metadata.Description)
	assert.Equal(t, "triage", infos[1].Name)
}

// ---------------------------------------------------------------------------
// Resources
// ---------------------------------------------------------------------------

func TestRegistryResource(t *testing.T) {
	r := newLinuxRegistry(newLibrary(t))

	_, err := r.Load("data-migration")
	require.NoError(t, err)

	content, err := r.Resource("runbook.md")
	require.NoError(t, err)
	assert.Equal(t, "step one", content)

	content, err = r.Resource("sql/schema.sql")
	require.NoError(t, err)
	assert.Equal(t, "create table t (id int);", content)
}

func TestRegistryResourceNoActiveHint(t *testing.T) {
	r := newLinuxRegistry(newLibrary(t))

	_, err := r.Resource("runbook.md")
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeNoActiveHint))
}

func TestRegistryResourceNotFound(t *testing.T) {
	r := newLinuxRegistry(newLibrary(t))

	_, err := r.Load("data-migration")
	require.NoError(t, err)

	_, err = r.Resource("missing.md")
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeResourceNotFound))
}

// ---------------------------------------------------------------------------
// Gate
// ---------------------------------------------------------------------------

func TestGateRejectsUnsafePaths(t *testing.T) {
	g := NewGate(t.TempDir())

	tests := []struct {
		name string
		path string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"absolute", "/etc/passwd"},
		{"backslash absolute", `\windows\system32`},
		{"drive letter", `C:\temp\x`},
		{"traversal", "../secrets.txt"},
		{"nested traversal", "a/../../secrets.txt"},
		{"windows traversal", `a\..\..\secrets.txt`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Resolve(tt.path)
			require.Error(t, err)
			assert.True(t, IsCode(err, CodePathRejected), "expected path_rejected, got %v", err)
		})
	}
}

func TestGateReadDirectoryRejected(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))

	g := NewGate(root)

	_, err := g.Read("sub")
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeResourceNotFound))
}

func TestGateReadStripsBOM(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "bom.txt"), "\ufeffcontent")

	g := NewGate(root)

	content, err := g.Read("bom.txt")
	require.NoError(t, err)
	assert.Equal(t, "content", content)
}
