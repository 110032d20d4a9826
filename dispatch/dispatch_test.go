//go:build !windows

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/taskmesh/command"
	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/hint"
	"github.com/hupe1980/taskmesh/internal/util"
	"github.com/hupe1980/taskmesh/tag"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *core.RunContext, string) {
	t.Helper()

	hintsRoot := t.TempDir()
	writeFile(t, filepath.Join(hintsRoot, "deploy", "hint.md"), "Deployment hint prompt.")
	writeFile(t, filepath.Join(hintsRoot, "deploy", "resources", "checklist.md"), "check everything")
	writeFile(t, filepath.Join(hintsRoot, "deploy", "modules", "helpers.sh"), "deploy_greet() { echo deploy-ready; }\n")

	project := t.TempDir()

	registry := hint.NewRegistry(hintsRoot, func(o *hint.RegistryOptions) { o.PlatformSuffix = "linux" })
	executor := command.NewExecutor()
	d := NewDispatcher(executor, registry, func(o *Options) { o.CommandTimeout = 5 * time.Second })

	rc := core.NewRunContext(context.Background(), "run-1", "root", 0, core.EnvSnapshot{
		StartDir:   project,
		ProjectDir: project,
	}, nil)

	return d, rc, project
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

func TestDispatchCommandSuccess(t *testing.T) {
	d, rc, _ := newTestDispatcher(t)

	out := d.Dispatch(rc, core.NewCommandInvocation(tag.TagBashCall, "echo hello", core.Span{}), nil)

	assert.True(t, strings.HasPrefix(out, `<bash_call_result id="success">`))
	assert.Contains(t, out, "Command succeeded, output:\nhello")
	assert.True(t, strings.HasSuffix(out, "</bash_call_result>"))
}

func TestDispatchCommandFailure(t *testing.T) {
	d, rc, _ := newTestDispatcher(t)

	out := d.Dispatch(rc, core.NewCommandInvocation(tag.TagBashCall, "echo oops 1>&2; exit 3", core.Span{}), nil)

	assert.Contains(t, out, `id="failed"`)
	assert.Contains(t, out, "Command failed (exit code: 3)")
	assert.Contains(t, out, "oops")
}

func TestDispatchCommandTimeout(t *testing.T) {
	hintsRoot := t.TempDir()
	registry := hint.NewRegistry(hintsRoot, func(o *hint.RegistryOptions) { o.PlatformSuffix = "linux" })
	d := NewDispatcher(command.NewExecutor(), registry, func(o *Options) { o.CommandTimeout = 100 * time.Millisecond })
	rc := core.NewRunContext(context.Background(), "run-1", "root", 0, core.EnvSnapshot{}, nil)

	out := d.Dispatch(rc, core.NewCommandInvocation(tag.TagBashCall, "sleep 5", core.Span{}), nil)

	assert.Contains(t, out, `id="failed"`)
	assert.Contains(t, out, "Command timed out")
}

func TestDispatchCommandPreservesTagFamily(t *testing.T) {
	d, rc, _ := newTestDispatcher(t)

	out := d.Dispatch(rc, core.NewCommandInvocation(tag.TagPsCall, "echo hi", core.Span{}), nil)

	assert.True(t, strings.HasPrefix(out, `<ps_call_result id=`))
}

func TestDispatchCommandSeesActiveHintModules(t *testing.T) {
	d, rc, _ := newTestDispatcher(t)

	loadBody := "builtin.hint\naction: load\nname: deploy"
	tool, args := tag.ParseBuiltinBody(loadBody)
	out := d.Dispatch(rc, core.NewBuiltinInvocation(tool, args, loadBody, core.Span{}), nil)
	require.Contains(t, out, `id="success"`)

	out = d.Dispatch(rc, core.NewCommandInvocation(tag.TagBashCall, "deploy_greet; echo \"$AGENT_HINT_MODULES\"", core.Span{}), nil)

	assert.Contains(t, out, "deploy-ready")
	assert.Contains(t, out, filepath.Join("deploy", "modules"))
}

func TestDispatchCommandAfterUnloadHasNoModules(t *testing.T) {
	d, rc, _ := newTestDispatcher(t)

	_, err := d.Registry().Load("deploy")
	require.NoError(t, err)
	d.Registry().Unload()

	out := d.Dispatch(rc, core.NewCommandInvocation(tag.TagBashCall, "echo \"mods=$AGENT_HINT_MODULES\"", core.Span{}), nil)

	assert.Contains(t, out, "mods=\n")
}

// ---------------------------------------------------------------------------
// Builtins
// ---------------------------------------------------------------------------

func TestDispatchBuiltinHintLoad(t *testing.T) {
	d, rc, _ := newTestDispatcher(t)

	inv := core.NewBuiltinInvocation("hint", map[string]string{"action": "load", "name": "deploy"}, "", core.Span{})
	out := d.Dispatch(rc, inv, nil)

	assert.Contains(t, out, `<builtin_result id="success">`)
	assert.Contains(t, out, "Deployment hint prompt.")
	require.NotNil(t, d.Registry().Active())
	assert.Equal(t, "deploy", d.Registry().Active().Name)
}

func TestDispatchBuiltinHintLoadUnknown(t *testing.T) {
	d, rc, _ := newTestDispatcher(t)

	inv := core.NewBuiltinInvocation("hint", map[string]string{"action": "load", "name": "nope"}, "", core.Span{})
	out := d.Dispatch(rc, inv, nil)

	assert.Contains(t, out, `id="failed"`)
	assert.Nil(t, d.Registry().Active())
}

func TestDispatchBuiltinHintUnload(t *testing.T) {
	d, rc, _ := newTestDispatcher(t)
	_, err := d.Registry().Load("deploy")
	require.NoError(t, err)

	inv := core.NewBuiltinInvocation("hint", map[string]string{"action": "unload"}, "", core.Span{})
	out := d.Dispatch(rc, inv, nil)

	assert.Contains(t, out, `id="success"`)
	assert.Contains(t, out, "hint unloaded: deploy")
	assert.Nil(t, d.Registry().Active())
}

func TestDispatchBuiltinGetResource(t *testing.T) {
	d, rc, _ := newTestDispatcher(t)
	_, err := d.Registry().Load("deploy")
	require.NoError(t, err)

	inv := core.NewBuiltinInvocation("get_resource", map[string]string{"path": "checklist.md"}, "", core.Span{})
	out := d.Dispatch(rc, inv, nil)

	assert.Contains(t, out, `id="success"`)
	assert.Contains(t, out, "check everything")
}

func TestDispatchBuiltinGetResourceRejectsTraversal(t *testing.T) {
	d, rc, _ := newTestDispatcher(t)
	_, err := d.Registry().Load("deploy")
	require.NoError(t, err)

	inv := core.NewBuiltinInvocation("get_resource", map[string]string{"path": "../hint.md"}, "", core.Span{})
	out := d.Dispatch(rc, inv, nil)

	assert.Contains(t, out, `id="failed"`)
	assert.Contains(t, out, "path")
}

func TestDispatchBuiltinGetResourceNoActiveHint(t *testing.T) {
	d, rc, _ := newTestDispatcher(t)

	inv := core.NewBuiltinInvocation("get_resource", map[string]string{"path": "checklist.md"}, "", core.Span{})
	out := d.Dispatch(rc, inv, nil)

	assert.Contains(t, out, `id="failed"`)
	assert.Contains(t, out, "no active hint")
}

func TestDispatchBuiltinUnknownTool(t *testing.T) {
	d, rc, _ := newTestDispatcher(t)

	inv := core.NewBuiltinInvocation("smart_fly", map[string]string{}, "", core.Span{})
	out := d.Dispatch(rc, inv, nil)

	assert.Contains(t, out, `id="failed"`)
	assert.Contains(t, out, "unknown builtin tool: smart_fly")
}

func TestDispatchBuiltinSchemaRejection(t *testing.T) {
	d, rc, _ := newTestDispatcher(t)

	inv := core.NewBuiltinInvocation("read_file", map[string]string{"bogus": "x"}, "", core.Span{})
	out := d.Dispatch(rc, inv, nil)

	assert.Contains(t, out, `id="failed"`)
	assert.Contains(t, out, "unknown field")
}

func TestDispatchBuiltinReadFile(t *testing.T) {
	d, rc, project := newTestDispatcher(t)
	writeFile(t, filepath.Join(project, "notes.txt"), "l1\nl2\nl3\nl4\nl5\n")

	inv := core.NewBuiltinInvocation("read_file", map[string]string{
		"path":       "notes.txt",
		"start_line": "2",
		"max_lines":  "2",
	}, "", core.Span{})
	out := d.Dispatch(rc, inv, nil)

	assert.Contains(t, out, `id="success"`)
	assert.Contains(t, out, "Lines 2-3")
	assert.Contains(t, out, "l2\nl3")
	assert.NotContains(t, out, "l4")
	assert.Contains(t, out, "continue with start_line: 4")
}

func TestDispatchBuiltinReadFilePathAliases(t *testing.T) {
	d, rc, project := newTestDispatcher(t)
	writeFile(t, filepath.Join(project, "notes.txt"), "l1\nl2\n")

	for _, key := range []string{"path", "file", "filepath"} {
		inv := core.NewBuiltinInvocation("read_file", map[string]string{key: "notes.txt"}, "", core.Span{})
		out := d.Dispatch(rc, inv, nil)

		assert.Contains(t, out, `id="success"`, key)
		assert.Contains(t, out, "l1\nl2", key)
	}
}

func TestDispatchBuiltinReadFileOutsideProject(t *testing.T) {
	d, rc, _ := newTestDispatcher(t)

	inv := core.NewBuiltinInvocation("read_file", map[string]string{"path": "../escape.txt"}, "", core.Span{})
	out := d.Dispatch(rc, inv, nil)

	assert.Contains(t, out, `id="failed"`)
}

func TestDispatchExtraBuiltinOverride(t *testing.T) {
	hintsRoot := t.TempDir()
	registry := hint.NewRegistry(hintsRoot)
	d := NewDispatcher(command.NewExecutor(), registry, func(o *Options) {
		o.ExtraBuiltins = []Builtin{{
			Name:   "echo",
			Schema: util.KVSchema{Tool: "echo", Fields: []util.FieldSpec{{Name: "text", Required: true}}},
			Fn: func(_ *Dispatcher, _ *core.RunContext, args map[string]string) (string, error) {
				return fmt.Sprintf("echo:%s", args["text"]), nil
			},
		}}
	})
	rc := core.NewRunContext(context.Background(), "run-1", "root", 0, core.EnvSnapshot{}, nil)

	out := d.Dispatch(rc, core.NewBuiltinInvocation("echo", map[string]string{"text": "hi"}, "", core.Span{}), nil)

	assert.Contains(t, out, `id="success"`)
	assert.Contains(t, out, "echo:hi")
}

// ---------------------------------------------------------------------------
// create_agent and completion
// ---------------------------------------------------------------------------

func TestDispatchCreateAgent(t *testing.T) {
	d, rc, _ := newTestDispatcher(t)

	spawn := func(_ *core.RunContext, inv core.CreateAgentInvocation) (string, core.Status, error) {
		return "child finished: " + inv.Task, core.StatusCompleted, nil
	}

	out := d.Dispatch(rc, core.NewCreateAgentInvocation("collect logs", "", core.Span{}), spawn)

	assert.True(t, strings.HasPrefix(out, `<create_agent_result id="success">`))
	assert.Contains(t, out, "child finished: collect logs")
}

func TestDispatchCreateAgentRejected(t *testing.T) {
	d, rc, _ := newTestDispatcher(t)

	spawn := func(_ *core.RunContext, _ core.CreateAgentInvocation) (string, core.Status, error) {
		return "", core.StatusFailed, errors.New("maximum recursion depth reached")
	}

	out := d.Dispatch(rc, core.NewCreateAgentInvocation("too deep", "", core.Span{}), spawn)

	assert.Contains(t, out, `id="failed"`)
	assert.Contains(t, out, "maximum recursion depth reached")
}

func TestDispatchCreateAgentChildFailed(t *testing.T) {
	d, rc, _ := newTestDispatcher(t)

	spawn := func(_ *core.RunContext, _ core.CreateAgentInvocation) (string, core.Status, error) {
		return "Task not completed: retry budget exhausted", core.StatusFailed, nil
	}

	out := d.Dispatch(rc, core.NewCreateAgentInvocation("doomed", "", core.Span{}), spawn)

	assert.Contains(t, out, `id="failed"`)
	assert.Contains(t, out, "Task not completed")
}

func TestDispatchCompletionIsNoOp(t *testing.T) {
	d, rc, _ := newTestDispatcher(t)

	out := d.Dispatch(rc, core.NewCompletionInvocation("done", core.Span{}), nil)

	assert.Empty(t, out)
}
