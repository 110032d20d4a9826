package dispatch

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/hint"
	"github.com/hupe1980/taskmesh/internal/util"
)

// readFileMaxLines caps the window a single read_file call may return.
const readFileMaxLines = 2000

// BuiltinFunc executes one builtin tool call with validated arguments and
// returns the result body. A returned error becomes a failed result, never
// an abort.
type BuiltinFunc func(d *Dispatcher, rc *core.RunContext, args map[string]string) (string, error)

// Builtin is one entry in the dispatcher's builtin tool table.
type Builtin struct {
	Name   string
	Schema util.KVSchema
	Fn     BuiltinFunc
}

// defaultBuiltins returns the built-in tool table: hint switching, gated
// resource reads and windowed file reads.
func defaultBuiltins() []Builtin {
	return []Builtin{
		{
			Name: "hint",
			Schema: util.KVSchema{
				Tool: "hint",
				Fields: []util.FieldSpec{
					{Name: "action", Required: true, Normalize: strings.ToLower},
					{Name: "name"},
				},
			},
			Fn: builtinHint,
		},
		{
			Name: "get_resource",
			Schema: util.KVSchema{
				Tool: "get_resource",
				Fields: []util.FieldSpec{
					{Name: "path", Required: true},
				},
			},
			Fn: builtinGetResource,
		},
		{
			Name: "read_file",
			Schema: util.KVSchema{
				Tool: "read_file",
				Fields: []util.FieldSpec{
					{Name: "path", Required: true, Aliases: []string{"file", "filepath"}},
					{Name: "start_line", Default: "1"},
					{Name: "max_lines", Default: "200"},
				},
			},
			Fn: builtinReadFile,
		},
	}
}

// builtinHint drives the hint registry: action load activates a named hint
// and returns its prompt, action unload deactivates the current one.
func builtinHint(d *Dispatcher, rc *core.RunContext, args map[string]string) (string, error) {
	switch args["action"] {
	case "load":
		name := args["name"]
		if name == "" {
			return "", fmt.Errorf("hint load requires parameter: name")
		}

		h, err := d.registry.Load(name)
		if err != nil {
			return "", err
		}

		rc.LogInfo("hint activated", "hint", name, "modules", len(h.Modules))

		return h.Prompt, nil
	case "unload":
		previous, _ := d.registry.Unload()
		if previous == "" {
			return "no hint was active", nil
		}

		return "hint unloaded: " + previous, nil
	default:
		return "", fmt.Errorf("unknown hint action: %s", args["action"])
	}
}

// builtinGetResource reads a file from the active hint's resources directory.
func builtinGetResource(d *Dispatcher, _ *core.RunContext, args map[string]string) (string, error) {
	content, err := d.registry.Resource(args["path"])
	if err != nil {
		return "", err
	}

	if content == "" {
		content = "(empty content)"
	}

	return content, nil
}

// builtinReadFile returns a line window of a file confined to the run's
// project directory.
func builtinReadFile(d *Dispatcher, rc *core.RunContext, args map[string]string) (string, error) {
	startLine, err := strconv.Atoi(args["start_line"])
	if err != nil {
		return "", fmt.Errorf("start_line must be an integer")
	}

	maxLines, err := strconv.Atoi(args["max_lines"])
	if err != nil {
		return "", fmt.Errorf("max_lines must be an integer")
	}

	if startLine < 1 || maxLines < 1 {
		return "", fmt.Errorf("start_line and max_lines must be >= 1")
	}

	capped := maxLines > readFileMaxLines
	if capped {
		maxLines = readFileMaxLines
	}

	root := rc.Env.ProjectDir
	if root == "" {
		root = rc.Env.StartDir
	}

	resolved, err := hint.NewGate(root).Resolve(args["path"])
	if err != nil {
		return "", err
	}

	f, err := os.Open(resolved)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %s", args["path"])
	}
	defer f.Close()

	var lines []string
	hasMore := false
	index := 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		index++
		if index < startLine {
			continue
		}
		if len(lines) >= maxLines {
			hasMore = true
			break
		}
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read file: %s", args["path"])
	}

	endLine := startLine + len(lines) - 1
	if len(lines) == 0 {
		endLine = startLine - 1
	}

	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\n", args["path"])
	fmt.Fprintf(&b, "Lines %d-%d\n", startLine, endLine)
	if capped {
		fmt.Fprintf(&b, "Note: max_lines capped at %d\n", readFileMaxLines)
	}
	if hasMore {
		fmt.Fprintf(&b, "More lines available, continue with start_line: %d\n", endLine+1)
	}
	b.WriteString(strings.Join(lines, "\n"))

	return b.String(), nil
}
