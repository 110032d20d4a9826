package tag

import (
	"regexp"
	"sort"
	"strings"

	"github.com/hupe1980/taskmesh/core"
)

// Tag family names recognized by the parser. Both command families are always
// recognized regardless of the host platform, so transcripts stay portable.
const (
	TagBashCall    = "bash_call"
	TagPsCall      = "ps_call"
	TagBuiltin     = "builtin"
	TagCreateAgent = "create_agent"
	TagReturn      = "return"
)

var (
	reBashCall    = regexp.MustCompile(`(?is)<bash_call>\s*(.+?)\s*</bash_call>`)
	rePsCall      = regexp.MustCompile(`(?is)<ps_call>\s*(.+?)\s*</ps_call>`)
	reBuiltin     = regexp.MustCompile(`(?is)<builtin>\s*(.+?)\s*</builtin>`)
	reCreateAgent = regexp.MustCompile(`(?is)<create_agent(?:\s+name=(\S+?))?\s*>(.+?)</create_agent>`)
	reReturn      = regexp.MustCompile(`(?is)<return>\s*(.*?)\s*</return>`)
	reReturnOpen  = regexp.MustCompile(`(?i)<return\b`)
	reActionTag   = regexp.MustCompile(`(?i)<(bash_call|ps_call|builtin|create_agent|return)\b`)
	reCommandEnd  = regexp.MustCompile(`(?i)</(bash_call|ps_call|builtin)>`)
)

// Parse extracts all well formed tags from a model response in document
// order. Overlapping matches are resolved in favor of the earliest tag; a tag
// starting inside an already accepted tag's span is dropped. A response with
// no recognizable tags yields an empty slice.
func Parse(text string) []core.Invocation {
	type candidate struct {
		inv  core.Invocation
		span core.Span
	}

	var candidates []candidate

	for _, re := range []struct {
		tag string
		re  *regexp.Regexp
	}{{TagBashCall, reBashCall}, {TagPsCall, rePsCall}} {
		for _, m := range re.re.FindAllStringSubmatchIndex(text, -1) {
			span := core.Span{Start: m[0], End: m[1]}
			command := strings.TrimSpace(text[m[2]:m[3]])
			candidates = append(candidates, candidate{core.NewCommandInvocation(re.tag, command, span), span})
		}
	}

	for _, m := range reBuiltin.FindAllStringSubmatchIndex(text, -1) {
		span := core.Span{Start: m[0], End: m[1]}
		body := strings.TrimSpace(text[m[2]:m[3]])
		tool, args := ParseBuiltinBody(body)
		candidates = append(candidates, candidate{core.NewBuiltinInvocation(tool, args, body, span), span})
	}

	for _, m := range reCreateAgent.FindAllStringSubmatchIndex(text, -1) {
		span := core.Span{Start: m[0], End: m[1]}
		name := ""
		if m[2] >= 0 {
			name = stripQuotes(text[m[2]:m[3]])
		}
		task := strings.TrimSpace(text[m[4]:m[5]])
		candidates = append(candidates, candidate{core.NewCreateAgentInvocation(task, name, span), span})
	}

	// A bare opening <return is enough to signal completion; the summary is
	// taken from a balanced pair when one exists and left empty otherwise.
	if loc := reReturnOpen.FindStringIndex(text); loc != nil {
		span := core.Span{Start: loc[0], End: loc[1]}
		summary := ""
		if m := reReturn.FindStringSubmatchIndex(text); m != nil {
			span = core.Span{Start: m[0], End: m[1]}
			summary = strings.TrimSpace(text[m[2]:m[3]])
		}
		candidates = append(candidates, candidate{core.NewCompletionInvocation(summary, span), span})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].span.Start < candidates[j].span.Start
	})

	invocations := make([]core.Invocation, 0, len(candidates))
	prevEnd := -1
	for _, c := range candidates {
		if c.span.Start < prevEnd {
			continue
		}
		invocations = append(invocations, c.inv)
		prevEnd = c.span.End
	}

	return invocations
}

// HasActionTags reports whether the response contains any opening tag the
// dispatch loop reacts to.
func HasActionTags(text string) bool {
	return reActionTag.MatchString(text)
}

// HasCompletion reports whether the response signals task completion.
func HasCompletion(text string) bool {
	return reReturnOpen.MatchString(text)
}

// StripTrailingAfterCommands removes any text following the last command or
// builtin closing tag. Models sometimes hallucinate results after a command
// tag; dropping the trailing text prevents fabricated output from entering
// the conversation before the real result arrives.
func StripTrailingAfterCommands(text string) string {
	matches := reCommandEnd.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	lastEnd := matches[len(matches)-1][1]
	if strings.TrimSpace(text[lastEnd:]) != "" {
		return strings.TrimRight(text[:lastEnd], " \t\r\n")
	}

	return text
}

// ParseBuiltinBody splits a builtin tag body into the tool identifier and its
// key/value arguments. The first non-empty line carries the tool name, with
// an optional "builtin." prefix. Subsequent lines are "key: value" pairs;
// a value of <<< (inline or on the following line) starts a literal block
// captured verbatim until a line containing only >>>.
func ParseBuiltinBody(body string) (string, map[string]string) {
	args := map[string]string{}
	lines := strings.Split(body, "\n")

	tool := ""
	rest := lines
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		tool = strings.ToLower(line)
		if after, ok := strings.CutPrefix(tool, "builtin."); ok {
			tool = after
		}
		if fields := strings.Fields(tool); len(fields) > 0 {
			tool = fields[0]
		}
		rest = lines[i+1:]
		break
	}

	for i := 0; i < len(rest); i++ {
		line := strings.TrimSpace(rest[i])
		if line == "" {
			continue
		}

		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		// "key: <<<" or "key:" followed by a "<<<" line opens a block.
		blockStart := -1
		if value == "<<<" {
			blockStart = i + 1
		} else if value == "" && i+1 < len(rest) && strings.TrimSpace(rest[i+1]) == "<<<" {
			blockStart = i + 2
		}

		if blockStart >= 0 {
			var block []string
			j := blockStart
			for ; j < len(rest); j++ {
				if strings.TrimSpace(rest[j]) == ">>>" {
					break
				}
				block = append(block, rest[j])
			}
			args[key] = strings.Join(block, "\n")
			i = j
			continue
		}

		args[key] = stripQuotes(value)
	}

	return tool, args
}

func stripQuotes(s string) string {
	if len(s) >= 2 && s[0] == s[len(s)-1] && (s[0] == '"' || s[0] == '\'') {
		return s[1 : len(s)-1]
	}

	return s
}
