package main

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/alfredjeanlab/flowgraph/internal/ui"
	"github.com/spf13/cobra"
)

// helpRule rewrites every match of re in Cobra's help text.
type helpRule struct {
	re      *regexp.Regexp
	rewrite func(groups []string) string
}

// helpRules are applied in order. Section headers go first so that later
// rules never see their escape codes.
var helpRules = []helpRule{
	{
		// Section headers: "Nodes:", "Flags:", "Global Flags:".
		re:      regexp.MustCompile(`(?m)^([A-Z][^\n]*:)[ \t]*$`),
		rewrite: func(g []string) string { return ui.RenderAccent(strings.TrimSpace(g[1])) },
	},
	{
		// Command names: two-space indent, a word, then the padded description.
		re:      regexp.MustCompile(`(?m)^(  )([a-z][\w-]*)(  )`),
		rewrite: func(g []string) string { return g[1] + ui.RenderCommand(g[2]) + g[3] },
	},
	{
		// Flag value types: "--url string", "--x float64".
		re:      regexp.MustCompile(`(--?\S+\s+)(string|int|int64|float64|duration)\b`),
		rewrite: func(g []string) string { return g[1] + ui.RenderMuted(g[2]) },
	},
	{
		re:      regexp.MustCompile(`\(default [^)]*\)`),
		rewrite: func(g []string) string { return ui.RenderMuted(g[0]) },
	},
}

// colorizedHelpFunc returns a Cobra help function that colors the default
// help text when stdout supports it.
func colorizedHelpFunc() func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if !ui.ShouldUseColor() {
			_ = cmd.Usage()
			return
		}

		var buf bytes.Buffer
		cmd.SetOut(&buf)
		_ = cmd.Usage()
		cmd.SetOut(out)

		fmt.Fprint(out, colorizeHelpOutput(buf.String()))
	}
}

// colorizeHelpOutput applies every help rule to s.
func colorizeHelpOutput(s string) string {
	for _, rule := range helpRules {
		s = rule.re.ReplaceAllStringFunc(s, func(match string) string {
			return rule.rewrite(rule.re.FindStringSubmatch(match))
		})
	}
	return s
}
