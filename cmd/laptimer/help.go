package main

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/alfredjeanlab/laptimer/internal/ui"
	"github.com/spf13/cobra"
)

// helpRule styles every match of re in cobra's help text.
type helpRule struct {
	re    *regexp.Regexp
	style func(parts []string) string
}

// Rules are applied in order to the plain help text.
var helpRules = []helpRule{
	// Group headers: "Results:", "Flags:", "Global Flags:". "Usage:" is
	// matched too and styled the same way.
	{
		re:    regexp.MustCompile(`(?m)^([A-Z][^\n]*:)\s*$`),
		style: func(p []string) string { return ui.RenderAccent(strings.TrimSpace(p[1])) },
	},
	// Command rows: two-space indent, name, two or more spaces.
	{
		re:    regexp.MustCompile(`(?m)^(  )([a-z][\w-]*)(  )`),
		style: func(p []string) string { return p[1] + ui.RenderCommand(p[2]) + p[3] },
	},
	// Flag value types, e.g. "--server string".
	{
		re:    regexp.MustCompile(`(--?\S+\s+)(string|int|duration|stringSlice)\b`),
		style: func(p []string) string { return p[1] + ui.RenderMuted(p[2]) },
	},
	// Defaults, e.g. (default "http://localhost:8080").
	{
		re:    regexp.MustCompile(`\(default [^)]*\)`),
		style: func(p []string) string { return ui.RenderMuted(p[0]) },
	},
}

// colorizedHelpFunc renders cobra's usage text, styled when stdout is a
// color terminal.
func colorizedHelpFunc() func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if noColor || !ui.ShouldUseColor() {
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

func colorizeHelpOutput(s string) string {
	for _, rule := range helpRules {
		s = rule.re.ReplaceAllStringFunc(s, func(match string) string {
			return rule.style(rule.re.FindStringSubmatch(match))
		})
	}
	return s
}
