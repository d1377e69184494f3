package app

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/GoPowerDNS-Admin/go-settings/internal/manifest"
	"github.com/GoPowerDNS-Admin/go-settings/internal/settings"
	"github.com/GoPowerDNS-Admin/go-settings/internal/settings/value"
)

// maxValueWidth bounds the Value column of the settings table.
const maxValueWidth = 50

var (
	cyan  = color.New(color.FgCyan).SprintFunc()
	green = color.New(color.FgGreen).SprintFunc()
	gray  = color.New(color.FgHiBlack).SprintFunc()
)

// writeScopes prints every declared scope with its setting and override
// counts.
func writeScopes(w io.Writer, m *manifest.Manifest, customized map[string]int64) {
	names := m.Scopes()
	if len(names) == 0 {
		fmt.Fprintln(w, "No scopes configured.")
		return
	}

	fmt.Fprintln(w, "Available scopes:")
	fmt.Fprintln(w)

	for _, name := range names {
		fmt.Fprintf(w, "  %s (%d total, %d customized)\n", cyan(name), m.Count(name), customized[name])
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Run \"%s list <scope>\" to view settings for a specific scope.\n", rootCmd.Name())
}

// writeSettings prints resolved settings as a table.
func writeSettings(w io.Writer, scopeName string, rows []settings.Resolved) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No settings found.")
		return
	}

	fmt.Fprintf(w, "Settings for scope: %s\n\n", cyan(scopeName))

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Setting", "Type", "Value", "Status"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)

	for _, r := range rows {
		status := green("custom")
		if r.IsDefault {
			status = gray("default")
		}

		table.Append([]string{
			r.Key,
			string(r.Type),
			value.Truncate(r.Value.String(), maxValueWidth),
			status,
		})
	}

	table.Render()
}

// writeResolved prints one setting as "key = value (status)".
func writeResolved(w io.Writer, r settings.Resolved) {
	status := green("custom")
	if r.IsDefault {
		status = gray("default")
	}

	fmt.Fprintf(w, "%s = %s (%s, %s)\n", r.Key, r.Value.String(), r.Type, status)
}

// confirm asks a yes/no question on w and reads the answer from in. Anything
// but y or yes declines.
func confirm(w io.Writer, in io.Reader, question string) bool {
	fmt.Fprintf(w, "%s Continue? [y/N]: ", question)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
