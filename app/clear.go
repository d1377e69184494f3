package app

import (
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/GoPowerDNS-Admin/go-settings/internal/config"
	"github.com/GoPowerDNS-Admin/go-settings/internal/daemon"
	"github.com/GoPowerDNS-Admin/go-settings/internal/db/controller/setting"
	"github.com/GoPowerDNS-Admin/go-settings/internal/scope"
)

const flagForce = "force"

// clearOptions are the flags of the clear command.
type clearOptions struct {
	filter string
	force  bool
}

var clearOpts clearOptions //nolint:gochecknoglobals

func init() { //nolint: gochecknoinits
	clearCmd.Flags().StringVar(&clearOpts.filter, flagFilter, "", "Clear only settings below this dot path")
	clearCmd.Flags().BoolVar(&clearOpts.force, flagForce, false, "Force the operation without confirmation")

	rootCmd.AddCommand(clearCmd)
}

var clearCmd = &cobra.Command{
	Use:   "clear [scope]",
	Short: "Clear customized settings (revert to defaults)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withComponents(func(_ *config.Config, c *daemon.Components) error {
			scopeName := ""
			if len(args) == 1 {
				scopeName = args[0]
			}

			return runClear(cmd.OutOrStdout(), cmd.InOrStdin(), c, scopeName, clearOpts)
		})
	},
}

// runClear deletes the overrides of one scope, across all its owners, or of
// every scope when scopeName is empty.
func runClear(w io.Writer, in io.Reader, c *daemon.Components, scopeName string, opts clearOptions) error {
	if scopeName == "" {
		return clearAll(w, in, c, opts.force)
	}

	count, err := setting.Count(c.DB, scopeName, opts.filter)
	if err != nil {
		return err
	}

	if count == 0 {
		fmt.Fprintln(w, "No customized settings found to clear.")
		return nil
	}

	question := fmt.Sprintf("This will clear %d customized setting(s) in scope '%s'.", count, scopeName)
	if opts.filter != "" {
		question = fmt.Sprintf("This will clear %d customized setting(s) matching '%s' in scope '%s'.",
			count, opts.filter, scopeName)
	}

	if !opts.force && !confirm(w, in, question) {
		fmt.Fprintln(w, "Operation cancelled.")
		return nil
	}

	cleared, err := setting.Clear(c.DB, scopeName, opts.filter)
	if err != nil {
		return err
	}

	resetCache(c)

	fmt.Fprintf(w, "Successfully cleared %d setting(s).\n", cleared)

	return nil
}

func clearAll(w io.Writer, in io.Reader, c *daemon.Components, force bool) error {
	counts, err := setting.CountByScope(c.DB)
	if err != nil {
		return err
	}

	var count int64
	for _, n := range counts {
		count += n
	}

	if count == 0 {
		fmt.Fprintln(w, "No customized settings found to clear.")
		return nil
	}

	question := fmt.Sprintf("This will clear ALL %d customized settings across all scopes.", count)
	if !force && !confirm(w, in, question) {
		fmt.Fprintln(w, "Operation cancelled.")
		return nil
	}

	cleared, err := setting.ClearAll(c.DB)
	if err != nil {
		return err
	}

	resetCache(c)

	fmt.Fprintf(w, "Successfully cleared %d setting(s) across all scopes.\n", cleared)

	return nil
}

// resetCache empties the cache, whose entries may belong to any owner of the
// cleared scopes.
func resetCache(c *daemon.Components) {
	if c.Cache == nil {
		return
	}

	if err := c.Cache.Clear("", scope.Scope{}); err != nil {
		log.Warn().Err(err).Msg("failed to reset settings cache")
	}
}
