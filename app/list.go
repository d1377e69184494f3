package app

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/GoPowerDNS-Admin/go-settings/internal/config"
	"github.com/GoPowerDNS-Admin/go-settings/internal/daemon"
	"github.com/GoPowerDNS-Admin/go-settings/internal/db/controller/setting"
	"github.com/GoPowerDNS-Admin/go-settings/internal/settings"
)

const (
	flagFilter     = "filter"
	flagOnlyCustom = "only-custom"
	flagOwner      = "owner"
)

// listOptions are the flags of the list command.
type listOptions struct {
	filter     string
	onlyCustom bool
	owner      string
}

var listOpts listOptions //nolint:gochecknoglobals

func init() { //nolint: gochecknoinits
	listCmd.Flags().StringVar(&listOpts.filter, flagFilter, "", "Only settings below this dot path")
	listCmd.Flags().BoolVar(&listOpts.onlyCustom, flagOnlyCustom, false, "Show only customized (non-default) settings")
	listCmd.Flags().StringVar(&listOpts.owner, flagOwner, "", "Owner id for entity scopes")

	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list [scope]",
	Short: "List all scopes or the settings of one scope",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withComponents(func(_ *config.Config, c *daemon.Components) error {
			if len(args) == 0 {
				return runListScopes(cmd.OutOrStdout(), c)
			}

			return runListSettings(cmd.Context(), cmd.OutOrStdout(), c, args[0], listOpts)
		})
	},
}

func runListScopes(w io.Writer, c *daemon.Components) error {
	counts, err := setting.CountByScope(c.DB)
	if err != nil {
		return err
	}

	writeScopes(w, c.Manifest, counts)

	return nil
}

func runListSettings(ctx context.Context, w io.Writer, c *daemon.Components, scopeName string, opts listOptions) error {
	sc, err := c.Registry.Resolve(scopeName, opts.owner)
	if err != nil {
		return err //nolint:wrapcheck
	}

	var rows []settings.Resolved

	if opts.filter != "" {
		rows, err = c.Resolver.Filtered(ctx, sc, opts.filter)
	} else {
		rows, err = c.Resolver.All(ctx, sc)
	}

	if err != nil {
		return err //nolint:wrapcheck
	}

	if opts.onlyCustom {
		custom := rows[:0]

		for _, r := range rows {
			if !r.IsDefault {
				custom = append(custom, r)
			}
		}

		rows = custom
	}

	writeSettings(w, sc.String(), rows)

	return nil
}
