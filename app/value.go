package app

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/GoPowerDNS-Admin/go-settings/internal/config"
	"github.com/GoPowerDNS-Admin/go-settings/internal/daemon"
	"github.com/GoPowerDNS-Admin/go-settings/internal/settings/value"
)

var ownerID string //nolint:gochecknoglobals

func init() { //nolint: gochecknoinits
	getCmd.Flags().StringVar(&ownerID, flagOwner, "", "Owner id for entity scopes")
	setCmd.Flags().StringVar(&ownerID, flagOwner, "", "Owner id for entity scopes")
	resetCmd.Flags().StringVar(&ownerID, flagOwner, "", "Owner id for entity scopes")

	rootCmd.AddCommand(getCmd, setCmd, resetCmd, checkCmd)
}

var (
	getCmd = &cobra.Command{
		Use:   "get <scope> <key>",
		Short: "Print the effective value of a setting",
		Args:  cobra.ExactArgs(2), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			return withComponents(func(_ *config.Config, c *daemon.Components) error {
				return runGet(cmd.Context(), cmd.OutOrStdout(), c, args[0], args[1], ownerID)
			})
		},
	}

	setCmd = &cobra.Command{
		Use:   "set <scope> <key> <value>",
		Short: "Customize a setting; structured types take JSON",
		Args:  cobra.ExactArgs(3), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			return withComponents(func(_ *config.Config, c *daemon.Components) error {
				return runSet(cmd.Context(), cmd.OutOrStdout(), c, args[0], args[1], args[2], ownerID)
			})
		},
	}

	resetCmd = &cobra.Command{
		Use:   "reset <scope> <key>",
		Short: "Revert a setting to its declared default",
		Args:  cobra.ExactArgs(2), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			return withComponents(func(_ *config.Config, c *daemon.Components) error {
				return runReset(cmd.Context(), cmd.OutOrStdout(), c, args[0], args[1], ownerID)
			})
		},
	}

	checkCmd = &cobra.Command{
		Use:   "check",
		Short: "Validate every declaration of the manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withComponents(func(cfg *config.Config, c *daemon.Components) error {
				return runCheck(cmd.OutOrStdout(), c, cfg.Settings.Manifest)
			})
		},
	}
)

func runGet(ctx context.Context, w io.Writer, c *daemon.Components, scopeName, key, owner string) error {
	sc, err := c.Registry.Resolve(scopeName, owner)
	if err != nil {
		return err //nolint:wrapcheck
	}

	r, err := c.Resolver.Get(ctx, key, sc)
	if err != nil {
		return err //nolint:wrapcheck
	}

	writeResolved(w, r)

	return nil
}

func runSet(ctx context.Context, w io.Writer, c *daemon.Components, scopeName, key, raw, owner string) error {
	sc, err := c.Registry.Resolve(scopeName, owner)
	if err != nil {
		return err //nolint:wrapcheck
	}

	decl, err := c.Manifest.Resolve(sc.Name, key)
	if err != nil {
		return err //nolint:wrapcheck
	}

	val, err := value.Coerce(decl.Type, raw)
	if err != nil {
		return value.WithKey(err, key)
	}

	r, err := c.Resolver.Set(ctx, key, val, sc)
	if err != nil {
		return err //nolint:wrapcheck
	}

	writeResolved(w, r)

	return nil
}

func runReset(ctx context.Context, w io.Writer, c *daemon.Components, scopeName, key, owner string) error {
	sc, err := c.Registry.Resolve(scopeName, owner)
	if err != nil {
		return err //nolint:wrapcheck
	}

	r, err := c.Resolver.Reset(ctx, key, sc)
	if err != nil {
		return err //nolint:wrapcheck
	}

	writeResolved(w, r)

	return nil
}

func runCheck(w io.Writer, c *daemon.Components, path string) error {
	if err := c.Manifest.Validate(); err != nil {
		fmt.Fprintf(w, "Manifest %s has invalid declarations.\n", path)
		return err //nolint:wrapcheck
	}

	total := 0
	for _, name := range c.Manifest.Scopes() {
		total += c.Manifest.Count(name)
	}

	fmt.Fprintf(w, "Manifest %s is valid: %d scope(s), %d setting(s).\n", path, len(c.Manifest.Scopes()), total)

	return nil
}
