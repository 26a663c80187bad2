// Package keyscmder provides API key administration commands.
package keyscmder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	authrelational "github.com/lexfindco/lexfind/pkg/authgate/relational"
	"github.com/lexfindco/lexfind/pkg/config"
	"github.com/lexfindco/lexfind/pkg/logger"
)

const keysLongDesc string = `Manage API keys for the retrieval service.

Keys are stored in the relational database alongside the usage log. There
is no HTTP surface for key administration; this command is it.

Examples:
  lexfind keys create alice
  lexfind keys list
  lexfind keys deactivate 3f9c...`

const keysShortDesc string = "Manage API keys"

type keysCommander struct {
	driver string
	dsn    string
	debug  bool
}

var keysFlagKeys = []string{
	config.FlagMetaDriver,
	config.FlagMetaDSN,
}

func NewKeysCmd() *cobra.Command {
	cmder := &keysCommander{}

	cmd := &cobra.Command{
		Use:   "keys",
		Short: keysShortDesc,
		Long:  keysLongDesc,
	}

	cmd.PersistentFlags().StringVar(&cmder.driver, "driver", "sqlite3", "relational database driver (sqlite3, pgx)")
	cmd.PersistentFlags().StringVar(&cmder.dsn, "dsn", "", "relational database DSN")

	cmd.AddCommand(cmder.newCreateCmd())
	cmd.AddCommand(cmder.newDeactivateCmd())
	cmd.AddCommand(cmder.newListCmd())
	cmd.AddCommand(cmder.newUsageCmd())

	return cmd
}

// openKeystore resolves configuration and opens the keystore. Persistent
// flags on the keys command take precedence over config/env values.
func (c *keysCommander) openKeystore(cmd *cobra.Command) (*authrelational.Keystore, context.Context, error) {
	ctx := cmd.Context()

	debug, err := cmd.Flags().GetBool("debug")
	if err != nil {
		return nil, nil, fmt.Errorf("could not get debug flag: %v", err)
	}
	c.debug = debug

	configDir, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, nil, fmt.Errorf("could not get config flag: %v", err)
	}

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, nil, err
	}

	driver := c.driver
	dsn := c.dsn
	if dsn == "" {
		driver = cfg.Metadata.Driver
		dsn = cfg.Metadata.DSN
	}
	if dsn == "" {
		return nil, nil, fmt.Errorf("a database DSN is required (--dsn or metadata.dsn)")
	}

	keystore, err := authrelational.Open(ctx, driver, dsn, c.newLogger())
	if err != nil {
		return nil, nil, fmt.Errorf("opening keystore: %w", err)
	}

	return keystore, ctx, nil
}

func (c *keysCommander) newLogger() *slog.Logger {
	return logger.New(logger.WithPretty(true), logger.WithDebug(c.debug))
}

func (c *keysCommander) newCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <owner>",
		Short: "Mint a new API key for an owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keystore, ctx, err := c.openKeystore(cmd)
			if err != nil {
				return err
			}
			defer keystore.Close()

			key, err := keystore.CreateKey(ctx, args[0])
			if err != nil {
				return fmt.Errorf("creating key: %w", err)
			}

			fmt.Println(key)
			return nil
		},
	}
}

func (c *keysCommander) newDeactivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <key>",
		Short: "Deactivate an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keystore, ctx, err := c.openKeystore(cmd)
			if err != nil {
				return err
			}
			defer keystore.Close()

			if err := keystore.DeactivateKey(ctx, args[0]); err != nil {
				return fmt.Errorf("deactivating key: %w", err)
			}

			fmt.Println("key deactivated")
			return nil
		},
	}
}

func (c *keysCommander) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			keystore, ctx, err := c.openKeystore(cmd)
			if err != nil {
				return err
			}
			defer keystore.Close()

			keys, err := keystore.ListKeys(ctx)
			if err != nil {
				return fmt.Errorf("listing keys: %w", err)
			}

			if len(keys) == 0 {
				fmt.Println("no keys")
				return nil
			}

			for _, k := range keys {
				status := "active"
				if !k.Active {
					status = "inactive"
				}
				fmt.Printf("%d\t%s\t%s\t%s\t%s\n",
					k.ID, k.Key, k.Owner, status, k.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

func (c *keysCommander) newUsageCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show recent API key usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			keystore, ctx, err := c.openKeystore(cmd)
			if err != nil {
				return err
			}
			defer keystore.Close()

			entries, err := keystore.Usage(ctx, limit)
			if err != nil {
				return fmt.Errorf("listing usage: %w", err)
			}

			if len(entries) == 0 {
				fmt.Println("no usage recorded")
				return nil
			}

			for _, e := range entries {
				fmt.Printf("%s\t%d\t%s\n",
					e.CreatedAt.Format("2006-01-02 15:04:05"), e.APIKeyID, e.Endpoint)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum entries to show")

	return cmd
}
