// Package seedcmder provides the seed command for loading metadata into the
// relational store.
package seedcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lexfindco/lexfind/pkg/config"
	"github.com/lexfindco/lexfind/pkg/document"
	"github.com/lexfindco/lexfind/pkg/logger"
	"github.com/lexfindco/lexfind/pkg/metastore/relational"
)

const seedLongDesc string = `Load a metadata JSON artifact into the relational store.

Seeding is idempotent: when the store already holds rows, nothing is
inserted and the command reports the existing count.

Examples:
  lexfind seed metadata.json --driver sqlite3 --dsn lexfind.db
  lexfind seed metadata.json --driver pgx --dsn postgres://localhost/lexfind`

const seedShortDesc string = "Load metadata into the relational store"

type seedCommander struct {
	driver string
	dsn    string
	debug  bool
}

var seedFlagKeys = []string{
	config.FlagMetaDriver,
	config.FlagMetaDSN,
}

func NewSeedCmd() *cobra.Command {
	cmder := &seedCommander{}

	cmd := &cobra.Command{
		Use:   "seed <metadata.json>",
		Short: seedShortDesc,
		Long:  seedLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}

			configDir, err := cmd.Flags().GetString("config")
			if err != nil {
				return fmt.Errorf("could not get config flag: %v", err)
			}

			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, seedFlagKeys)

			cfg, err := config.FromViper(v)
			if err != nil {
				return err
			}

			cmder.driver = cfg.Metadata.Driver
			cmder.dsn = cfg.Metadata.DSN

			return cmder.run(cmd.Context(), args[0])
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagMetaDriver, &cmder.driver)
	config.AddStringFlag(cmd, config.Flags, config.FlagMetaDSN, &cmder.dsn)

	return cmd
}

func (c *seedCommander) run(ctx context.Context, metadataPath string) error {
	log := logger.New(logger.WithPretty(true), logger.WithDebug(c.debug))

	data, err := os.ReadFile(metadataPath)
	if err != nil {
		return fmt.Errorf("reading metadata: %w", err)
	}

	var docs []document.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return fmt.Errorf("parsing metadata: %w", err)
	}
	if len(docs) == 0 {
		return fmt.Errorf("metadata %s contains no documents", metadataPath)
	}

	store, err := relational.New(ctx, relational.Config{
		Driver: c.driver,
		DSN:    c.dsn,
	}, log)
	if err != nil {
		return fmt.Errorf("opening relational store: %w", err)
	}
	defer store.Close()

	inserted, err := store.Seed(ctx, docs)
	if err != nil {
		return fmt.Errorf("seeding metadata: %w", err)
	}

	if inserted == 0 {
		count, err := store.Count(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("store already seeded (%d documents), nothing inserted\n", count)
		return nil
	}

	fmt.Printf("seeded %d documents into %s\n", inserted, c.driver)
	return nil
}
