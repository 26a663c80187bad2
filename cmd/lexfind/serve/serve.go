// Package servecmder provides the serve command for the retrieval API server.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lexfindco/lexfind/api"
	"github.com/lexfindco/lexfind/pkg/authgate"
	authrelational "github.com/lexfindco/lexfind/pkg/authgate/relational"
	"github.com/lexfindco/lexfind/pkg/config"
	"github.com/lexfindco/lexfind/pkg/embeddings/ollama"
	"github.com/lexfindco/lexfind/pkg/engine"
	"github.com/lexfindco/lexfind/pkg/eventstream"
	"github.com/lexfindco/lexfind/pkg/eventstream/kafkastream"
	"github.com/lexfindco/lexfind/pkg/eventstream/nop"
	"github.com/lexfindco/lexfind/pkg/logger"
	"github.com/lexfindco/lexfind/pkg/metastore"
	"github.com/lexfindco/lexfind/pkg/metastore/relational"
	"github.com/lexfindco/lexfind/pkg/metastore/static"
	"github.com/lexfindco/lexfind/pkg/vector"
	"github.com/lexfindco/lexfind/pkg/vector/flat"
	"github.com/lexfindco/lexfind/pkg/vector/sqlitevec"
)

type ServeCommander struct {
	listen     string
	maxTopK    int
	indexPath  string
	metaDriver string
	metaDSN    string
	debug      bool
	cfg        *config.Config
	logger     *slog.Logger
}

const serveLongDesc string = `Run the Lexfind retrieval API server.

The server embeds each prompt, searches the vector index, and resolves the
nearest neighbors to their metadata records. Requests are authenticated by
API key unless the gate is disabled.

Configuration is resolved as flag > environment (LEXFIND_*) > config.toml >
built-in default.`

const serveShortDesc string = "Run the retrieval API server"

var serveFlagKeys = []string{
	config.FlagListen,
	config.FlagMaxTopK,
	config.FlagIndexPath,
	config.FlagMetaDriver,
	config.FlagMetaDSN,
}

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			config.BindRegisteredFlags(v, cmd, config.Flags, serveFlagKeys)

			cmder.cfg, err = config.FromViper(v)
			if err != nil {
				return err
			}

			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagListen, &cmder.listen)
	config.AddIntFlag(cmd, config.Flags, config.FlagMaxTopK, &cmder.maxTopK)
	config.AddStringFlag(cmd, config.Flags, config.FlagIndexPath, &cmder.indexPath)
	config.AddStringFlag(cmd, config.Flags, config.FlagMetaDriver, &cmder.metaDriver)
	config.AddStringFlag(cmd, config.Flags, config.FlagMetaDSN, &cmder.metaDSN)

	return cmd
}

func (c *ServeCommander) run(ctx context.Context) error {
	// Service mode logs JSON; the pretty handler is for interactive commands.
	c.logger = logger.New(logger.WithJSON(true), logger.WithDebug(c.debug))

	embedder, err := ollama.New(ollama.Config{
		BaseURL: c.cfg.Embedding.Target,
		Model:   c.cfg.Embedding.Model,
	})
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}

	searcher, err := c.newSearcher()
	if err != nil {
		return err
	}

	store, err := c.newMetaStore(ctx)
	if err != nil {
		return err
	}

	gate, recorder, keystore, err := c.newGate(ctx, store)
	if err != nil {
		return err
	}

	publisher, err := c.newPublisher()
	if err != nil {
		return err
	}
	defer publisher.Close()

	eng, err := engine.New(engine.Config{
		Embedder: embedder,
		Searcher: searcher,
		Store:    store,
		MaxTopK:  c.cfg.API.MaxTopK,
		Logger:   c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	defer eng.Close()

	if keystore != nil {
		defer keystore.Close()
	}

	server, err := api.NewServer(api.Config{
		ListenAddr: c.cfg.API.Listen,
		Engine:     eng,
		Gate:       gate,
		Recorder:   recorder,
		Publisher:  publisher,
	}, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("shutting down", "signal", sig.String())
		return server.Shutdown()
	}
}

func (c *ServeCommander) newSearcher() (vector.Searcher, error) {
	switch c.cfg.Index.Provider {
	case "flat":
		index, err := flat.ReadFile(c.cfg.Index.Path)
		if err != nil {
			return nil, fmt.Errorf("loading index artifact: %w", err)
		}
		if index.Dimension() != c.cfg.Embedding.Dimensions {
			return nil, fmt.Errorf("index dimension %d does not match embedding dimension %d",
				index.Dimension(), c.cfg.Embedding.Dimensions)
		}
		c.logger.Info("loaded flat index",
			"path", c.cfg.Index.Path,
			"vectors", index.Size(),
			"dimensions", index.Dimension(),
		)
		return index, nil

	case "sqlite":
		searcher, err := sqlitevec.New(sqlitevec.Config{
			DBPath:     c.cfg.Index.SQLitePath,
			Dimensions: c.cfg.Embedding.Dimensions,
		}, c.logger)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite-vec index: %w", err)
		}
		return searcher, nil

	default:
		return nil, fmt.Errorf("unknown index provider %q (available: flat, sqlite)", c.cfg.Index.Provider)
	}
}

func (c *ServeCommander) newMetaStore(ctx context.Context) (metastore.Store, error) {
	switch c.cfg.Metadata.Provider {
	case "static":
		store, err := static.Load(c.cfg.Metadata.Path)
		if err != nil {
			return nil, fmt.Errorf("loading metadata artifact: %w", err)
		}
		c.logger.Info("loaded static metadata",
			"path", c.cfg.Metadata.Path,
			"documents", store.Size(),
		)
		return store, nil

	case "relational":
		store, err := relational.New(ctx, relational.Config{
			Driver: c.cfg.Metadata.Driver,
			DSN:    c.cfg.Metadata.DSN,
		}, c.logger)
		if err != nil {
			return nil, fmt.Errorf("opening relational metadata store: %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown metadata provider %q (available: static, relational)", c.cfg.Metadata.Provider)
	}
}

// newGate builds the API key gate. When the metadata store is relational the
// keystore shares its connection pool; otherwise it opens its own.
func (c *ServeCommander) newGate(ctx context.Context, store metastore.Store) (authgate.Gate, authgate.UsageRecorder, *authrelational.Keystore, error) {
	switch c.cfg.Auth.Provider {
	case "none":
		c.logger.Warn("API key gate disabled; queries are unauthenticated")
		return nil, nil, nil, nil

	case "relational":
		if relStore, ok := store.(*relational.Store); ok {
			keystore, err := authrelational.New(ctx, relStore.DB(), relStore.Driver(), c.logger)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("opening keystore: %w", err)
			}
			return keystore, keystore, keystore, nil
		}

		keystore, err := authrelational.Open(ctx, c.cfg.Metadata.Driver, c.cfg.Metadata.DSN, c.logger)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("opening keystore: %w", err)
		}
		return keystore, keystore, keystore, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown auth provider %q (available: relational, none)", c.cfg.Auth.Provider)
	}
}

func (c *ServeCommander) newPublisher() (eventstream.Publisher, error) {
	if len(c.cfg.Events.Brokers) == 0 {
		return nop.New(), nil
	}

	return kafkastream.New(kafkastream.Config{
		Brokers: c.cfg.Events.Brokers,
		Topic:   c.cfg.Events.Topic,
	}, c.logger)
}
