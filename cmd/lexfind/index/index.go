// Package indexcmder provides the offline artifact build command.
package indexcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lexfindco/lexfind/pkg/config"
	"github.com/lexfindco/lexfind/pkg/document"
	"github.com/lexfindco/lexfind/pkg/embeddings/ollama"
	"github.com/lexfindco/lexfind/pkg/logger"
	"github.com/lexfindco/lexfind/pkg/vector/flat"
	"github.com/lexfindco/lexfind/pkg/vector/sqlitevec"
)

const indexLongDesc string = `Build the vector index and metadata artifacts from a corpus file.

The corpus is a JSON array of documents. Each document's content is embedded
in one batch, and two artifacts are written: the vector index (flat binary
artifact or sqlite-vec database, per --index-provider) and the metadata JSON
consumed by the static store.

Examples:
  lexfind index corpus.json
  lexfind index corpus.json --index-path lexfind.index --metadata-path metadata.json
  lexfind index corpus.json --index-provider sqlite --index-sqlite lexfind.db`

const indexShortDesc string = "Build index and metadata artifacts"

type indexCommander struct {
	provider     string
	indexPath    string
	sqlitePath   string
	metadataPath string
	target       string
	model        string
	dims         int
	debug        bool
	logger       *slog.Logger
}

var indexFlagKeys = []string{
	config.FlagIndexProvider,
	config.FlagIndexPath,
	config.FlagIndexSQLite,
	config.FlagMetaPath,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
}

func NewIndexCmd() *cobra.Command {
	cmder := &indexCommander{}

	cmd := &cobra.Command{
		Use:   "index <corpus.json>",
		Short: indexShortDesc,
		Long:  indexLongDesc,
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

			config.BindRegisteredFlags(v, cmd, config.Flags, indexFlagKeys)

			cfg, err := config.FromViper(v)
			if err != nil {
				return err
			}

			cmder.provider = cfg.Index.Provider
			cmder.indexPath = cfg.Index.Path
			cmder.sqlitePath = cfg.Index.SQLitePath
			cmder.metadataPath = cfg.Metadata.Path
			cmder.target = cfg.Embedding.Target
			cmder.model = cfg.Embedding.Model
			cmder.dims = cfg.Embedding.Dimensions

			return cmder.run(cmd.Context(), args[0])
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagIndexProvider, &cmder.provider)
	config.AddStringFlag(cmd, config.Flags, config.FlagIndexPath, &cmder.indexPath)
	config.AddStringFlag(cmd, config.Flags, config.FlagIndexSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagMetaPath, &cmder.metadataPath)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &cmder.target)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &cmder.model)
	config.AddIntFlag(cmd, config.Flags, config.FlagEmbeddingDims, &cmder.dims)

	return cmd
}

func (c *indexCommander) run(ctx context.Context, corpusPath string) error {
	c.logger = logger.New(logger.WithPretty(true), logger.WithDebug(c.debug))

	docs, err := loadCorpus(corpusPath)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("corpus %s contains no documents", corpusPath)
	}

	c.logger.Info("embedding corpus",
		"documents", len(docs),
		"model", c.model,
	)

	embedder, err := ollama.New(ollama.Config{
		BaseURL: c.target,
		Model:   c.model,
	})
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	defer embedder.Close()

	ids := make([]string, len(docs))
	texts := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
		texts[i] = doc.Content
	}

	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding corpus: %w", err)
	}

	if err := c.writeIndex(ctx, ids, vectors); err != nil {
		return err
	}

	if err := writeMetadata(c.metadataPath, docs); err != nil {
		return err
	}

	c.logger.Info("artifacts written",
		"documents", len(docs),
		"metadata", c.metadataPath,
	)

	return nil
}

func (c *indexCommander) writeIndex(ctx context.Context, ids []string, vectors [][]float32) error {
	switch c.provider {
	case "flat":
		index, err := flat.New(c.dims)
		if err != nil {
			return err
		}
		if err := index.Build(ids, vectors); err != nil {
			return fmt.Errorf("building index: %w", err)
		}
		if err := index.WriteFile(c.indexPath); err != nil {
			return fmt.Errorf("writing index artifact: %w", err)
		}
		c.logger.Info("wrote flat index", "path", c.indexPath, "vectors", len(ids))
		return nil

	case "sqlite":
		searcher, err := sqlitevec.New(sqlitevec.Config{
			DBPath:     c.sqlitePath,
			Dimensions: c.dims,
		}, c.logger)
		if err != nil {
			return fmt.Errorf("opening sqlite-vec index: %w", err)
		}
		defer searcher.Close()

		if err := searcher.Build(ctx, ids, vectors); err != nil {
			return fmt.Errorf("building index: %w", err)
		}
		c.logger.Info("wrote sqlite-vec index", "path", c.sqlitePath, "vectors", len(ids))
		return nil

	default:
		return fmt.Errorf("unknown index provider %q (available: flat, sqlite)", c.provider)
	}
}

func loadCorpus(path string) ([]document.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading corpus: %w", err)
	}

	var docs []document.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parsing corpus: %w", err)
	}

	return docs, nil
}

func writeMetadata(path string, docs []document.Document) error {
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing metadata artifact: %w", err)
	}

	return nil
}
