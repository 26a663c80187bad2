// Package lexfindcmder
package lexfindcmder

import (
	"github.com/spf13/cobra"

	indexcmder "github.com/lexfindco/lexfind/cmd/lexfind/index"
	keyscmder "github.com/lexfindco/lexfind/cmd/lexfind/keys"
	seedcmder "github.com/lexfindco/lexfind/cmd/lexfind/seed"
	servecmder "github.com/lexfindco/lexfind/cmd/lexfind/serve"
)

const lexfindLongDesc string = `Lexfind is semantic retrieval over a legal-text corpus.

Run services using:
  lexfind serve        Run the retrieval API server
  lexfind index        Build the vector index and metadata artifacts
  lexfind seed         Load metadata into the relational store
  lexfind keys         Manage API keys`

const lexfindShortDesc string = "Lexfind - Legal Text Retrieval"

func NewLexfindCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lexfind",
		Short: lexfindShortDesc,
		Long:  lexfindLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config", "", "Directory containing config.toml")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(indexcmder.NewIndexCmd())
	cmd.AddCommand(seedcmder.NewSeedCmd())
	cmd.AddCommand(keyscmder.NewKeysCmd())

	return cmd
}
