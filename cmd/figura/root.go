// Package cli holds the cobra commands for the figura binary.
package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/figurabot/figura/internal/config"
	"github.com/figurabot/figura/internal/db"
	"github.com/figurabot/figura/internal/persona"
)

// SetupRootCmd builds the root command. Running the binary with no
// arguments starts the bot server.
func SetupRootCmd(cfg config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:   "figura",
		Short: "Telegram personalities bot",
		Long:  "figura lets Telegram users pick a persona and chat with an LLM role-playing it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cfg)
		},
		SilenceUsage: true,
	}

	root.AddCommand(newServeCmd(cfg))
	root.AddCommand(newPersonasCmd(cfg))
	return root
}

func newServeCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cfg)
		},
	}
}

func newPersonasCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "personas",
		Short: "List personas known to the local database",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := db.Open(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer conn.Close()

			catalog := persona.NewCatalog(conn)
			if err := catalog.Seed(cmd.Context()); err != nil {
				return err
			}
			if err := catalog.Reload(cmd.Context()); err != nil {
				return err
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE")
			for _, p := range catalog.All() {
				fmt.Fprintf(tw, "%s\t%s\n", p.ID, p.Title)
			}
			return tw.Flush()
		},
	}
}
