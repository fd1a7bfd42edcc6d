package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func Execute(ctx context.Context) {
	rootCmd := &cobra.Command{
		Use:           "stock-ledger",
		Short:         "Rack-level stock ledger and transfer approval service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	MigrateCmd.Flags().String("dir", "", "Directory containing the migration files (defaults to MIGRATIONS_DIR)")
	TokenCmd.Flags().String("user-id", "", "Subject of the token")
	TokenCmd.Flags().String("role", "keeper", "Role claim: keeper, manager or admin")
	TokenCmd.Flags().Duration("ttl", 0, "Token lifetime (defaults to 24h)")
	_ = TokenCmd.MarkFlagRequired("user-id")

	rootCmd.AddCommand(ServeCmd, MigrateCmd, TokenCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
