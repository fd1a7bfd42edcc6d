package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/roles"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/security"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var TokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for local testing.",
	Long:  `Signs a token with JWT_SECRET. Users are managed elsewhere; this exists for development only.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_ = godotenv.Load()
		secret := os.Getenv("JWT_SECRET")
		if secret == "" {
			return errors.New("JWT_SECRET is required")
		}

		userID, _ := cmd.Flags().GetString("user-id")
		roleName, _ := cmd.Flags().GetString("role")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}

		role := roles.Role(roleName)
		if !role.IsValid() {
			return fmt.Errorf("unknown role %q", roleName)
		}

		token, err := security.GenerateJWT([]byte(secret), userID, role, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}
