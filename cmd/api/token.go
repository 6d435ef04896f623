package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sangkips/tempo-pos/internal/application/service"
	"github.com/sangkips/tempo-pos/internal/config"
	"github.com/sangkips/tempo-pos/internal/domain/billing"
	infraRepo "github.com/sangkips/tempo-pos/internal/infrastructure/repository"
	"github.com/sangkips/tempo-pos/pkg/utils"
)

var (
	tokenEmail string
	tokenName  string
	tokenAdmin bool
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Create or update a user and print an access token",
	Example: `  tempo-pos token --email cashier@example.com --name "Front desk"
  tempo-pos -c prod.env token --email owner@example.com --admin`,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "User email (required)")
	tokenCmd.Flags().StringVar(&tokenName, "name", "", "Display name")
	tokenCmd.Flags().BoolVar(&tokenAdmin, "admin", false, "Grant access to the admin dashboard")
	_ = tokenCmd.MarkFlagRequired("email")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Store.Driver == "memory" {
		return fmt.Errorf("token needs a persistent store, STORE_DRIVER is memory")
	}

	// Quiet logger, the token goes to stdout
	log := zerolog.New(cmd.ErrOrStderr()).Level(zerolog.ErrorLevel).With().Timestamp().Logger()

	in, err := openInfra(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer in.Close()

	users := service.NewUserService(infraRepo.NewUserRepository(in.store), billing.SystemClock{})
	user, err := users.EnsureUser(cmd.Context(), &service.EnsureUserInput{
		Email:   tokenEmail,
		Name:    tokenName,
		IsAdmin: tokenAdmin,
	})
	if err != nil {
		return err
	}

	jwtManager := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpiryHours, cfg.JWT.Issuer)
	token, err := jwtManager.GenerateAccessToken(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "user %s (%s) admin=%v\n", user.Email, user.ID, user.IsAdmin)
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
