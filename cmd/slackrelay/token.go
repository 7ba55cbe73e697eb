package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/memohai/slackrelay/internal/auth"
	"github.com/memohai/slackrelay/internal/config"
)

func newTokenCommand() *cobra.Command {
	var (
		subject   string
		expiresIn string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin JWT for the /admin API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return mintToken(cmd, cfg, subject, expiresIn)
		},
	}
	cmd.Flags().StringVarP(&subject, "subject", "s", "admin", "Subject recorded in the token")
	cmd.Flags().StringVar(&expiresIn, "expires-in", "", "Token lifetime, defaults to auth.jwt_expires_in")
	return cmd
}

func mintToken(cmd *cobra.Command, cfg config.Config, subject, expiresIn string) error {
	secret := strings.TrimSpace(cfg.Auth.JWTSecret)
	if secret == "" {
		return errors.New("auth.jwt_secret is not configured")
	}
	if strings.TrimSpace(expiresIn) == "" {
		expiresIn = cfg.Auth.JWTExpiresIn
	}
	ttl, err := time.ParseDuration(expiresIn)
	if err != nil {
		return fmt.Errorf("parse expires-in: %w", err)
	}
	token, expiresAt, err := auth.GenerateAdminToken(subject, secret, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.Format(time.RFC3339))
	return nil
}
