package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/resumeai/internal/config"
	"github.com/jonathan/resumeai/internal/db"
	"github.com/jonathan/resumeai/internal/server"
	"github.com/jonathan/resumeai/internal/types"
)

var (
	registerUsername string
	registerPassword string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and print its first API key",
	Long: `Create an account in the credential store (DATABASE_URL) and print a fresh API key.
When --password is omitted the password is read from the first line of standard input.`,
	RunE: runRegister,
}

func init() {
	registerCmd.Flags().StringVarP(&registerUsername, "username", "u", "", "Account username (required)")
	registerCmd.Flags().StringVarP(&registerPassword, "password", "p", "", "Account password (read from stdin when omitted)")
	_ = registerCmd.MarkFlagRequired("username")
	rootCmd.AddCommand(registerCmd)
}

func runRegister(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required to register an account")
	}
	password := registerPassword
	if password == "" {
		if password, err = readPassword(cmd.InOrStdin()); err != nil {
			return err
		}
	}
	passwords, err := config.NewPasswordConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()
	if err := database.EnsureSchema(ctx); err != nil {
		return err
	}

	return registerAccount(ctx, server.NewUserService(database, passwords), registerUsername, password, cmd.OutOrStdout())
}

// registerAccount creates the account and writes its API key to out.
func registerAccount(ctx context.Context, users *server.UserService, username, password string, out io.Writer) error {
	req := &types.CredentialsRequest{Username: username, Password: password}
	if err := req.Validate(); err != nil {
		return err
	}
	user, key, err := users.Register(ctx, req)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "registered %s (%s)\napi key: %s\n", user.Username, user.ID, key)
	return err
}

func readPassword(in io.Reader) (string, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password is required")
	}
	return password, nil
}
