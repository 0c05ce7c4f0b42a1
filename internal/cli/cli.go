// Package cli implements shortyctl, the operator tool for the link store.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/shortyapp/shorty/codegen"
	"github.com/shortyapp/shorty/internal/app"
	"github.com/shortyapp/shorty/internal/auth"
	"github.com/shortyapp/shorty/internal/config"
	"github.com/shortyapp/shorty/internal/links"
)

// NewRootCmd returns the shortyctl command tree.
func NewRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "shortyctl",
		Short:         "Operate a shorty link store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			app.LoadEnv()
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	logger := func() *slog.Logger { return app.NewLogger(logLevel) }

	root.AddCommand(
		newMigrateCmd(logger),
		newTokenCmd(),
		newCreateCmd(logger),
	)
	return root
}

func newMigrateCmd(logger func() *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the links schema",
		Long: `Connects to the store selected by DB_DRIVER (postgres or sqlite) and
applies pending schema migrations.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dbCfg, err := config.LoadDatabase()
			if err != nil {
				return err
			}
			if dbCfg.Driver == config.DriverMemory {
				return errors.New("the memory driver has no schema to migrate")
			}
			dbCfg.AutoMigrate = true

			_, closeStore, err := app.OpenStore(cmd.Context(), dbCfg, logger())
			if err != nil {
				return err
			}
			if err := closeStore(); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s schema is up to date\n", dbCfg.Driver)
			return err
		},
	}
}

func newTokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for an identity",
		Long: `Signs an HS256 token with AUTH_JWT_SECRET whose subject is the given
identity. Intended for development and operational scripts.`,
		Example: `  shortyctl token --subject alice --ttl 1h`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			authCfg, err := config.LoadAuth()
			if err != nil {
				return err
			}
			issuer, err := auth.NewIssuer([]byte(authCfg.JWTSecret), authCfg.Issuer)
			if err != nil {
				return err
			}

			token, err := issuer.Issue(auth.Identity(subject), ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "identity placed in the sub claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func newCreateCmd(logger func() *slog.Logger) *cobra.Command {
	var (
		targetURL string
		code      string
		owner     string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a short link directly in the store",
		Example: `  shortyctl create --url https://go.dev --owner alice
  shortyctl create --url https://go.dev --owner alice --code golang`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dbCfg, err := config.LoadDatabase()
			if err != nil {
				return err
			}
			linksCfg, err := config.LoadLinks()
			if err != nil {
				return err
			}
			if dbCfg.Driver == config.DriverMemory {
				return errors.New("create needs a persistent store; set DB_DRIVER to postgres or sqlite")
			}

			store, closeStore, err := app.OpenStore(cmd.Context(), dbCfg, logger())
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			link, err := createLink(cmd.Context(), store, linksCfg, logger(), auth.Identity(owner), targetURL, code)
			if err != nil {
				return err
			}
			return printLink(cmd.OutOrStdout(), link)
		},
	}
	cmd.Flags().StringVar(&targetURL, "url", "", "target URL (http or https)")
	cmd.Flags().StringVar(&code, "code", "", "custom code; generated when empty")
	cmd.Flags().StringVar(&owner, "owner", "", "identity that will own the link")
	_ = cmd.MarkFlagRequired("url")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func createLink(ctx context.Context, store links.Store, cfg *config.LinksConfig, logger *slog.Logger, owner auth.Identity, targetURL, code string) (links.Link, error) {
	codes, err := codegen.NewRandom(cfg.CodeLength)
	if err != nil {
		return links.Link{}, err
	}

	registry := links.NewRegistry(store, &links.RegistryConfig{
		CodeGenerator: codes,
		MaxAttempts:   cfg.MaxAttempts,
		StoreTimeout:  cfg.StoreTimeout,
		Logger:        logger,
	})
	return registry.Create(ctx, owner, targetURL, code)
}

func printLink(w io.Writer, link links.Link) error {
	_, err := fmt.Fprintf(w, "id:      %s\ncode:    %s\ntarget:  %s\nowner:   %s\ncreated: %s\n",
		link.ID, link.Code, link.TargetURL, link.OwnerID, link.CreatedAt.Format(time.RFC3339))
	return err
}
