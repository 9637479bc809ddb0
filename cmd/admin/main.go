package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"kointos-backend/internal/admin"
	"kointos-backend/internal/api/config"
	"kointos-backend/internal/schema"
	"kointos-backend/pkg/logger"
	"kointos-backend/pkg/postgres"

	"github.com/spf13/cobra"
)

var (
	configPath string

	email    string
	password string
	groups   []string

	faqPath string
)

func newAdminService() (*admin.Service, func()) {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	db, err := postgres.NewDB(postgres.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
		TimeZone: cfg.Database.TimeZone,
		LogLevel: cfg.Database.LogLevel,
	})
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}

	cleanup := func() {
		if sqlDB, err := db.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
		_ = appLogger.Sync()
	}
	return admin.NewService(db.DB, cfg.Auth, schema.NewValidator(), appLogger), cleanup
}

var addUserCmd = &cobra.Command{
	Use:   "adduser",
	Short: "Create an identity, optionally in one or more groups",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cleanup := newAdminService()
		defer cleanup()

		identity, err := svc.AddUser(context.Background(), email, password, groups)
		if err != nil {
			return err
		}
		fmt.Printf("Created identity %s (%s)\n", identity.ID, identity.Email)
		return nil
	},
}

var importFAQCmd = &cobra.Command{
	Use:   "import-faq",
	Short: "Create or update FAQ entries from a YAML file",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(faqPath)
		if err != nil {
			return fmt.Errorf("failed to open faq file: %w", err)
		}
		defer f.Close()

		faqs, err := admin.LoadFAQs(f)
		if err != nil {
			return err
		}

		svc, cleanup := newAdminService()
		defer cleanup()

		result, err := svc.ImportFAQs(context.Background(), faqs)
		if err != nil {
			return err
		}
		fmt.Printf("Imported FAQs: %d created, %d updated\n", result.Created, result.Updated)
		return nil
	},
}

func main() {
	rootCmd := &cobra.Command{Use: "admin", SilenceUsage: true}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config-api.yaml", "Path to the configuration file")

	addUserCmd.Flags().StringVar(&email, "email", "", "Email of the new identity")
	addUserCmd.Flags().StringVar(&password, "password", "", "Password of the new identity")
	addUserCmd.Flags().StringSliceVar(&groups, "group", nil, "Group to add the identity to (repeatable)")
	_ = addUserCmd.MarkFlagRequired("email")
	_ = addUserCmd.MarkFlagRequired("password")

	importFAQCmd.Flags().StringVarP(&faqPath, "file", "f", "configs/faqs.yaml", "Path to the FAQ YAML file")

	rootCmd.AddCommand(addUserCmd, importFAQCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing admin CLI: %s\n", err)
		os.Exit(1)
	}
}
