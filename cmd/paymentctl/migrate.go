package main

import (
	"fmt"

	"content-marketplace/internal/infra/db/migrations"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var dsn string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, roll back or inspect the database schema",
	}
	cmd.PersistentFlags().StringVar(&dsn, "database-url", "", "override database.url from the config")

	resolve := func() (string, error) {
		if dsn != "" {
			return dsn, nil
		}
		cfg, _, err := loadConfig()
		if err != nil {
			return "", err
		}
		return cfg.Database.URL, nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := resolve()
			if err != nil {
				return err
			}
			if err := migrations.Up(cmd.Context(), url); err != nil {
				return fmt.Errorf("migrate up: %w", err)
			}
			v, err := migrations.Version(cmd.Context(), url)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", v)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := resolve()
			if err != nil {
				return err
			}
			if err := migrations.Down(cmd.Context(), url); err != nil {
				return fmt.Errorf("migrate down: %w", err)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the applied state of every migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := resolve()
			if err != nil {
				return err
			}
			return migrations.Status(cmd.Context(), url)
		},
	})

	return cmd
}
