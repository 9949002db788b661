package main

import (
	"errors"
	"fmt"

	"content-marketplace/internal/domain"
	"content-marketplace/internal/domain/model"
	pg "content-marketplace/internal/infra/db/postgres"
	"content-marketplace/internal/usecase"

	"github.com/spf13/cobra"
)

// catalogue is the starter set of paid courses. Ids are fixed so reseeding updates in place.
var catalogue = []struct {
	ID          string
	Name        string
	Description string
	Price       int64 // VND
}{
	{"course-typography-basics", "Typography Basics", "Type anatomy, pairing and hierarchy for screen and print.", 299_000},
	{"course-font-design", "Font Design Masterclass", "Drawing, spacing and exporting a complete Latin and Vietnamese font.", 1_290_000},
	{"course-calligraphy", "Modern Calligraphy", "Brush lettering from first strokes to finished compositions.", 590_000},
}

func seedCmd() *cobra.Command {
	var adminEmail, adminPassword string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert the course catalogue and optionally create an admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
			if err != nil {
				return fmt.Errorf("postgres: %w", err)
			}
			defer pool.Close()

			courses := pg.NewCourseRepo(pool)
			for _, c := range catalogue {
				course, err := model.NewCourse(c.ID, c.Name, c.Description, c.Price)
				if err != nil {
					return fmt.Errorf("course %q: %w", c.ID, err)
				}
				if err := courses.Save(ctx, nil, course); err != nil {
					return fmt.Errorf("save course %q: %w", c.ID, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded: %s (id=%s, price=%d VND)\n", c.Name, c.ID, c.Price)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "premium subscription: ref=%s, price=%d VND (from config)\n",
				model.PackageSubscriptionPremium, cfg.Payment.PremiumPrice)

			if adminEmail == "" {
				return nil
			}
			users := pg.NewUserRepo(pool)
			userUC := usecase.NewUserUseCase(users, pg.NewCourseAccessRepo(pool), pg.NewTxManager(pool), logger)
			u, err := userUC.Register(ctx, adminEmail, "admin", adminPassword)
			switch {
			case errors.Is(err, domain.ErrAlreadyExists):
				if u, err = users.FindByEmail(ctx, nil, adminEmail); err != nil {
					return err
				}
			case err != nil:
				return fmt.Errorf("register admin: %w", err)
			}
			u.Role = model.RoleAdmin
			if err := users.Save(ctx, nil, u); err != nil {
				return fmt.Errorf("promote admin: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin account: %s (id=%s)\n", u.Email, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&adminEmail, "admin-email", "", "create or promote this account to admin")
	cmd.Flags().StringVar(&adminPassword, "admin-password", "", "password for a newly created admin account")
	return cmd
}
