package commands

import (
	"context"
	"fmt"
	"time"

	"reviewcms/auth"
	"reviewcms/database"
	"reviewcms/models"

	"github.com/spf13/cobra"
)

var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create or promote the configured admin account",
	Long: `Create the admin account named by ADMIN_EMAIL / ADMIN_PASSWORD, or promote
an existing user with that email to the admin role. Safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSeedAdmin(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(seedAdminCmd)
}

func runSeedAdmin(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return err
	}
	defer db.Disconnect()

	users := database.NewCollection[models.User](db.Collection(database.ColUsers))
	admin, created, err := auth.EnsureAdmin(ctx, users, cfg.Admin)
	if err != nil {
		return err
	}
	if created {
		fmt.Printf("Created admin %s (%s)\n", admin.Email, admin.ID.Hex())
	} else {
		fmt.Printf("Admin %s already present (%s)\n", admin.Email, admin.ID.Hex())
	}
	return nil
}
