package commands

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/systmms/lockbox/internal/config"
	"github.com/systmms/lockbox/internal/secret"
	"github.com/systmms/lockbox/internal/service"
)

// NewCreateCommand creates the 'create' command
func NewCreateCommand(cfg *config.Config) *cobra.Command {
	var (
		id       string
		title    string
		value    string
		category string
		notes    string
	)

	categoryNames := make([]string, 0, len(secret.Categories))
	for _, c := range secret.Categories {
		categoryNames = append(categoryNames, c.String())
	}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Store a new secret",
		Long: `Store a new secret. The value goes into the secure value store; the
metadata is written to the local secrets file.

Example:
  lockbox create --title "Email" --value "p@ss" --category password`,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := buildEngine(cfg)
			if err != nil {
				return err
			}

			if id == "" {
				id = uuid.NewString()
			}

			req := service.CreateRequest{
				ID:       id,
				Title:    title,
				Value:    value,
				Category: category,
			}
			if cmd.Flags().Changed("notes") {
				req.Notes = &notes
			}

			s, err := eng.service.Create(cmd.Context(), req)
			if err != nil {
				return err
			}

			cfg.Logger.Info("Created secret '%s' (%s)", s.Title, s.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Secret id (generated when omitted)")
	cmd.Flags().StringVar(&title, "title", "", "Secret title")
	cmd.Flags().StringVar(&value, "value", "", "Secret value")
	cmd.Flags().StringVar(&category, "category", "",
		fmt.Sprintf("Category (%s)", strings.Join(categoryNames, ", ")))
	cmd.Flags().StringVar(&notes, "notes", "", "Optional notes")

	return cmd
}
