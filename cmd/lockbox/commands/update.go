package commands

import (
	"github.com/spf13/cobra"

	"github.com/systmms/lockbox/internal/config"
	"github.com/systmms/lockbox/internal/service"
)

// NewUpdateCommand creates the 'update' command
func NewUpdateCommand(cfg *config.Config) *cobra.Command {
	var (
		title    string
		value    string
		category string
		notes    string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update fields of an existing secret",
		Long: `Update an existing secret. Only the flags you pass change; omitted
fields keep their current values.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := buildEngine(cfg)
			if err != nil {
				return err
			}

			var req service.UpdateRequest
			if cmd.Flags().Changed("title") {
				req.Title = &title
			}
			if cmd.Flags().Changed("value") {
				req.Value = &value
			}
			if cmd.Flags().Changed("category") {
				req.Category = &category
			}
			if cmd.Flags().Changed("notes") {
				req.Notes = &notes
			}

			s, err := eng.service.Update(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}

			cfg.Logger.Info("Updated secret '%s' (%s)", s.Title, s.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&value, "value", "", "New value")
	cmd.Flags().StringVar(&category, "category", "", "New category")
	cmd.Flags().StringVar(&notes, "notes", "", "New notes (pass an empty string to clear)")

	return cmd
}
