package commands

import (
	"github.com/spf13/cobra"

	"github.com/systmms/lockbox/internal/config"
)

// NewDeleteCommand creates the 'delete' command
func NewDeleteCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a secret from both stores",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := buildEngine(cfg)
			if err != nil {
				return err
			}

			s, err := eng.service.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			cfg.Logger.Info("Deleted secret '%s' (%s)", s.Title, s.ID)
			return nil
		},
	}

	return cmd
}
