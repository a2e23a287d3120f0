package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/systmms/lockbox/internal/config"
)

// NewGetCommand creates the 'get' command
func NewGetCommand(cfg *config.Config) *cobra.Command {
	var valueOnly bool

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a single secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := buildEngine(cfg)
			if err != nil {
				return err
			}

			s, err := eng.service.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if valueOnly {
				// Bare value on stdout so it can be piped.
				fmt.Println(s.Value)
				return nil
			}

			fmt.Printf("ID:       %s\n", s.ID)
			fmt.Printf("Title:    %s\n", s.Title)
			fmt.Printf("Category: %s\n", s.Category)
			fmt.Printf("Value:    %s\n", s.Value)
			if s.Notes != "" {
				fmt.Printf("Notes:    %s\n", s.Notes)
			}
			fmt.Printf("Created:  %s\n", s.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Printf("Updated:  %s\n", s.UpdatedAt.Format("2006-01-02 15:04:05"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&valueOnly, "value-only", false, "Print only the secret value")

	return cmd
}
