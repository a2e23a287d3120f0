package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/systmms/lockbox/internal/config"
)

// NewListCommand creates the 'list' command
func NewListCommand(cfg *config.Config) *cobra.Command {
	var showValues bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all secrets",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := buildEngine(cfg)
			if err != nil {
				return err
			}

			secrets, err := eng.service.List(cmd.Context())
			if err != nil {
				return err
			}

			if len(secrets) == 0 {
				cfg.Logger.Info("No secrets stored")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tVALUE\tUPDATED")
			for _, s := range secrets {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					s.ID, s.Title, s.Category,
					elide(s.Value, showValues),
					s.UpdatedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&showValues, "show-values", false, "Print secret values instead of masking them")

	return cmd
}
