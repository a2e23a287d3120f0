package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/systmms/lockbox/internal/config"
	"github.com/systmms/lockbox/internal/keystore"
)

// NewDoctorCommand creates the 'doctor' command
func NewDoctorCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check store health and configuration",
		Long: `Verify that the secure value store and the metadata file are healthy.

This command checks:
- Which secure backend is active (keychain, aws, or in-memory fallback)
- Metadata file location and permissions
- Metadata file shape against the expected schema`,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := buildEngine(cfg)
			if err != nil {
				cfg.Logger.Error("Configuration error: %v", err)
				return err
			}

			healthy := true

			mode := eng.values.Mode()
			if mode == keystore.ModeMemory {
				cfg.Logger.Warn("secure value store: in-memory fallback; values will not survive this process")
			} else {
				cfg.Logger.Info("secure value store: %s", mode)
			}

			path := eng.file.Path()
			cfg.Logger.Info("metadata file: %s", path)

			if info, err := os.Stat(path); err == nil {
				if perm := info.Mode().Perm(); perm&0o077 != 0 {
					healthy = false
					cfg.Logger.Warn("metadata file is readable by other users (mode %04o); expected 0600", perm)
				} else {
					cfg.Logger.Info("metadata file permissions: %04o", info.Mode().Perm())
				}
			} else if os.IsNotExist(err) {
				cfg.Logger.Info("metadata file not created yet (written on first save)")
			} else {
				healthy = false
				cfg.Logger.Error("cannot stat metadata file: %v", err)
			}

			if findings := eng.file.Verify(); len(findings) > 0 {
				healthy = false
				for _, finding := range findings {
					cfg.Logger.Warn("schema: %s", finding)
				}
			} else {
				cfg.Logger.Info("metadata file shape: ok")
			}

			if !healthy {
				return fmt.Errorf("doctor found problems")
			}
			cfg.Logger.Info("All checks passed")
			return nil
		},
	}

	return cmd
}
