package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/islandguide/internal/config"
)

func main() {
	if err := rootCMD().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCMD() *cobra.Command {
	var (
		cfg          *config.Config
		documentsDir string
		dataDir      string
	)

	root := &cobra.Command{
		Use:           "islandguide",
		Short:         "Goto islands travel guide: grounded answers, ferry status and map links",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg = config.Load()
			if documentsDir != "" {
				cfg.DocumentsDir = documentsDir
			}
			if dataDir != "" {
				cfg.DataDir = dataDir
			}
			slog.SetDefault(cfg.Logger())
			return nil
		},
	}
	root.PersistentFlags().StringVar(&documentsDir, "documents", "", "documents directory (overrides DOCUMENTS_DIR)")
	root.PersistentFlags().StringVar(&dataDir, "data", "", "data directory for the index and lock (overrides DATA_DIR)")

	// Subcommands read cfg after PersistentPreRunE has filled it in.
	getCfg := func() *config.Config { return cfg }
	root.AddCommand(
		serveCMD(getCfg),
		reloadCMD(getCfg),
		askCMD(getCfg),
		statusCMD(getCfg),
	)
	return root
}
