// Package cli provides the command-line interface for sp-uploader.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/penwern/curate-sharepoint-uploader/internal/config"
	"github.com/penwern/curate-sharepoint-uploader/internal/logging"
	"github.com/penwern/curate-sharepoint-uploader/internal/version"
)

var (
	cfgFile string
	verbose bool
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sp-uploader",
		Short: "SharePoint to Curate transfer service",
		Long: `sp-uploader ` + version.Version + ` - Built: ` + version.BuildTime + `
Service that accepts upload batches from the SharePoint front end and
transfers the selected files and folders into a Curate site, tagging
preservation status back onto the source items.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logging.SetGlobalLevel(-1) // zerolog.DebugLevel
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path (default "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")

	rootCmd.Version = version.Version + " (" + version.BuildTime + ")"

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sp-uploader %s (built %s)\n", version.Version, version.BuildTime)
		},
	}
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
