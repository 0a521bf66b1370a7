package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	loader := &appLoader{}

	rootCmd := &cobra.Command{
		Use:           "subs",
		Short:         "Syntrafit subscriptions (subs): check and manage the premium entitlement",
		Long:          "subs reconciles the Syntrafit premium entitlement across the remote entitlement service, the platform store and a local cache, and lets you check access, purchase, restore and manage the subscription from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&loader.configFile, "config", "", "config file (default ~/.syntrafit/config.toml)")
	flags.StringVar(&loader.logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(
		newVersionCmd(),
		newStatusCmd(loader),
		newCheckCmd(loader),
		newPurchaseCmd(loader),
		newRestoreCmd(loader),
		newPriceCmd(loader),
		newManageCmd(loader),
		newWatchCmd(loader),
		newServeCmd(loader),
	)

	return rootCmd
}
