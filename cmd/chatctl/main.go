// Command chatctl inspects and maintains the chat store offline.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	storeDriver string
	nickname    string
)

var rootCmd = &cobra.Command{
	Use:           "chatctl",
	Short:         "Inspect and maintain the group chat store",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storeDriver, "driver", "", "store driver (badger or sqlite), overrides STORE_DRIVER")

	historyCmd.Flags().StringVar(&nickname, "nickname", "", "nickname whose view is shown")
	_ = historyCmd.MarkFlagRequired("nickname")
	clearCmd.Flags().StringVar(&nickname, "nickname", "", "nickname whose history is cleared")
	_ = clearCmd.MarkFlagRequired("nickname")

	rootCmd.AddCommand(accountsCmd, historyCmd, clearCmd, resetPresenceCmd)
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "chatctl: %v\n", err)
		os.Exit(1)
	}
}
