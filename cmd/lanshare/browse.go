package main

import (
	"context"
	"fmt"
	"time"

	"tarun-kavipurapu/lanshare/pkg/discovery"

	"github.com/spf13/cobra"
)

var browseTimeout time.Duration

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "List receivers advertised over mDNS",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(cmd.Flags(), map[string]string{}); err != nil {
			return err
		}

		resolver, err := discovery.NewResolver()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), browseTimeout)
		defer cancel()

		found, err := resolver.Collect(ctx)
		if err != nil {
			return err
		}
		if len(found) == 0 {
			fmt.Println("No receivers found.")
			return nil
		}
		fmt.Printf("%-16s %-24s %s\n", "IP Address", "Device Name", "Port")
		for _, info := range found {
			fmt.Printf("%-16s %-24s %d\n", info.Address(), info.DisplayName(), info.Port)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)
	browseCmd.Flags().DurationVarP(&browseTimeout, "timeout", "t", 3*time.Second, "How long to browse")
}
