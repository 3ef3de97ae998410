package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tarun-kavipurapu/lanshare/peer"

	"github.com/spf13/cobra"
)

var sendWait time.Duration

var sendCmd = &cobra.Command{
	Use:   "send <peer> <file>",
	Short: "Send one file and exit",
	Long: `Send one file to a host given as address, address:port or display name.
A display name is resolved by listening for announcements for --wait.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Flags(), map[string]string{
			"port":           "transfer.port",
			"discovery-port": "discovery.port",
		})
		if err != nil {
			return err
		}

		node := peer.NewNode(cfg)
		console := peer.NewConsole(os.Stdout, true, node.Feeds()...)
		go console.Start()
		defer console.StopAndWait()

		if sendWait > 0 {
			if err := node.Directory.Start(); err != nil {
				return err
			}
			time.Sleep(sendWait)
			node.Directory.Stop()
			<-node.Directory.Done()
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return node.SendNow(ctx, args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().IntP("port", "p", 0, "Receiver TCP port")
	sendCmd.Flags().Int("discovery-port", 0, "UDP port for discovery broadcasts")
	sendCmd.Flags().DurationVarP(&sendWait, "wait", "w", 0, "Listen for announcements this long before sending")
}
