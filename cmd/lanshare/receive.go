package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"tarun-kavipurapu/lanshare/peer"
	"tarun-kavipurapu/lanshare/pkg/logger"

	"github.com/spf13/cobra"
)

var receiveCmd = &cobra.Command{
	Use:   "receive",
	Short: "Accept transfers without announcing this host",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Flags(), map[string]string{
			"port": "transfer.port",
			"dest": "transfer.dest_dir",
		})
		if err != nil {
			return err
		}

		node := peer.NewNode(cfg)
		if err := node.StartReceiverOnly(); err != nil {
			return err
		}
		logger.Sugar.Infof("Receiving on %s into %s", node.Receiver.Addr(), cfg.Transfer.DestDir)

		console := peer.NewConsole(os.Stdout, true, node.Receiver.Events())
		go console.Start()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		console.StopAndWait()
		return node.Receiver.Stop()
	},
}

func init() {
	rootCmd.AddCommand(receiveCmd)
	receiveCmd.Flags().IntP("port", "p", 0, "TCP port for incoming transfers")
	receiveCmd.Flags().StringP("dest", "d", "", "Directory for received files")
}
