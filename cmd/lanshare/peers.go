package main

import (
	"fmt"
	"time"

	"tarun-kavipurapu/lanshare/peer"
	"tarun-kavipurapu/lanshare/pkg/discovery"

	"github.com/spf13/cobra"
)

var peersDuration time.Duration

var peersCmd = &cobra.Command{
	Use:   "peers",
	Short: "Broadcast for a while and list the hosts that answered",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Flags(), map[string]string{
			"discovery-port": "discovery.port",
		})
		if err != nil {
			return err
		}

		dir := discovery.NewDirectory(cfg.Name, cfg.Discovery)
		if err := dir.Start(); err != nil {
			return err
		}
		time.Sleep(peersDuration)
		dir.Stop()
		<-dir.Done()

		fmt.Println(peer.FormatPeers(dir.Peers()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(peersCmd)
	peersCmd.Flags().Int("discovery-port", 0, "UDP port for discovery broadcasts")
	peersCmd.Flags().DurationVarP(&peersDuration, "duration", "t", 5*time.Second, "How long to listen")
}
