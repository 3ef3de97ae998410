package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"tarun-kavipurapu/lanshare/peer"
	"tarun-kavipurapu/lanshare/pkg/logger"
	"tarun-kavipurapu/lanshare/pkg/monitor"

	"github.com/c-bata/go-prompt"
	"github.com/spf13/cobra"
)

var runInteractive bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Announce this host, discover others and accept transfers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Flags(), map[string]string{
			"port":           "transfer.port",
			"discovery-port": "discovery.port",
			"dest":           "transfer.dest_dir",
			"mdns":           "discovery.mdns",
			"ttl":            "discovery.peer_ttl",
		})
		if err != nil {
			return err
		}
		logger.Sugar.Infof("Starting node %q: transfer port %d, discovery port %d", cfg.Name, cfg.Transfer.Port, cfg.Discovery.Port)

		node := peer.NewNode(cfg)
		if err := node.Start(); err != nil {
			return err
		}

		console := peer.NewConsole(os.Stdout, true, node.Feeds()...)
		go console.Start()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if cfg.Metrics.Interval > 0 {
			go monitor.LogPeriodic(ctx, cfg.Metrics.Interval)
		}

		if runInteractive {
			console.Println(fmt.Sprintf("LAN share: %s (%s)", cfg.Name, node.Directory.LocalAddr()))
			console.Println("Type 'help' for commands.")

			prompt.New(
				func(in string) { runExecutor(in, node, console) },
				func(d prompt.Document) []prompt.Suggest { return runCompleter(d, node) },
				prompt.OptionPrefix("lanshare> "),
				prompt.OptionTitle("LAN share"),
			).Run()
		} else {
			<-ctx.Done()
		}

		console.StopAndWait()
		return node.Stop()
	},
}

func runExecutor(in string, node *peer.Node, console *peer.Console) {
	blocks := strings.Fields(strings.TrimSpace(in))
	if len(blocks) == 0 {
		return
	}

	switch blocks[0] {
	case "exit", "quit":
		console.Println("Stopping...")
		console.StopAndWait()
		if err := node.Stop(); err != nil {
			logger.Sugar.Errorf("stop: %v", err)
		}
		logger.Sync()
		os.Exit(0)
	case "peers", "list":
		console.Println(peer.FormatPeers(node.Peers()))
	case "status":
		console.Println(node.GetStatus())
	case "send":
		if len(blocks) < 3 {
			console.Println("Usage: send <peer> <file_path>")
			return
		}
		path := strings.Join(blocks[2:], " ")
		if err := node.SendTo(blocks[1], path); err != nil {
			console.Println(fmt.Sprintf("Error: %v", err))
		}
	case "help":
		console.Println(strings.Join([]string{
			"Available commands:",
			"  peers                  - List discovered hosts",
			"  send <peer> <path>     - Send a file to a host (name, address or address:port)",
			"  status                 - Show node status and transfer totals",
			"  exit                   - Stop and exit",
		}, "\n"))
	default:
		console.Println("Unknown command: " + blocks[0])
	}
}

func runCompleter(d prompt.Document, node *peer.Node) []prompt.Suggest {
	fields := strings.Fields(d.TextBeforeCursor())
	word := d.GetWordBeforeCursor()

	// Second word of "send": offer discovered hosts.
	if len(fields) >= 1 && fields[0] == "send" && (len(fields) == 1 && word == "" || len(fields) == 2 && word != "") {
		var s []prompt.Suggest
		for _, p := range node.Peers() {
			s = append(s, prompt.Suggest{Text: p.Address, Description: p.DisplayName})
		}
		return prompt.FilterHasPrefix(s, word, true)
	}
	if len(fields) > 1 || (len(fields) == 1 && word == "") {
		return nil
	}

	s := []prompt.Suggest{
		{Text: "peers", Description: "List discovered hosts"},
		{Text: "send", Description: "Send a file"},
		{Text: "status", Description: "Show node status"},
		{Text: "exit", Description: "Stop and exit"},
		{Text: "help", Description: "Show help"},
	}
	return prompt.FilterHasPrefix(s, word, true)
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().IntP("port", "p", 0, "TCP port for incoming transfers")
	runCmd.Flags().Int("discovery-port", 0, "UDP port for discovery broadcasts")
	runCmd.Flags().StringP("dest", "d", "", "Directory for received files")
	runCmd.Flags().Bool("mdns", false, "Also advertise the receiver over mDNS")
	runCmd.Flags().Duration("ttl", 0, "Forget hosts not heard from for this long (0 keeps them)")
	runCmd.Flags().BoolVarP(&runInteractive, "interactive", "i", false, "Start in interactive mode")
}
