package cli

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pinctl/pinctl/internal/config"
	"github.com/pinctl/pinctl/internal/dashboard"
	"github.com/pinctl/pinctl/internal/errors"
	"github.com/pinctl/pinctl/internal/notices"
	"github.com/pinctl/pinctl/internal/series"
	"github.com/pinctl/pinctl/internal/stream"
	"github.com/pinctl/pinctl/internal/syncer"
)

var (
	watchIntervalFlag string
	watchRealtimeFlag bool
)

// watchCmd starts the live metrics dashboard.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live dashboard of service status and metrics",
	Long: `Start an interactive dashboard showing live service status,
utilization and network-rate graphs, and pending deprecation notices.

By default state is refreshed by polling. With --realtime (or the 't'
key) a push channel delivers updates as they happen; polling is
suspended while the channel is connected and resumes if it drops.

Keyboard shortcuts:
  q / Ctrl+C  Quit
  r           Run a poll round now
  t           Toggle the realtime push channel
  d           Dismiss deprecation notices
  ?           Show help

Examples:
  pinctl watch
  pinctl watch --realtime
  pinctl watch --interval 10s`,
	RunE: func(cmd *cobra.Command, args []string) error {
		interval := time.Duration(0)
		if watchIntervalFlag != "" {
			parsed, err := time.ParseDuration(watchIntervalFlag)
			if err != nil {
				return errors.WrapWithCode(err, errors.ErrConfig,
					"Invalid interval: "+watchIntervalFlag,
					"Use a valid duration like 2s, 5s, or 1m")
			}
			if parsed < 500*time.Millisecond {
				return errors.New(errors.ErrConfig,
					"Interval too short",
					"Minimum interval is 500ms to avoid overwhelming the service")
			}
			interval = parsed
		}
		return watchCommand(interval, watchRealtimeFlag)
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchIntervalFlag, "interval", "", "poll interval (e.g., 2s, 5s, 1m)")
	watchCmd.Flags().BoolVar(&watchRealtimeFlag, "realtime", false, "enable the push channel at startup")
	rootCmd.AddCommand(watchCmd)
}

func watchCommand(interval time.Duration, realtime bool) error {
	client, cfg, err := newClient()
	if err != nil {
		return err
	}

	if interval <= 0 {
		interval = cfg.Sync.PollInterval
	}
	if interval <= 0 {
		interval = config.DefaultPollInterval
	}
	reconnect := cfg.Sync.ReconnectDelay
	if reconnect <= 0 {
		reconnect = config.DefaultReconnectDelay
	}

	wsURL, err := client.WebSocketURL()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := series.NewStore()
	agg := notices.NewAggregator()
	s := syncer.New(client, stream.NewWebSocketDialer(wsURL, client.APIKey()), store, agg, syncer.Options{
		PollInterval:   interval,
		ReconnectDelay: reconnect,
	})

	go s.Run(ctx)
	if realtime || cfg.Sync.Realtime {
		s.EnableRealtime(ctx)
	}

	model := dashboard.NewModel(ctx, s, store, agg)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrChannel,
			"Dashboard terminated unexpectedly", "")
	}
	return nil
}
