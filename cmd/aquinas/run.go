package main

import (
	"github.com/czx-lab/aquinas"
	"github.com/czx-lab/aquinas/config"
	"github.com/czx-lab/aquinas/network"
	"github.com/czx-lab/aquinas/network/metrics"
	"github.com/czx-lab/aquinas/network/tcp"
	"github.com/czx-lab/aquinas/technite"
	"github.com/czx-lab/aquinas/xlog"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func runCmd() *cobra.Command {
	var (
		configPath string
		url        string
		logLevel   string
		once       bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to a game server and play",
		Long: `Connect to a game server and play until interrupted.

Settings come from the config file (yaml, json or toml) when given;
flags override them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if url != "" {
				cfg.Url = url
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if once {
				cfg.AutoReconnect = false
			}

			xlog.Load(&cfg.Log)
			defer xlog.Write().Sync()

			play(cfg)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file")
	cmd.Flags().StringVarP(&url, "url", "u", "", "Server address, e.g. tcp://127.0.0.1:4000 or ws://host:port/path")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	cmd.Flags().BoolVar(&once, "once", false, "Exit after the first connection ends")

	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default()
	}
	return config.Load(path)
}

func play(cfg *config.Config) {
	session := technite.NewSession(technite.Idle{})
	session.OnRound = func(rs technite.RoundStats) {
		xlog.Log(xlog.Low, "round complete",
			zap.Int("created", rs.Created), zap.Int("died", rs.Died), zap.Int("windowMissed", rs.WindowMissed))
	}

	registry := network.NewRegistry()
	session.Register(registry)

	clientMetrics := metrics.NewClientMetrics(metrics.ClientMetricsConf{
		Namespace: cfg.Metrics.Namespace,
		Subsystem: cfg.Metrics.Subsystem,
	})

	client := tcp.NewClient(&tcp.ClientConf{
		ConnConf: tcp.ConnConf{
			ReceiveBufferSize: cfg.ReceiveBufferSize,
			MaxPacketSize:     cfg.MaxPacketSize,
			Metrics:           clientMetrics,
			Hooks:             session.Hooks(),
		},
		Url:               cfg.Url,
		ReconnectInterval: cfg.ReconnectInterval,
		DialTimeout:       cfg.DialTimeout,
		AutoReconnect:     cfg.AutoReconnect,
	}, registry)

	cm := newClientModule(client, clientMetrics)
	aquinas.Run(cm.stopped, newMetricsModule(cfg.Prometheus), cm)
}
