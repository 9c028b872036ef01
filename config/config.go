package config

import (
	"time"

	"github.com/czx-lab/aquinas/prometheus"
	"github.com/czx-lab/aquinas/xlog"
	"github.com/zeromicro/go-zero/core/conf"
)

type (
	Config struct {
		// host:port, tcp://host:port or ws://host:port/path
		Url               string        `json:",default=tcp://127.0.0.1:4000"`
		ReconnectInterval time.Duration `json:",default=2s"`
		DialTimeout       time.Duration `json:",default=10s"`
		ReceiveBufferSize int           `json:",default=65536"`
		MaxPacketSize     uint32        `json:",default=64000000"`
		AutoReconnect     bool          `json:",default=true"`
		Metrics           MetricsConf
		Log               xlog.XLogConf
		Prometheus        prometheus.Config
	}

	MetricsConf struct {
		Namespace string `json:",default=aquinas"`
		Subsystem string `json:",default=client"`
	}
)

// Load reads path, which may be yaml, json or toml, and fills unset fields with defaults.
// Environment variables are expanded in the file content.
func Load(path string) (*Config, error) {
	var c Config
	if err := conf.Load(path, &c, conf.UseEnv()); err != nil {
		return nil, err
	}
	return &c, nil
}

// Default returns a configuration made of defaults only.
func Default() (*Config, error) {
	var c Config
	if err := conf.FillDefault(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
