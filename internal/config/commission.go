package config

import (
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// CommissionConfig carries the operational tunables of the commission
// engine's reporting surface. Calculation semantics (rates, rounding) are
// fixed by agreements and the engine itself, not by configuration.
type CommissionConfig struct {
	// ExportRecordLimit caps a single monthly export. Zero means unlimited.
	ExportRecordLimit int `mapstructure:"exportRecordLimit"`
	// CalculateRatePerSecond / CalculateBurst feed the optional Redis
	// token bucket on the calculate endpoint.
	CalculateRatePerSecond float64 `mapstructure:"calculateRatePerSecond"`
	CalculateBurst         int     `mapstructure:"calculateBurst"`
}

func DefaultCommissionConfig() CommissionConfig {
	return CommissionConfig{
		ExportRecordLimit:      0,
		CalculateRatePerSecond: 10,
		CalculateBurst:         20,
	}
}

type CommissionConfigHolder struct {
	current atomic.Value // holds CommissionConfig
}

// NewCommissionConfigHolder loads commission.yml (optional) and watches it
// for changes so reporting tunables can be adjusted without a restart.
func NewCommissionConfigHolder() (*CommissionConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("commission")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/roomledger/config")
	v.AddConfigPath("/etc/roomledger")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ROOMLEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	holder := &CommissionConfigHolder{}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		holder.current.Store(DefaultCommissionConfig())
		return holder, nil
	}

	cfg, err := unmarshalCommission(v)
	if err != nil {
		return nil, err
	}
	holder.current.Store(cfg)

	v.OnConfigChange(func(fsnotify.Event) {
		next, err := unmarshalCommission(v)
		if err != nil {
			log.Printf("ignoring invalid commission config reload: %v", err)
			return
		}
		holder.current.Store(next)
	})
	v.WatchConfig()

	return holder, nil
}

func (h *CommissionConfigHolder) Current() CommissionConfig {
	if v, ok := h.current.Load().(CommissionConfig); ok {
		return v
	}
	return DefaultCommissionConfig()
}

func unmarshalCommission(v *viper.Viper) (CommissionConfig, error) {
	cfg := DefaultCommissionConfig()
	if err := v.UnmarshalKey("commission", &cfg); err != nil {
		return CommissionConfig{}, err
	}
	return cfg, nil
}
