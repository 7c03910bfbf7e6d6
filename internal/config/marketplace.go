package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// MarketplaceConfig holds operator-tunable marketplace rules. Unlike Config it
// can change at runtime: the holder watches marketplace.yml and swaps the
// value atomically.
type MarketplaceConfig struct {
	Categories              []string `mapstructure:"categories"`
	MessagingAllowedStatus  []string `mapstructure:"messagingAllowedStatus"`
	SettlementBatchSize     int      `mapstructure:"settlementBatchSize"`
	MaxImagesPerListing     int      `mapstructure:"maxImagesPerListing"`
	MinListingPrice         float64  `mapstructure:"minListingPrice"`
	MaxAuctionDurationHours int      `mapstructure:"maxAuctionDurationHours"`
}

func DefaultMarketplaceConfig() MarketplaceConfig {
	return MarketplaceConfig{
		Categories: []string{
			"electronics", "home", "fashion", "sports", "motor",
			"books", "games", "collectibles", "other",
		},
		MessagingAllowedStatus:  []string{"pending_shipping", "shipped", "completed"},
		SettlementBatchSize:     100,
		MaxImagesPerListing:     8,
		MinListingPrice:         0.01,
		MaxAuctionDurationHours: 30 * 24,
	}
}

// AllowsCategory reports whether a listing category is in the configured set.
// An empty set disables the restriction.
func (c MarketplaceConfig) AllowsCategory(category string) bool {
	if len(c.Categories) == 0 {
		return true
	}
	for _, allowed := range c.Categories {
		if strings.EqualFold(allowed, category) {
			return true
		}
	}
	return false
}

type MarketplaceConfigHolder struct {
	current atomic.Value // holds MarketplaceConfig
}

func NewMarketplaceConfigHolder() (*MarketplaceConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("marketplace")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/rastro/config")
	v.AddConfigPath("/etc/rastro")
	v.AddConfigPath(".")

	v.SetEnvPrefix("RASTRO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultMarketplaceConfig()
	v.SetDefault("marketplace.categories", defaults.Categories)
	v.SetDefault("marketplace.messagingAllowedStatus", defaults.MessagingAllowedStatus)
	v.SetDefault("marketplace.settlementBatchSize", defaults.SettlementBatchSize)
	v.SetDefault("marketplace.maxImagesPerListing", defaults.MaxImagesPerListing)
	v.SetDefault("marketplace.minListingPrice", defaults.MinListingPrice)
	v.SetDefault("marketplace.maxAuctionDurationHours", defaults.MaxAuctionDurationHours)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg MarketplaceConfig
	if err := v.UnmarshalKey("marketplace", &cfg); err != nil {
		return nil, err
	}
	if err := validateMarketplaceConfig(cfg); err != nil {
		return nil, err
	}

	holder := &MarketplaceConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated MarketplaceConfig
		if err := v.UnmarshalKey("marketplace", &updated); err != nil {
			log.Printf("[marketplace-config] reload failed: %v", err)
			return
		}
		if err := validateMarketplaceConfig(updated); err != nil {
			log.Printf("[marketplace-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[marketplace-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticMarketplaceConfigHolder wraps a fixed config, for tests.
func NewStaticMarketplaceConfigHolder(cfg MarketplaceConfig) *MarketplaceConfigHolder {
	holder := &MarketplaceConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *MarketplaceConfigHolder) Get() MarketplaceConfig {
	return h.current.Load().(MarketplaceConfig)
}

func validateMarketplaceConfig(cfg MarketplaceConfig) error {
	if len(cfg.MessagingAllowedStatus) == 0 {
		return errors.New("marketplace.messagingAllowedStatus cannot be empty")
	}
	if cfg.SettlementBatchSize <= 0 {
		return errors.New("marketplace.settlementBatchSize must be positive")
	}
	return nil
}
