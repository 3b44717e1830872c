package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// BusinessConfig carries display settings for rendered pages and printable invoices.
type BusinessConfig struct {
	CompanyName        string `mapstructure:"companyName"`
	CompanyAddress     string `mapstructure:"companyAddress"`
	CompanyEmail       string `mapstructure:"companyEmail"`
	CompanyPhone       string `mapstructure:"companyPhone"`
	CurrencySymbol     string `mapstructure:"currencySymbol"`
	DateLayout         string `mapstructure:"dateLayout"`
	PaymentTermsDays   int    `mapstructure:"paymentTermsDays"`
	ServiceUnitLabel   string `mapstructure:"serviceUnitLabel"`
	InvoiceFooterNotes string `mapstructure:"invoiceFooterNotes"`
	// InvoiceNumberTemplate accepts {YYYY} {YY} {MM} {DD} {ID} {IDn} and {CUST}.
	InvoiceNumberTemplate string `mapstructure:"invoiceNumberTemplate"`
}

func DefaultBusinessConfig() BusinessConfig {
	return BusinessConfig{
		CompanyName:           "Window Wash Co.",
		CurrencySymbol:        "$",
		DateLayout:            "2006-01-02",
		PaymentTermsDays:      30,
		ServiceUnitLabel:      "windows",
		InvoiceNumberTemplate: "INV-{YYYY}-{ID6}",
	}
}

type BusinessConfigHolder struct {
	current atomic.Value // holds BusinessConfig
}

// NewStaticBusinessConfigHolder returns a holder that never reloads.
func NewStaticBusinessConfigHolder(cfg BusinessConfig) *BusinessConfigHolder {
	holder := &BusinessConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewBusinessConfigHolder(appCfg Config, log *zap.Logger) (*BusinessConfigHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("business.config")

	v := viper.New()
	if appCfg.BusinessConfigPath != "" {
		v.SetConfigFile(appCfg.BusinessConfigPath)
	} else {
		v.SetConfigName("business")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/washcrm")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("WASHCRM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		// an explicit BUSINESS_CONFIG_PATH must exist
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileLoaded = false
	}

	// keys missing from the file keep their defaults
	cfg := DefaultBusinessConfig()
	if err := v.UnmarshalKey("business", &cfg); err != nil {
		return nil, err
	}
	if err := validateBusinessConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticBusinessConfigHolder(cfg)

	if fileLoaded {
		v.OnConfigChange(func(e fsnotify.Event) {
			updated := DefaultBusinessConfig()
			if err := v.UnmarshalKey("business", &updated); err != nil {
				log.Warn("reload failed", zap.Error(err))
				return
			}
			if err := validateBusinessConfig(updated); err != nil {
				log.Warn("invalid config ignored", zap.Error(err))
				return
			}
			holder.current.Store(updated)
			log.Info("reloaded", zap.String("file", e.Name))
		})
		v.WatchConfig()
	}

	return holder, nil
}

func (h *BusinessConfigHolder) Get() BusinessConfig {
	if h == nil {
		return DefaultBusinessConfig()
	}
	return h.current.Load().(BusinessConfig)
}

func validateBusinessConfig(cfg BusinessConfig) error {
	if strings.TrimSpace(cfg.CompanyName) == "" {
		return errors.New("business.companyName cannot be empty")
	}
	if strings.TrimSpace(cfg.DateLayout) == "" {
		return errors.New("business.dateLayout cannot be empty")
	}
	if cfg.PaymentTermsDays < 0 {
		return errors.New("business.paymentTermsDays cannot be negative")
	}
	return nil
}
