package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

var GConfig *Config

func Init(config []byte) {
	initFromYaml(config)
	err := GConfig.Verify()
	if err != nil {
		panic(err)
	}
}

func initFromYaml(config []byte) {
	err := yaml.Unmarshal(config, &GConfig)
	if err != nil {
		panic(err)
	}
}

type Config struct {
	LogLevel      string `yaml:"log_level"`
	LogFile       string `yaml:"log_file"`
	LogMaxSize    int    `yaml:"log_max_size"`
	LogMaxBackups int    `yaml:"log_max_backups"`
	LogMaxAge     int    `yaml:"log_max_age"`

	StorageEnabled  bool   `yaml:"storage_enabled"`
	StorageSupplier string `yaml:"storage_supplier"`
	URLExpires      string `yaml:"url_expires"`

	AliOss       `yaml:"ali_oss"`
	Local        `yaml:"local"`
	MySQL        `yaml:"mysql"`
	Geek         `yaml:"geek"`
	Tuzi         `yaml:"tuzi"`
	V3           `yaml:"v3"`
	Batch        `yaml:"batch"`
	Poll         `yaml:"poll"`
	RequestOrder `yaml:"request_order"`
}

func (c *Config) URLExpiresDuration() time.Duration {
	d, _ := time.ParseDuration(c.URLExpires)
	return d
}

func (c *Config) Verify() error {
	c.applyDefaults()
	if c.StorageEnabled {
		if c.StorageSupplier != "ali_oss" && c.StorageSupplier != "local" {
			return fmt.Errorf("storage_supplier must be ali_oss or local")
		}
	}
	if _, err := time.ParseDuration(c.URLExpires); err != nil {
		return fmt.Errorf("url_expires: %w", err)
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("batch.concurrency must be positive")
	}
	for _, field := range []struct {
		name  string
		value string
	}{
		{"batch.sync_timeout", c.Batch.SyncTimeout},
		{"poll.initial_delay", c.Poll.InitialDelay},
		{"poll.max_delay", c.Poll.MaxDelay},
		{"poll.deadline", c.Poll.Deadline},
	} {
		if _, err := time.ParseDuration(field.value); err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
	}
	for _, req := range append(c.RequestOrder.Image, c.RequestOrder.Video...) {
		switch req.Supplier {
		case "geek", "tuzi", "v3":
		default:
			return fmt.Errorf("request_order: unknown supplier %q", req.Supplier)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFile == "" {
		c.LogFile = "logs/batch-hub.log"
	}
	if c.LogMaxSize == 0 {
		c.LogMaxSize = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 10
	}
	if c.LogMaxAge == 0 {
		c.LogMaxAge = 30
	}
	if c.URLExpires == "" {
		c.URLExpires = "24h"
	}
	if c.Local.Dir == "" {
		c.Local.Dir = "data/files"
	}
	if c.Batch.Concurrency == 0 {
		c.Batch.Concurrency = 4
	}
	if c.Batch.SyncTimeout == "" {
		c.Batch.SyncTimeout = "6m"
	}
	if c.Poll.InitialDelay == "" {
		c.Poll.InitialDelay = "1s"
	}
	if c.Poll.MaxDelay == "" {
		c.Poll.MaxDelay = "16s"
	}
	if c.Poll.Deadline == "" {
		c.Poll.Deadline = "120s"
	}
}

type AliOss struct {
	AccessKeyId     string `yaml:"access_key_id"`
	AccessKeySecret string `yaml:"access_key_secret"`
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	Directory       string `yaml:"directory"`
}

type Local struct {
	Dir     string `yaml:"dir"`
	BaseURL string `yaml:"base_url"`
}

type MySQL struct {
	Enabled      bool   `yaml:"enabled"`
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	Charset      string `yaml:"charset"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

type Geek struct {
	LowPriceToken      string `yaml:"low_price_token"`
	BalanceToken       string `yaml:"balance_token"`
	HighAvailableToken string `yaml:"high_available_token"`
}

type V3 struct {
	Token string `yaml:"token"`
}

type Tuzi struct {
	DefaultChannelToken string `yaml:"default_channel_token"`
	OpenaiChannelToken  string `yaml:"openai_channel_token"`
}

type Batch struct {
	Concurrency int    `yaml:"concurrency"`
	SyncTimeout string `yaml:"sync_timeout"`
}

func (b Batch) SyncTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(b.SyncTimeout)
	return d
}

type Poll struct {
	InitialDelay string `yaml:"initial_delay"`
	MaxDelay     string `yaml:"max_delay"`
	Deadline     string `yaml:"deadline"`
}

func (p Poll) InitialDelayDuration() time.Duration {
	d, _ := time.ParseDuration(p.InitialDelay)
	return d
}

func (p Poll) MaxDelayDuration() time.Duration {
	d, _ := time.ParseDuration(p.MaxDelay)
	return d
}

func (p Poll) DeadlineDuration() time.Duration {
	d, _ := time.ParseDuration(p.Deadline)
	return d
}

type RequestOrder struct {
	Image []Request `yaml:"image"`
	Video []Request `yaml:"video"`
}

type Request struct {
	Supplier  string `yaml:"supplier"`
	TokenName string `yaml:"token_name"`
	Model     string `yaml:"model"`
}
