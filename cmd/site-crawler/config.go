package main

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Sriram-PR/site-crawler/pkg/config"
	applog "github.com/Sriram-PR/site-crawler/pkg/log"
)

// loadConfig reads the YAML config at path. An empty path yields an empty config
// that Validate fills with defaults.
func loadConfig(path string) (*config.AppConfig, error) {
	if path == "" {
		return &config.AppConfig{}, nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// setupLogger builds the process logger. An invalid level is reported and info is used.
func setupLogger(out io.Writer, level string) *logrus.Logger {
	log, err := applog.NewLogger(out, level)
	if err != nil {
		log.Warnf("%v, using 'info'", err)
	}
	return log
}

// loadAndValidateConfig loads the config, lets override adjust it, then applies defaults.
// Warnings are logged; an invalid enum value is returned as an error.
func loadAndValidateConfig(path string, override func(*config.AppConfig), log *logrus.Logger) (*config.AppConfig, error) {
	appCfg, err := loadConfig(path)
	if err != nil {
		return nil, err
	}
	if override != nil {
		override(appCfg)
	}
	warnings, err := appCfg.Validate()
	for _, w := range warnings {
		log.Warn(w)
	}
	if err != nil {
		return nil, err
	}
	return appCfg, nil
}

// globalFlags returns the persistent --config and --loglevel values
func globalFlags(cmd *cobra.Command) (configPath, logLevel string) {
	configPath, _ = cmd.Flags().GetString("config")
	logLevel, _ = cmd.Flags().GetString("loglevel")
	return configPath, logLevel
}

// logAppConfig logs the effective configuration
func logAppConfig(appCfg *config.AppConfig, log *logrus.Logger) {
	log.Infof("Config: UserAgent:'%s', MaxDepth:%d, MaxConcurrency:%d, Backend:%s, Precedence:%s",
		appCfg.UserAgent, appCfg.MaxDepth, appCfg.MaxConcurrency, appCfg.VisitedBackend, appCfg.RobotsPrecedence)
	log.Infof("Config Timeouts: PerPage:%v, GlobalCrawl:%v", appCfg.PerPageTimeout, appCfg.GlobalCrawlTimeout)
	log.Infof("Config Retries: Max:%d, InitialDelay:%v, MaxDelay:%v",
		appCfg.MaxRetries, appCfg.InitialRetryDelay, appCfg.MaxRetryDelay)
	log.Infof("Config HTTP Client: Timeout:%v, MaxIdle:%d, MaxIdlePerHost:%d, IdleTimeout:%v, TLSTimeout:%v, DialerTimeout:%v",
		appCfg.HTTPClientSettings.Timeout, appCfg.HTTPClientSettings.MaxIdleConns, appCfg.HTTPClientSettings.MaxIdleConnsPerHost,
		appCfg.HTTPClientSettings.IdleConnTimeout, appCfg.HTTPClientSettings.TLSHandshakeTimeout, appCfg.HTTPClientSettings.DialerTimeout)
}
