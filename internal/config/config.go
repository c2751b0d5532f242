package config

import (
	"os"
	"strconv"

	"afripay-text-bot/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-yaml"
)

type (
	// Conf contains the application settings.
	Conf struct {
		Server Server `yaml:"server"`

		Telegram Telegram `yaml:"telegram"`
		Backend  Backend  `yaml:"backend"`

		// path to the operator-editable bot texts
		TextsFile string `yaml:"texts_file"`
		// path to the logger settings
		LoggerConfig string `yaml:"logger_config"`

		RunInDebug bool `yaml:"-"`
	}

	Server struct {
		Listen string `yaml:"listen"`
	}

	Telegram struct {
		Token string `yaml:"token"`
	}

	Backend struct {
		// base URL of the remote banking API, e.g. https://pay.example.com
		Addr string `yaml:"addr"`
		// static bot credential used when no user token is present
		BotKey string `yaml:"bot_key"`
	}
)

// GetConfig loads settings from an optional YAML file and applies
// environment overrides. The Telegram token is mandatory.
//
// Recognized variables: TELEGRAM_BOT_TOKEN, BACKEND_BASE_URL,
// BOT_API_KEY, PORT.
func GetConfig(configFile string, cnf *Conf) {
	input, err := os.Open(configFile)
	if err == nil {
		defer input.Close()
		if err = yaml.NewDecoder(input).Decode(cnf); err != nil {
			logger.Crit("Bad config file:", err)
		}
	} else {
		logger.Info("Config file not found, relying on environment")
	}

	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cnf.Telegram.Token = v
	}
	if v := os.Getenv("BACKEND_BASE_URL"); v != "" {
		cnf.Backend.Addr = v
	}
	if v := os.Getenv("BOT_API_KEY"); v != "" {
		cnf.Backend.BotKey = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if _, err := strconv.Atoi(v); err != nil {
			logger.Crit("Invalid PORT value:", v)
		}
		cnf.Server.Listen = ":" + v
	}

	if cnf.Server.Listen == "" {
		cnf.Server.Listen = ":3000"
	}

	if cnf.Telegram.Token == "" {
		logger.Crit("Missing TELEGRAM_BOT_TOKEN in environment")
	}
}

func Inject(key string, cnf *Conf) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(key, cnf)
	}
}
