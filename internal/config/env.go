package config

import (
	"os"
	"strconv"
	"strings"
)

// applyEnvOverrides lets operators keep credentials out of the YAML file.
// Exchange credentials use the exchange's own variable names (BINANCE_API_KEY, ...);
// everything else is HEDGEBOT_*.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Exchange.Name, "HEDGEBOT_EXCHANGE")

	prefix := strings.ToUpper(cfg.Exchange.Name)
	setStr(&cfg.Exchange.APIKey, prefix+"_API_KEY")
	setStr(&cfg.Exchange.APISecret, prefix+"_API_SECRET")
	setStr(&cfg.Exchange.RESTEndpoint, "HEDGEBOT_REST_ENDPOINT")
	setStr(&cfg.Exchange.WSEndpoint, "HEDGEBOT_WS_ENDPOINT")
	setBool(&cfg.Exchange.Testnet, "HEDGEBOT_TESTNET")

	setInt(&cfg.Strategy.Leverage, "HEDGEBOT_LEVERAGE")
	setFloat64(&cfg.Strategy.TakeProfitPct, "HEDGEBOT_TAKE_PROFIT_PCT")
	setFloat64(&cfg.Strategy.TriggerPct, "HEDGEBOT_TRIGGER_PCT")
	setFloat64(&cfg.Strategy.StopPct, "HEDGEBOT_STOP_PCT")
	setInt(&cfg.Strategy.PollIntervalMs, "HEDGEBOT_POLL_INTERVAL_MS")
	setBool(&cfg.Strategy.UnwindOnFailure, "HEDGEBOT_UNWIND_ON_FAILURE")

	setStr(&cfg.Journal.Path, "HEDGEBOT_JOURNAL_PATH")
	setStr(&cfg.Notify.TelegramToken, "HEDGEBOT_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "HEDGEBOT_TELEGRAM_CHAT_ID")
	setStr(&cfg.Logging.Level, "HEDGEBOT_LOG_LEVEL")
	setStr(&cfg.Logging.File, "HEDGEBOT_LOG_FILE")
	setInt(&cfg.Server.Port, "HEDGEBOT_SERVER_PORT")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
