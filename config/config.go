package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// XUIConfig хранит параметры подключения к панели 3x-ui.
type XUIConfig struct {
	Host               string
	Username           string
	Password           string
	Token              string
	SubscriptionPrefix string
	InboundID          int
}

type Config struct {
	BotToken   string
	AdminIDs   map[int64]bool
	XUI        XUIConfig
	UsersFile  string
	PromoFile  string
	ReqFile    string
	NotifyDays int
}

// Load читает .env и переменные окружения в Config.
// Отсутствие .env не ошибка — используются переменные окружения.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		BotToken: os.Getenv("BOT_TOKEN"),
		AdminIDs: parseAdmins(os.Getenv("BOT_ADMINS")),
		XUI: XUIConfig{
			Host:               os.Getenv("XUI_HOST"),
			Username:           os.Getenv("XUI_USERNAME"),
			Password:           os.Getenv("XUI_PASSWORD"),
			Token:              os.Getenv("XUI_TOKEN"),
			SubscriptionPrefix: getEnv("XUI_SUBSCRIPTION_PREFIX", "sub_"),
			InboundID:          getEnvInt("INBOUND_ID", 1),
		},
		UsersFile:  getEnv("USERS_FILE", "data/users.json"),
		PromoFile:  getEnv("PROMOCODES_FILE", "data/promocodes.json"),
		ReqFile:    getEnv("REQUESTS_FILE", "data/requests.json"),
		NotifyDays: getEnvInt("NOTIFY_DAYS_BEFORE", 3),
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is not set")
	}
	if cfg.XUI.Host == "" {
		return nil, fmt.Errorf("XUI_HOST is not set")
	}
	if len(cfg.AdminIDs) == 0 {
		return nil, fmt.Errorf("BOT_ADMINS is not set")
	}
	return cfg, nil
}

// IsAdmin проверяет, входит ли пользователь в список администраторов.
func (c *Config) IsAdmin(userID int64) bool {
	return c.AdminIDs[userID]
}

func parseAdmins(raw string) map[int64]bool {
	admins := make(map[int64]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		admins[id] = true
	}
	return admins
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
