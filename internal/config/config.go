package config

import (
	"log"

	"github.com/gdg-garage/con-registration-api/internal/models"
	"github.com/spf13/viper"
)

type Config struct {
	Port                          string `mapstructure:"PORT"`
	DatabaseDriver                string `mapstructure:"DATABASE_DRIVER"`
	DatabasePath                  string `mapstructure:"DATABASE_PATH"`
	DatabaseURL                   string `mapstructure:"DATABASE_URL"`
	RedisAddr                     string `mapstructure:"REDIS_ADDR"`
	RedisPassword                 string `mapstructure:"REDIS_PASSWORD"`
	RedisDB                       int    `mapstructure:"REDIS_DB"`
	DiscordClientID               string `mapstructure:"DISCORD_CLIENT_ID"`
	DiscordClientSecret           string `mapstructure:"DISCORD_CLIENT_SECRET"`
	DiscordRedirectURL            string `mapstructure:"DISCORD_REDIRECT_URL"`
	DiscordGuildID                string `mapstructure:"DISCORD_GUILD_ID"`
	DiscordBotToken               string `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordNotificationsChannelID string `mapstructure:"DISCORD_NOTIFICATIONS_CHANNEL_ID"`
	DiscordAdminRole              string `mapstructure:"DISCORD_ADMIN_ROLE"`
	JWTSecret                     string `mapstructure:"JWT_SECRET"`
	FrontendURL                   string `mapstructure:"FRONTEND_URL"`
	LogLevel                      string `mapstructure:"LOG_LEVEL"`
	EnableCORS                    bool   `mapstructure:"ENABLE_CORS"`

	ShiftCustomBadges bool `mapstructure:"SHIFT_CUSTOM_BADGES"`
	PreCon            bool `mapstructure:"PRE_CON"`
	AtTheCon          bool `mapstructure:"AT_THE_CON"`
}

var envKeys = []string{
	"DATABASE_DRIVER",
	"DATABASE_PATH",
	"DATABASE_URL",
	"REDIS_ADDR",
	"REDIS_PASSWORD",
	"REDIS_DB",
	"DISCORD_CLIENT_ID",
	"DISCORD_CLIENT_SECRET",
	"DISCORD_GUILD_ID",
	"DISCORD_BOT_TOKEN",
	"DISCORD_NOTIFICATIONS_CHANNEL_ID",
	"DISCORD_ADMIN_ROLE",
	"JWT_SECRET",
	"FRONTEND_URL",
	"LOG_LEVEL",
	"ENABLE_CORS",
	"SHIFT_CUSTOM_BADGES",
	"PRE_CON",
	"AT_THE_CON",
}

func LoadConfig() *Config {
	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_PATH", "registration.db")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("DISCORD_REDIRECT_URL", "http://127.0.0.1:8080/auth/discord/callback")
	v.SetDefault("DISCORD_ADMIN_ROLE", "Registration")
	v.SetDefault("FRONTEND_URL", "http://127.0.0.1:4000/")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SHIFT_CUSTOM_BADGES", true)
	v.SetDefault("PRE_CON", true)
	v.SetDefault("AT_THE_CON", false)

	for _, k := range envKeys {
		v.BindEnv(k)
	}
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	return &config
}

// DSN is the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DatabaseDriver == "postgres" {
		return c.DatabaseURL
	}
	return c.DatabasePath
}

// Policy is the default event policy with the badge switches applied.
func (c *Config) Policy() *models.Policy {
	p := models.DefaultPolicy()
	p.ShiftCustomBadges = c.ShiftCustomBadges
	p.PreCon = c.PreCon
	p.AtTheCon = c.AtTheCon
	return p
}
