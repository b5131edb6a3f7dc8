package config

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server    Server
	Database  Database
	Gateway   Gateway
	Directory Directory
	Scheduler Scheduler
	Delivery  Delivery

	GeminiApiKey string
}

type Server struct {
	Port string
}

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// Gateway holds the outbound chat gateway endpoint and the service
// identifier this instance sends messages under.
type Gateway struct {
	URL       string
	ServiceID string
}

// Directory points to the user directory service that knows people and
// their per-group proficiency levels.
type Directory struct {
	Host  string
	Token string
}

// Scheduler carries the tunable constants of the smart question picker.
type Scheduler struct {
	Mu         float64
	Sigma      float64
	Epsilon    float64
	PeriodUnit time.Duration
}

// Delivery configures the periodic question delivery loop.
type Delivery struct {
	Every    time.Duration
	FromTime string // "HH:MM", empty means no window
	ToTime   string
	WeekDays []int // time.Weekday values, empty means every day
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	viper.SetDefault("SCHEDULER_MU", 4.0)
	viper.SetDefault("SCHEDULER_SIGMA", 20.0)
	viper.SetDefault("SCHEDULER_EPSILON", 0.001)
	viper.SetDefault("SCHEDULER_PERIOD_UNIT", "24h")
	viper.SetDefault("DELIVERY_EVERY", "24h")

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")

	config.Gateway.URL = viper.GetString("GATEWAY_URL")
	config.Gateway.ServiceID = viper.GetString("GATEWAY_SERVICE_ID")

	config.Directory.Host = viper.GetString("DIRECTORY_HOST")
	config.Directory.Token = viper.GetString("DIRECTORY_TOKEN")

	config.Scheduler.Mu = viper.GetFloat64("SCHEDULER_MU")
	config.Scheduler.Sigma = viper.GetFloat64("SCHEDULER_SIGMA")
	config.Scheduler.Epsilon = viper.GetFloat64("SCHEDULER_EPSILON")
	config.Scheduler.PeriodUnit = viper.GetDuration("SCHEDULER_PERIOD_UNIT")

	config.Delivery.Every = viper.GetDuration("DELIVERY_EVERY")
	config.Delivery.FromTime = viper.GetString("DELIVERY_FROM_TIME")
	config.Delivery.ToTime = viper.GetString("DELIVERY_TO_TIME")
	config.Delivery.WeekDays = viper.GetIntSlice("DELIVERY_WEEK_DAYS")

	config.GeminiApiKey = viper.GetString("GEMINI_API_KEY")

	log.Info().Str("port", config.Server.Port).Str("gateway", config.Gateway.URL).Msg("Config loaded")
	return &config, nil
}
