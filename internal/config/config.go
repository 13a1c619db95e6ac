package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Analysis AnalysisConfig
	App      AppConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

// AnalysisConfig holds the knobs of the resolution and forecasting engine.
type AnalysisConfig struct {
	SimilarityThreshold float64
	ForecastDays        int
	RecommendDaysAhead  int
	DefaultLeadTimeDays int
	UseItemLeadTimes    bool
}

type AppConfig struct {
	MappingFile string
	UploadDir   string
	ExportDir   string
	LogLevel    string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 30)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 30)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("SIMILARITY_THRESHOLD", 85.0)
		viper.SetDefault("FORECAST_DAYS", 365)
		viper.SetDefault("RECOMMEND_DAYS_AHEAD", 90)
		viper.SetDefault("DEFAULT_LEAD_TIME_DAYS", 30)
		viper.SetDefault("USE_ITEM_LEAD_TIMES", true)
		viper.SetDefault("APP_MAPPING_FILE", "./data/item_mapping.json")
		viper.SetDefault("APP_UPLOAD_DIR", "./data/uploads")
		viper.SetDefault("APP_EXPORT_DIR", "./data/output")
		viper.SetDefault("APP_LOG_LEVEL", "info")

		// Read from environment variables
		viper.AutomaticEnv()

		// Ensure upload and export directories exist
		ensureDir(viper.GetString("APP_UPLOAD_DIR"))
		ensureDir(viper.GetString("APP_EXPORT_DIR"))

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Analysis: AnalysisConfig{
				SimilarityThreshold: viper.GetFloat64("SIMILARITY_THRESHOLD"),
				ForecastDays:        viper.GetInt("FORECAST_DAYS"),
				RecommendDaysAhead:  viper.GetInt("RECOMMEND_DAYS_AHEAD"),
				DefaultLeadTimeDays: viper.GetInt("DEFAULT_LEAD_TIME_DAYS"),
				UseItemLeadTimes:    viper.GetBool("USE_ITEM_LEAD_TIMES"),
			},
			App: AppConfig{
				MappingFile: viper.GetString("APP_MAPPING_FILE"),
				UploadDir:   viper.GetString("APP_UPLOAD_DIR"),
				ExportDir:   viper.GetString("APP_EXPORT_DIR"),
				LogLevel:    viper.GetString("APP_LOG_LEVEL"),
			},
		}
	})

	return instance
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
