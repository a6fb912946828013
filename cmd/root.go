package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "talentscout"
)

type Config struct {
	Database   *DatabaseConfig   `mapstructure:"database"`
	Encryption *EncryptionConfig `mapstructure:"encryption"`
	AI         *AIConfig         `mapstructure:"ai"`
	Screening  *ScreeningConfig  `mapstructure:"screening"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type EncryptionConfig struct {
	KeyFile string `mapstructure:"key-file"`
	Key     string `mapstructure:"key"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile     string `mapstructure:"api-key-file"`
	Model          string `mapstructure:"model"`
	MaxRetries     int    `mapstructure:"max-retries"`
	TimeoutSeconds int    `mapstructure:"timeout-seconds"`
	MaxLogLength   int    `mapstructure:"max-log-length"`
}

type ScreeningConfig struct {
	FollowUpPolicy   string `mapstructure:"follow-up-policy"`
	MinFollowUpWords int    `mapstructure:"min-follow-up-words"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "talentscout is a screening assistant that interviews job candidates and stores the results encrypted",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("encryption.key", "ENCRYPTION_KEY"); err != nil {
		log.Fatalf("binding ENCRYPTION_KEY environment variable: %v", err)
	}
	if err := viper.BindEnv("encryption.key-file", "ENCRYPTION_KEY_FILE"); err != nil {
		log.Fatalf("binding ENCRYPTION_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is talentscout.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)

		// We can't proceed if an explicit config file parsed with error.
		if err := viper.ReadInConfig(); err != nil {
			log.Fatal(err)
		}
		return
	}

	viper.AddConfigPath(".")
	viper.SetConfigName(app + ".yaml")
	viper.SetConfigType("yaml")

	// A config file is optional: defaults plus environment variables are
	// enough to run.
	_ = viper.ReadInConfig()
}

func getConfig() (*Config, error) {
	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, err
	}

	if config.Database == nil {
		config.Database = &DatabaseConfig{}
	}
	if config.Database.Path == "" {
		config.Database.Path = "candidates.db"
	}
	if config.Encryption == nil {
		config.Encryption = &EncryptionConfig{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}
	if config.Screening == nil {
		config.Screening = &ScreeningConfig{}
	}

	return config, nil
}
