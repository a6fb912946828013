package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/talentscout/screener/internal/ai"
	"github.com/talentscout/screener/internal/ai/gemini"
	"github.com/talentscout/screener/internal/crypto"
	"github.com/talentscout/screener/internal/interview"
	"github.com/talentscout/screener/internal/logger"
	"github.com/talentscout/screener/internal/question"
	"github.com/talentscout/screener/internal/secrets"
	"github.com/talentscout/screener/internal/store"

	"github.com/joho/godotenv"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run an interactive screening interview in the terminal",
	Run: func(cmd *cobra.Command, _ []string) {
		chat(cmd)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("database", "b", "", "path to the candidates database. Default is candidates.db in current directory.")

	viper.BindPFlag("database.path", chatCmd.Flags().Lookup("database"))
}

// chat is the interactive command for the cli.
func chat(_ *cobra.Command) {
	ctx := context.Background()

	// A missing .env file is fine. Environment variables win anyway.
	_ = godotenv.Load()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the talentscout", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	st, err := openStore(config, logger)
	if err != nil {
		logger.Fatal("opening the candidate store", zap.Error(err))
	}
	defer st.Close()

	questions := newQuestionGenerator(ctx, config, logger, nil)

	manager := interview.NewManager(interview.Deps{
		Logger:    logger,
		Questions: questions,
		Store:     st,
	})

	sessionID, reply := manager.Open()
	logger.Debug("opened session", zap.String("session_id", sessionID))

	fmt.Println(reply.Prompt)

	prompt := promptui.Prompt{Label: "You"}
	for {
		input, err := prompt.Run()
		if err != nil {
			// Ctrl-C and friends. Treat as an exit request so a
			// partial record still gets saved.
			input = "exit"
		}

		reply, err = manager.HandleInput(ctx, sessionID, input)
		if err != nil {
			logger.Error("handling input", zap.Error(err))
		}

		fmt.Println(reply.Prompt)

		if reply.Terminal {
			return
		}
	}
}

func openStore(config *Config, logger *zap.Logger) (store.Store, error) {
	key, err := resolveEncryptionKey(config)
	if err != nil {
		return nil, fmt.Errorf("%w (set ENCRYPTION_KEY, ENCRYPTION_KEY_FILE or the encryption section in the configuration file)", err)
	}

	cipher, err := crypto.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("building a cipher: %w", err)
	}

	return store.NewSQLite(config.Database.Path, cipher, logger)
}

func resolveEncryptionKey(config *Config) (string, error) {
	if config == nil || config.Encryption == nil {
		return "", errors.New("config is required")
	}

	return secrets.Load(secrets.Source{
		Name:  "encryption key",
		Value: config.Encryption.Key,
		File:  config.Encryption.KeyFile,
	})
}

// newQuestionGenerator wires the AI provider if one is configured and
// reachable. Without a provider the generator still works from the built-in
// question bank.
func newQuestionGenerator(ctx context.Context, config *Config, logger *zap.Logger, onFallback func()) *question.Generator {
	provider, err := newAIProvider(ctx, config.AI, logger)
	if err != nil {
		logger.Warn("running without an AI provider, all questions come from the built-in bank", zap.Error(err))
		provider = nil
	}

	opts := []question.Option{
		question.WithPolicy(question.PolicyByName(config.Screening.FollowUpPolicy, config.Screening.MinFollowUpWords)),
	}

	if config.AI.Gemini.TimeoutSeconds > 0 {
		opts = append(opts, question.WithTimeout(time.Duration(config.AI.Gemini.TimeoutSeconds)*time.Second))
	}
	if config.AI.Gemini.MaxLogLength > 0 {
		opts = append(opts, question.WithMaxLogLength(config.AI.Gemini.MaxLogLength))
	}
	if onFallback != nil {
		opts = append(opts, question.WithFallbackHook(onFallback))
	}

	return question.New(provider, logger, opts...)
}

func newAIProvider(ctx context.Context, cfg *AIConfig, log *zap.Logger) (ai.Generator, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	genLogger := logger.WithCommonFields(log, "gemini", cfg.Gemini.Model).
		With(zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries))

	return gemini.NewGenerator(ctx, genLogger, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries)
}
