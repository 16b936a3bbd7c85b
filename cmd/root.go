package cmd

import (
	"errors"
	"log"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/form-responder/internal/ai/gemini"
	"github.com/spigell/form-responder/internal/browser"
	"github.com/spigell/form-responder/internal/elements"
	"github.com/spigell/form-responder/internal/logger"
	"github.com/spigell/form-responder/internal/resume"
)

const (
	app = "form-responder"
)

type Config struct {
	Resume   string          `mapstructure:"resume"`
	Browser  browser.Config  `mapstructure:"browser"`
	Elements elements.Config `mapstructure:"elements"`
	AI       *AIConfig       `mapstructure:"ai"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`

	gemini.Options `mapstructure:",squash"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "form-responder fills in job application forms in a browser using a JSON resume",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("resume", "FORM_RESPONDER_RESUME"); err != nil {
		log.Fatalf("binding FORM_RESPONDER_RESUME environment variable: %v", err)
	}
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	viper.SetDefault("browser.engine", browser.EngineChromium)
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.gemini.max-steps", 30)
	viper.SetDefault("ai.gemini.max-log-length", 200)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is form-responder.yaml in current directory)")
	rootCmd.PersistentFlags().StringP("resume", "r", "", "path to the resume JSON file")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("resume", rootCmd.PersistentFlags().Lookup("resume"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	// Every setting has a flag, env or default, so the file is optional unless
	// it was asked for explicitly.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}

// setup builds the logger and the config every command starts from.
func setup(outputs ...string) (*zap.Logger, *Config) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"), outputs...)
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config == nil {
		logger.Fatal("config is required")
	}

	return logger, config
}

func loadResume(config *Config, logger *zap.Logger) *resume.Resume {
	path := strings.TrimSpace(config.Resume)
	if path == "" {
		logger.Fatal("resume file is not configured",
			zap.String("hint", "pass --resume, set FORM_RESPONDER_RESUME or the 'resume' key in the configuration file"),
		)
	}

	r, err := resume.Load(path)
	if err != nil {
		logger.Fatal("loading resume", zap.String("path", path), zap.Error(err))
	}

	logger.Debug("resume loaded",
		zap.String("path", path),
		zap.Int("experience", len(r.Experience)),
		zap.Int("education", len(r.Education)),
	)

	return r
}
