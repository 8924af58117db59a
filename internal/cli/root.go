package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/credence/internal/model"
)

// Version is set at build time
var Version = "v0.1.0"

var envReplacer = strings.NewReplacer(".", "_")

var (
	cfgFile  string
	verbose  bool
	seedFile string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "credence",
	Short: "Credence - reliability scoring for social-media posts",
	Long: `Credence scores the reliability of scraped social-media posts.

Each post gets a content score from model signals (content category,
fake-news probability), an external score from the best matching
fact-check, a trust-weighted global score, a final category and a
confidence level. Every step is stored and explainable.

The final category can be recomputed from stored scores with
'credence reconcile' whenever the decision thresholds change.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("credence %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.credence/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVar(&seedFile, "seed", "", "JSONL file imported before the command runs (useful with the memory store)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads .env, the config file and CREDENCE_* environment variables
func initConfig() {
	// .env is optional
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".credence"))
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("CREDENCE")
	viper.SetEnvKeyReplacer(envReplacer)
	viper.AutomaticEnv()

	if err := registerDefaults(model.DefaultConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// registerDefaults makes every config key known to viper so env overrides apply on Unmarshal
func registerDefaults(cfg model.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("unmarshal defaults: %w", err)
	}
	setDefaults("", tree)
	return nil
}

func setDefaults(prefix string, tree map[string]any) {
	for key, value := range tree {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if sub, ok := value.(map[string]any); ok && len(sub) > 0 {
			setDefaults(full, sub)
			continue
		}
		viper.SetDefault(full, value)
	}
}

// loadConfig builds the effective configuration: defaults, config file, env, flags
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	applyEnvKeys(&cfg)

	if viper.GetBool("verbose") {
		cfg.Log.Level = "debug"
	}
	return &cfg, nil
}

// applyEnvKeys fills API keys from the conventional provider variables when not configured
func applyEnvKeys(cfg *model.Config) {
	fill := func(dst *string, names ...string) {
		if *dst != "" {
			return
		}
		for _, name := range names {
			if v := os.Getenv(name); v != "" {
				*dst = v
				return
			}
		}
	}

	switch strings.ToLower(cfg.LLM.Provider) {
	case "openai":
		fill(&cfg.LLM.APIKey, "OPENAI_API_KEY")
	case "anthropic", "claude":
		fill(&cfg.LLM.APIKey, "ANTHROPIC_API_KEY")
	case "ollama":
		fill(&cfg.LLM.BaseURL, "OLLAMA_BASE_URL")
	}
	fill(&cfg.FactCheck.APIKey, "FACTCHECK_API_KEY", "GOOGLE_FACTCHECK_API_KEY")
	fill(&cfg.Database.DSN, "DATABASE_URL")
}
