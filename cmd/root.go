package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"decayscope/internal/utils"
	"decayscope/pkg/gsc"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `     _
  __| | ___  ___ __ _ _   _ ___  ___ ___  _ __   ___
 / _` + "`" + ` |/ _ \/ __/ _` + "`" + ` | | | / __|/ __/ _ \| '_ \ / _ \
| (_| |  __/ (_| (_| | |_| \__ \ (_| (_) | |_) |  __/
 \__,_|\___|\___\__,_|\__, |___/\___\___/| .__/ \___|
                      |___/              |_|

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "decayscope",
	Short: "Find decaying content in your Google Search Console properties.",
	Long: LOGO + `decayscope compares a recent Search Console window against the same
calendar window one year earlier and ranks the pages bleeding clicks.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.decayscope.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy (Useful for debugging. Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".decayscope")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.decayscope.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Set default empty values for all keys
	viper.SetDefault("google.token", "")
	viper.SetDefault("google.token_file", "")
	viper.SetDefault("audit.report_lag_days", 3)
	viper.SetDefault("audit.window_length_days", 90)
	viper.SetDefault("audit.yoy_offset_days", 365)
	viper.SetDefault("audit.yoy_extra_lag_days", 0)
	viper.SetDefault("audit.min_click_loss", 10)
	viper.SetDefault("audit.min_pct_decline", 20.0)
	viper.SetDefault("audit.click_weight", 0.7)
	viper.SetDefault("audit.position_weight", 0.3)
	viper.SetDefault("server.username", "")
	viper.SetDefault("server.password", "")

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}

// accessToken resolves the Search Console token from config: either a
// literal token or a token.json written by an external OAuth flow.
func accessToken() (string, error) {
	if tok := viper.GetString("google.token"); tok != "" {
		return tok, nil
	}
	if path := viper.GetString("google.token_file"); path != "" {
		return gsc.TokenFromFile(path)
	}
	return "", fmt.Errorf("no credentials: set google.token or google.token_file in ~/.decayscope.yaml")
}
