package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type rootCmdConfig struct {
	verbose    bool
	configFile string
	v          *viper.Viper
	log        *zap.SugaredLogger
}

func main() {
	if err := cliParser().Execute(); err != nil {
		os.Exit(1)
	}
}

func cliParser() *cobra.Command {
	config := &rootCmdConfig{}
	rootCmd := &cobra.Command{
		Use:   "canopy",
		Short: "canopy finds the feature subset that grows the best decision tree",
		Long: `A tool to search every combination of features of a dataset for the one
whose entropy-greedy decision tree has the lowest total entropy, and to
inspect, store and test the trees it grows`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.setup(cmd)
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&(config.verbose), "verbose", "v", false, "log progress to STDERR")
	rootCmd.PersistentFlags().StringVar(&(config.configFile), "config", "", "path to a YAML file with values for any flag (flags can also be set with CANOPY_<FLAG> environment variables)")
	rootCmd.AddCommand(versionCmd(), searchCmd(config), treeCmd(config), testCmd(config), predictCmd(config), datasetCmd(config))
	return rootCmd
}

// setup binds the flags of the command being run to the configuration file
// and environment, and sets up the logger.
func (rc *rootCmdConfig) setup(cmd *cobra.Command) error {
	v := viper.New()
	v.SetEnvPrefix("CANOPY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %v", err)
	}
	if rc.configFile != "" {
		v.SetConfigFile(rc.configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading configuration from %s: %v", rc.configFile, err)
		}
	}
	rc.v = v
	log, err := newLogger(v.GetBool("verbose"))
	if err != nil {
		return fmt.Errorf("setting up logger: %v", err)
	}
	rc.log = log
	return nil
}

func (rc *rootCmdConfig) Logf(format string, a ...interface{}) {
	rc.log.Debugf(format, a...)
}

func exit(code int, err interface{}) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(code)
}
