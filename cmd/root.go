package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/govwallet/sidecar/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "wallet-sidecar",
	Short: "Keeps a principal's staking, balance and swap data in sync and serves it over HTTP",
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	initConfig(rootCmd)

	rootCmd.PersistentFlags().Bool(config.Debug, false, `"true" or "false"`)
	rootCmd.PersistentFlags().StringP(config.ChainFlag, "c", "mainnet", "The network to use (mainnet, local)")
	rootCmd.PersistentFlags().String(config.Principal, "", "The principal whose data is loaded")

	rootCmd.PersistentFlags().String(config.AgentHost, "", `Boundary node url (default depends on the chain)`)
	rootCmd.PersistentFlags().Duration(config.AgentTimeout, 0, `Timeout of a single canister call (default 30s)`)

	rootCmd.PersistentFlags().String(config.ProjectsFile, "", `YAML file listing additional projects`)

	rootCmd.PersistentFlags().String(config.CoingeckoApiKey, "", `CoinGecko API key`)
	rootCmd.PersistentFlags().String(config.CoingeckoBaseUrl, "", `CoinGecko API url`)
	rootCmd.PersistentFlags().String(config.CoingeckoVsCurrency, "usd", `Fiat currency of exchange rates`)

	rootCmd.PersistentFlags().Bool(config.DatabaseEnabled, false, `Persist estimates and export jobs in PostgreSQL`)
	rootCmd.PersistentFlags().String(config.DatabaseHost, "localhost", `PostgreSQL host`)
	rootCmd.PersistentFlags().Int(config.DatabasePort, 5432, `PostgreSQL port`)
	rootCmd.PersistentFlags().String(config.DatabaseUser, "sidecar", `PostgreSQL username`)
	rootCmd.PersistentFlags().String(config.DatabasePassword, "", `PostgreSQL password`)
	rootCmd.PersistentFlags().String(config.DatabaseDbName, "wallet_sidecar", `PostgreSQL database name`)
	rootCmd.PersistentFlags().String(config.DatabaseSchemaName, "", `PostgreSQL schema name (default "public")`)
	rootCmd.PersistentFlags().String(config.DatabaseSSLMode, "disable", `PostgreSQL ssl mode (disable, require, verify-ca, verify-full)`)
	rootCmd.PersistentFlags().String(config.DatabaseSSLCert, "", `PostgreSQL client certificate`)
	rootCmd.PersistentFlags().String(config.DatabaseSSLKey, "", `PostgreSQL client key`)
	rootCmd.PersistentFlags().String(config.DatabaseSSLRootCert, "", `PostgreSQL root certificate`)

	rootCmd.PersistentFlags().Int(config.RpcHttpPort, 7101, `http rpc port`)

	rootCmd.PersistentFlags().Bool(config.DataDogStatsdEnabled, false, `e.g. "true" or "false"`)
	rootCmd.PersistentFlags().String(config.DataDogStatsdUrl, "", `e.g. "localhost:8125"`)
	rootCmd.PersistentFlags().Float64(config.DataDogStatsdSampleRate, 1.0, `Sample rate of statsd metrics`)
	rootCmd.PersistentFlags().Bool(config.DataDogEnableTracing, false, `Send traces to the DataDog agent`)

	rootCmd.PersistentFlags().Bool(config.PrometheusEnabled, false, `e.g. "true" or "false"`)
	rootCmd.PersistentFlags().Int(config.PrometheusPort, 2112, `The port to run the prometheus server on`)

	rootCmd.PersistentFlags().String(config.SyncRefreshSchedule, "@every 5m", `Cron schedule of the full refresh`)
	rootCmd.PersistentFlags().Duration(config.SyncSwapPollInterval, 0, `Interval between swap status polls (default 10s)`)
	rootCmd.PersistentFlags().String(config.SyncQueryStrategy, "query_and_update", `query, update or query_and_update`)
	rootCmd.PersistentFlags().Duration(config.SyncRetryInitialDelay, 0, `First retry delay while polling (default 500ms)`)
	rootCmd.PersistentFlags().Duration(config.SyncRetryMaxDelay, 0, `Largest retry delay while polling (default 30s)`)
	rootCmd.PersistentFlags().Int(config.SyncRetryMaxAttempts, 0, `Attempts before polling gives up (default 10)`)

	rootCmd.PersistentFlags().String(config.ExportDirectory, "./exports", `Directory export files are written to`)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(rewardsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(runVersionCmd)

	rewardsCmd.PersistentFlags().String(config.SnapshotFile, "", `YAML snapshot to compute the estimate from instead of loading it`)
	rewardsCmd.PersistentFlags().Bool("persist", false, `Store the estimate in the history store`)
	rewardsCmd.PersistentFlags().String("output", "json", `Output format (json, text)`)

	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		key := config.KebabToSnakeCase(f.Name)
		viper.BindPFlag(key, f) //nolint:errcheck
		viper.BindEnv(key)      //nolint:errcheck
	})
}

func initConfig(cmd *cobra.Command) {
	viper.SetEnvPrefix(config.ENV_PREFIX)

	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.AutomaticEnv()
}

// bindCommandFlags binds the flags local to a subcommand.
func bindCommandFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err := viper.BindPFlag(config.KebabToSnakeCase(f.Name), f); err != nil {
			fmt.Printf("Failed to bind flag '%s' - %+v\n", f.Name, err)
		}
		if err := viper.BindEnv(f.Name); err != nil {
			fmt.Printf("Failed to bind env '%s' - %+v\n", f.Name, err)
		}
	})
}
