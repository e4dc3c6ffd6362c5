package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/govwallet/sidecar/internal/config"
	"github.com/govwallet/sidecar/pkg/stakingRewards"
	"github.com/govwallet/sidecar/pkg/types/numbers"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type rewardsOutput struct {
	Loading bool                              `json:"loading"`
	Error   string                            `json:"error,omitempty"`
	Data    *stakingRewards.StakingRewardData `json:"data,omitempty"`
}

var rewardsCmd = &cobra.Command{
	Use:   "rewards",
	Short: "Compute the staking rewards estimate once and print it as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		bindCommandFlags(cmd)

		var res *stakingRewards.Result
		if path := viper.GetString(config.KebabToSnakeCase(config.SnapshotFile)); path != "" {
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open snapshot: %w", err)
			}
			defer f.Close()
			snapshot, err := stakingRewards.ReadSnapshot(f)
			if err != nil {
				return err
			}
			res = stakingRewards.Calculate(snapshot)
		} else {
			a, err := newApp("rewards")
			if err != nil {
				return err
			}
			defer a.close()
			a.refresh(context.Background(), viper.GetBool("persist"))
			res = a.stakingRewards.Current()
		}

		if viper.GetString("output") == "text" {
			printRewards(cmd.OutOrStdout(), res)
		} else {
			out := &rewardsOutput{Loading: res.Loading, Data: res.Data}
			if res.Err != nil {
				out.Error = res.Err.Error()
			}
			encoded, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
		}
		return res.Err
	},
}

func printRewards(w io.Writer, res *stakingRewards.Result) {
	switch {
	case res.Err != nil:
		fmt.Fprintf(w, "error: %s\n", res.Err)
		return
	case res.Loading:
		fmt.Fprintln(w, "loading")
		return
	}
	d := res.Data
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Staking power\t%s\n", numbers.FormatPercentage(d.StakingPower, 2))
	fmt.Fprintf(tw, "Staked value\t%s\n", numbers.FormatUSD(d.StakingPowerUSD))
	fmt.Fprintf(tw, "Rewards per week\t%s\n", numbers.FormatUSD(d.RewardEstimateWeekUSD))
	if len(d.UnpricedProjects) > 0 {
		fmt.Fprintf(tw, "Unpriced\t%s\n", strings.Join(d.UnpricedProjects, ", "))
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "PROJECT\tAPY\tMAX APY")
	ids := make([]string, 0, len(d.Apy))
	for id := range d.Apy {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", id, numbers.FormatPercentage(d.Apy[id].Current, 2), numbers.FormatPercentage(d.Apy[id].Max, 2))
	}
	_ = tw.Flush()
}
