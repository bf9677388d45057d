package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/lcalzada-xor/cvelens/internal/config"
)

// yearsValue is a pflag.Value accepting lists and ranges, e.g. "2019-2021,2024".
type yearsValue struct {
	years *[]int
}

var _ pflag.Value = (*yearsValue)(nil)

func (v *yearsValue) String() string {
	if v.years == nil {
		return ""
	}
	parts := make([]string, len(*v.years))
	for i, y := range *v.years {
		parts[i] = strconv.Itoa(y)
	}
	return strings.Join(parts, ",")
}

func (v *yearsValue) Set(s string) error {
	years, err := config.ParseYears(s)
	if err != nil {
		return err
	}
	*v.years = years
	return nil
}

func (v *yearsValue) Type() string { return "years" }

type harvestSummary struct {
	Years    []int          `json:"years,omitempty"`
	Fetched  int            `json:"fetched"`
	Stored   int            `json:"stored"`
	Labelled int            `json:"labelled"`
	Seeded   int            `json:"seeded,omitempty"`
	Failed   map[int]string `json:"failed,omitempty"`
}

func newHarvestCommand(opts *rootOptions) *cobra.Command {
	var (
		csvPath string
		seeds   []string
		noFeed  bool
	)
	cfg := opts.cfg

	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Download CVE feeds, clean and label them, and store the corpus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := opts.openApp()
			if err != nil {
				return err
			}
			defer application.Close()
			ctx := cmd.Context()

			var out harvestSummary
			if len(seeds) > 0 {
				n, err := application.Seed(ctx, seeds)
				if err != nil {
					return err
				}
				out.Seeded = n
			}

			if !noFeed {
				summary, err := application.Harvest(ctx, cfg.Years, csvPath)
				if err != nil {
					return err
				}
				out.Years = summary.Years
				out.Fetched = summary.Fetched
				out.Stored = summary.Stored
				out.Labelled = summary.Labelled
				for year, ferr := range summary.Failed {
					if out.Failed == nil {
						out.Failed = make(map[int]string)
					}
					out.Failed[year] = ferr.Error()
				}
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	f := cmd.Flags()
	f.Var(&yearsValue{years: &cfg.Years}, "years", "feed years to download, e.g. 2019-2021,2024")
	f.StringVar(&cfg.FeedURL, "feed-url", cfg.FeedURL, "base URL of the yearly JSON feeds")
	f.StringVar(&cfg.APIKey, "api-key", cfg.APIKey, "NVD API key sent as the apiKey header")
	f.StringVar(&csvPath, "csv", "", "also write the harvested dataset to this CSV file")
	f.StringSliceVar(&seeds, "seed", nil, "import local JSON or CSV datasets before harvesting")
	f.BoolVar(&noFeed, "no-feed", false, "skip the feed download (seed files only)")
	return cmd
}
