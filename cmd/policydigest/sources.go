package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func sourcesCmd() *cobra.Command {
	var since string

	cmd := &cobra.Command{
		Use:   "sources [adapter]",
		Short: "List adapters, or run one by name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cutoff, err := parseSince(since)
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()
			application, _, err := setup(ctx)
			if err != nil {
				return err
			}
			defer application.Close()

			if len(args) == 0 {
				for _, name := range application.Sources() {
					fmt.Println(name)
				}
				return nil
			}

			res, err := application.Scan(ctx, args[0], cutoff)
			if err != nil {
				return err
			}
			for _, item := range res.Items {
				fmt.Printf("%s  %s\n    %s\n", item.Date, item.Title, item.URL)
			}
			fmt.Printf("%d items from %s, %d skipped\n", len(res.Items), res.BaseURL, res.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVar(&since, "since", "", "keep items dated on or after YYYY-MM-DD")
	return cmd
}
