package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"PolicyDigest/internal/domain"
	"PolicyDigest/internal/ports"
)

func fetchCmd() *cobra.Command {
	var (
		since  string
		useAI  bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "fetch [gmail|news|house|senate]",
		Short: "Run one bundle and print what it found",
		Long: `Run every adapter of one wizard stage, exactly as the Load button does.

Examples:
  policydigest fetch news --since 2024-01-05
  policydigest fetch senate --ai --json`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"gmail", "news", "house", "senate"},
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

			batch, err := application.Fetch(ctx, args[0], cutoff, useAI)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(batch)
			}
			printBatch(batch)
			return nil
		},
	}

	cmd.Flags().StringVar(&since, "since", "", "keep items dated on or after YYYY-MM-DD")
	cmd.Flags().BoolVar(&useAI, "ai", false, "ask the model for relevance suggestions")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")

	return cmd
}

func printBatch(batch ports.Batch) {
	byGroup := map[string][]domain.Article{}
	for _, a := range batch.Articles {
		byGroup[a.GroupKey()] = append(byGroup[a.GroupKey()], a)
	}
	for _, g := range batch.Groups {
		fmt.Printf("%s (%d)\n", g.Title, len(byGroup[g.Key]))
		for _, a := range byGroup[g.Key] {
			var tags []string
			if a.Tag != "" {
				tags = append(tags, string(a.Tag))
			}
			if a.Suggestion != "" {
				tags = append(tags, a.Suggestion)
			}
			suffix := ""
			if len(tags) > 0 {
				suffix = " [" + strings.Join(tags, ", ") + "]"
			}
			fmt.Printf("  %s  %s%s\n    %s\n", a.Date, a.Title, suffix, a.URL)
		}
	}
	fmt.Printf("%d items in %d groups\n", len(batch.Articles), len(batch.Groups))
}
