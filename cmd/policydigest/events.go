package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"PolicyDigest/internal/domain"
)

func eventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Work with hearing events on the shared calendar",
	}
	cmd.AddCommand(eventsPullCmd())
	cmd.AddCommand(eventsCreateCmd())
	return cmd
}

func eventsPullCmd() *cobra.Command {
	var (
		start string
		end   string
		pdf   string
	)

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "List events between two dates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()
			application, _, err := setup(ctx)
			if err != nil {
				return err
			}
			defer application.Close()

			calendar := application.Calendar()
			loc := calendar.Location()
			if end == "" {
				end = start
			}
			from, err := time.ParseInLocation(domain.DateLayout, start, loc)
			if err != nil {
				return fmt.Errorf("invalid --start %q", start)
			}
			to, err := time.ParseInLocation(domain.DateLayout, end, loc)
			if err != nil {
				return fmt.Errorf("invalid --end %q", end)
			}

			if pdf != "" {
				f, err := os.Create(pdf)
				if err != nil {
					return err
				}
				if err := calendar.PDF(ctx, from, to, f); err != nil {
					f.Close()
					return err
				}
				return f.Close()
			}

			events, err := calendar.Pull(ctx, from, to)
			if err != nil {
				return err
			}
			for _, day := range calendar.GroupByDay(events) {
				fmt.Println(day.Label)
				for _, ev := range day.Events {
					fmt.Printf("  %s  %s\n    %s\n", ev.Start.In(loc).Format("3:04 PM"), ev.Title, ev.OriginalLink)
				}
			}
			fmt.Printf("%d events\n", len(events))
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", time.Now().Format(domain.DateLayout), "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "last day, YYYY-MM-DD (defaults to --start)")
	cmd.Flags().StringVar(&pdf, "pdf", "", "write a PDF to this path instead of printing")
	return cmd
}

func eventsCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create [hearing-url]",
		Short: "Create a calendar event from a hearing page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()
			application, _, err := setup(ctx)
			if err != nil {
				return err
			}
			defer application.Close()

			res, err := application.Calendar().CreateFromURL(ctx, args[0])
			if err != nil {
				return err
			}
			verb := "created"
			if res.Event.Deduped {
				verb = "already exists"
			}
			fmt.Printf("%s: %s %s\n%s\n", verb, res.Draft.Title, res.Draft.Start.Format(time.RFC1123), res.Event.URL)
			return nil
		},
	}
}
