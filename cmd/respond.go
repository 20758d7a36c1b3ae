package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vzahanych/jbot-advisor/internal/advisory"
	"github.com/vzahanych/jbot-advisor/internal/config"
)

type respondOptions struct {
	intent string
	top    string
	bottom string
}

func respondCmd() *cobra.Command {
	opts := &respondOptions{}

	cmd := &cobra.Command{
		Use:   "respond",
		Short: "Print the answer for one intent",
		Long: `Fetch today's conditions and print the advice for a single intent:
greeting, weather, air-pollution or outfit. Outfit advice uses --top and
--bottom when given, otherwise the configured camera and classifier.`,
		Example: `  jbot respond --intent weather
  jbot respond --intent outfit --top shirt --bottom shorts`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRespond(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.intent, "intent", "i", "greeting", "greeting | weather | air-pollution | outfit")
	cmd.Flags().StringVar(&opts.top, "top", "", "observed top: shirt | thin jacket | thick clothes")
	cmd.Flags().StringVar(&opts.bottom, "bottom", "", "observed bottom: long pants | shorts")

	return cmd
}

func runRespond(cmd *cobra.Command, opts *respondOptions) error {
	cfg := config.GetConfig()
	ctx := cmd.Context()

	intent, err := advisory.ParseIntent(opts.intent)
	if err != nil {
		return err
	}

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}

	conditions, err := a.aggregator.GetConditions(ctx)
	if err != nil {
		return fmt.Errorf("get conditions: %w", err)
	}

	req := advisory.Request{
		Snapshot: conditions.Snapshot,
		AirLevel: conditions.AirLevel,
	}

	if intent == advisory.IntentOutfit {
		outfit, err := observedOutfit(cmd, a, opts)
		if err != nil {
			return err
		}
		req.Outfit = &outfit
	}

	text, err := a.engine.Respond(intent, req)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}

func observedOutfit(cmd *cobra.Command, a *app, opts *respondOptions) (advisory.Outfit, error) {
	if opts.top == "" && opts.bottom == "" {
		return a.observer.Observe(cmd.Context())
	}

	top, err := advisory.ParseTop(opts.top)
	if err != nil {
		return advisory.Outfit{}, err
	}
	bottom, err := advisory.ParseBottom(opts.bottom)
	if err != nil {
		return advisory.Outfit{}, err
	}
	return advisory.Outfit{Top: top, Bottom: bottom}, nil
}
