package main

import (
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/noah-isme/backend-menu/internal/catalog"
)

func newQuoteCmd() *cobra.Command {
	var (
		at     string
		usage  float64
		addons []string
	)
	cmd := &cobra.Command{
		Use:   "quote <item-id>",
		Short: "Price an item at an instant and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.close()

			itemID, err := catalog.ParseID(args[0], "item-id")
			if err != nil {
				return err
			}
			values := url.Values{}
			if at != "" {
				values.Set("currentTime", at)
			}
			if cmd.Flags().Changed("usage") {
				values.Set("usageHours", strconv.FormatFloat(usage, 'f', -1, 64))
			}
			for _, id := range addons {
				values.Add("addonIds", id)
			}
			req, err := e.catalog.ParseQuoteRequest(values)
			if err != nil {
				return err
			}
			quote, err := e.catalog.Quote(ctx, itemID, req)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(quote)
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "instant to price at (RFC 3339, default now)")
	cmd.Flags().Float64Var(&usage, "usage", 0, "usage hours for tiered items")
	cmd.Flags().StringSliceVar(&addons, "addon", nil, "add-on ids to include")
	return cmd
}
