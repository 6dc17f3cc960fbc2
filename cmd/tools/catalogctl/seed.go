package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jaswdr/faker"
	"github.com/spf13/cobra"

	"github.com/noah-isme/backend-menu/internal/availability"
	"github.com/noah-isme/backend-menu/internal/catalog"
	"github.com/noah-isme/backend-menu/internal/money"
)

func newSeedCmd() *cobra.Command {
	var extra int
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a demo menu covering every pricing type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.close()
			n, err := seed(ctx, e.catalog, extra)
			if err != nil {
				return err
			}
			e.logger.Info().Int("items", n).Msg("seed completed")
			return nil
		},
	}
	cmd.Flags().IntVar(&extra, "items", 10, "number of extra static items with generated names")
	return cmd
}

type seeder struct {
	svc  *catalog.Service
	fake faker.Faker
	n    int
}

func seed(ctx context.Context, svc *catalog.Service, extra int) (int, error) {
	s := &seeder{svc: svc, fake: faker.New()}

	drinks, err := svc.CreateCategory(ctx, catalog.CategoryInput{
		Name:          "Drinks",
		Description:   s.sentence(),
		TaxPercentage: amount("10"),
	})
	if err != nil {
		return 0, fmt.Errorf("seed category: %w", err)
	}
	coffee, err := svc.CreateSubcategory(ctx, catalog.SubcategoryInput{CategoryID: drinks.ID, Name: "Coffee", Description: s.sentence()})
	if err != nil {
		return 0, fmt.Errorf("seed subcategory: %w", err)
	}
	spaces, err := svc.CreateCategory(ctx, catalog.CategoryInput{
		Name:          "Spaces",
		Description:   s.sentence(),
		TaxPercentage: amount("5"),
	})
	if err != nil {
		return 0, fmt.Errorf("seed category: %w", err)
	}

	weekdays := []string{"mon", "tue", "wed", "thu", "fri"}
	office := []availability.Window{window("08:00", "20:00")}
	bookable := true

	items := []catalog.ItemInput{
		{SubcategoryID: &coffee.ID, Name: "Espresso", BasePrice: amount("3.50")},
		{SubcategoryID: &coffee.ID, Name: "Flat white", BasePrice: amount("4.20"),
			PricingType: "DISCOUNTED", PricingConfig: raw(`{"val":10,"is_perc":true}`)},
		{CategoryID: &drinks.ID, Name: "Tap water", PricingType: "COMPLIMENTARY"},
		{CategoryID: &drinks.ID, Name: "Lemonade", BasePrice: amount("4"),
			PricingType: "DYNAMIC", AvlDays: weekdays, AvlTimes: office,
			PricingConfig: raw(`{"windows":[{"start":"08:00","end":"16:00","price":4},{"start":"16:00","end":"19:00","price":2.5}]}`)},
		{CategoryID: &spaces.ID, Name: "Meeting room", IsBookable: &bookable, AvlDays: weekdays, AvlTimes: office,
			PricingType: "TIERED", PricingConfig: raw(`{"tiers":[{"upto":1,"price":20},{"upto":4,"price":60},{"upto":null,"price":100}]}`)},
	}
	for _, in := range items {
		in.Description = s.sentence()
		it, err := svc.CreateItem(ctx, in)
		if err != nil {
			return s.n, fmt.Errorf("seed item %q: %w", in.Name, err)
		}
		s.n++
		if it.Name == "Espresso" {
			if _, err := svc.CreateAddon(ctx, it.ID, catalog.AddonInput{Name: "Extra shot", Price: amount("0.80")}); err != nil {
				return s.n, fmt.Errorf("seed addon: %w", err)
			}
			if _, err := svc.CreateAddon(ctx, it.ID, catalog.AddonInput{Name: "Cup deposit", Price: amount("0.20"), IsMandatory: true}); err != nil {
				return s.n, fmt.Errorf("seed addon: %w", err)
			}
		}
	}

	for i := 0; i < extra; i++ {
		name := fmt.Sprintf("%s and %s juice", s.fake.Food().Fruit(), strings.ToLower(s.fake.Food().Vegetable()))
		price := money.FromInt(int64(2 + s.fake.IntBetween(0, 6)))
		if _, err := svc.CreateItem(ctx, catalog.ItemInput{
			SubcategoryID: &coffee.ID,
			Name:          fmt.Sprintf("%s #%d", name, i+1),
			Description:   s.sentence(),
			BasePrice:     &price,
		}); err != nil {
			return s.n, fmt.Errorf("seed generated item: %w", err)
		}
		s.n++
	}
	return s.n, nil
}

func (s *seeder) sentence() *string {
	v := s.fake.Lorem().Sentence(8)
	return &v
}

func amount(v string) *money.Money {
	m := money.MustParse(v)
	return &m
}

func window(start, end string) availability.Window {
	return availability.Window{Start: availability.MustClock(start), End: availability.MustClock(end)}
}

func raw(s string) json.RawMessage { return json.RawMessage(s) }
