package seed

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"blackkeyx_backend/internal/model"
	"blackkeyx_backend/internal/repository"
)

type demoDeal struct {
	property model.Property
	features model.PropertyFeature
}

func ptr[T any](v T) *T { return &v }

func demoDeals() []demoDeal {
	return []demoDeal{
		{
			property: model.Property{
				Name:                 "Riverside Apartments",
				DealType:             "multifamily",
				Summary:              ptr("212-unit Class B value-add community in Austin, TX."),
				Thesis:               ptr("Interior renovations push rents to market within 24 months."),
				MinimumInvestment:    ptr(int64(50000)),
				TargetReturn:         ptr("15-18% IRR"),
				RiskFactors:          datatypes.JSONSlice[string]{"Interest rate exposure", "Renovation cost overruns"},
				IdealInvestorProfile: ptr("Accredited investors seeking cash flow and appreciation"),
				Structure:            ptr("LP/GP"),
				Timeline:             ptr("5 years"),
				City:                 ptr("Austin"),
				State:                ptr("TX"),
				PurchasePrice:        ptr(int64(38500000)),
			},
			features: model.PropertyFeature{
				AssetType: "multifamily",
				Features:  datatypes.JSONMap{"units": 212, "occupancy": 0.93, "pool": true},
				YearBuilt: ptr(1998),
			},
		},
		{
			property: model.Property{
				Name:                 "Gateway Logistics Center",
				DealType:             "industrial",
				Summary:              ptr("Two-building last-mile distribution campus off I-10 in Phoenix."),
				Thesis:               ptr("Below-market leases roll in year two into a tight submarket."),
				MinimumInvestment:    ptr(int64(100000)),
				TargetReturn:         ptr("8% CoC, 17% IRR"),
				RiskFactors:          datatypes.JSONSlice[string]{"Tenant concentration", "New supply"},
				IdealInvestorProfile: ptr("Family offices with a 7 year horizon"),
				Structure:            ptr("LP/GP"),
				Timeline:             ptr("7 years"),
				City:                 ptr("Phoenix"),
				State:                ptr("AZ"),
				SquareFeet:           ptr(int64(480000)),
			},
			features: model.PropertyFeature{
				AssetType: "industrial",
				Features:  datatypes.JSONMap{"clear_height_min": 32, "loading_docks": 24},
				YearBuilt: ptr(2019),
			},
		},
		{
			property: model.Property{
				Name:                 "Midtown Medical Office",
				DealType:             "office",
				Summary:              ptr("Fully leased medical office building anchored by a regional hospital."),
				Thesis:               ptr("Long WALT with annual escalators delivers stable income."),
				MinimumInvestment:    ptr(int64(250000)),
				TargetReturn:         ptr("12% IRR"),
				RiskFactors:          datatypes.JSONSlice[string]{"Anchor tenant renewal"},
				IdealInvestorProfile: ptr("Income-focused accredited investors"),
				Structure:            ptr("Tenant-in-common"),
				Timeline:             ptr("10 years"),
				City:                 ptr("Atlanta"),
				State:                ptr("GA"),
				Status:               model.DealStatusPaused,
			},
			features: model.PropertyFeature{
				AssetType:     "office",
				Features:      datatypes.JSONMap{"floors": 4, "medical_grade_hvac": true},
				YearBuilt:     ptr(2008),
				ParkingSpaces: ptr(320),
			},
		},
	}
}

// SeedDeals inserts the demo deals when the properties table is empty and
// returns how many were created.
func SeedDeals(ctx context.Context, db *gorm.DB) (int, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&model.Property{}).Count(&count).Error; err != nil {
		return 0, err
	}
	if count > 0 {
		slog.Info("Deals already present, skipping seed", slog.Int64("count", count))
		return 0, nil
	}

	repo := repository.NewPropertyRepository(db)
	created := 0
	for _, d := range demoDeals() {
		property, features := d.property, d.features
		if err := repo.CreateWithFeatures(ctx, &property, &features); err != nil {
			return created, fmt.Errorf("seed %s: %w", property.Name, err)
		}
		created++
	}

	slog.Info("Demo deals seeded", slog.Int("count", created))
	return created, nil
}
