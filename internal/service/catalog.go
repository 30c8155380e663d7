package service

import (
	"strings"

	"carvest-backend/internal/model"

	"github.com/shopspring/decimal"
)

var vehicleCatalog = []model.Vehicle{
	{
		ID: "tesla-model-s-plaid", Name: "Tesla Model S Plaid", Brand: "Tesla", Category: "Electric",
		Year: 2024, PricePerShare: decimal.NewFromInt(1100), TotalShares: 100,
		DailyRentalRate: decimal.NewFromInt(450), ExpectedYield: 7.2,
		ImageURL: "/images/cars/tesla-model-s-plaid.jpg",
	},
	{
		ID: "ferrari-sf90-stradale", Name: "Ferrari SF90 Stradale", Brand: "Ferrari", Category: "Hypercar",
		Year: 2023, PricePerShare: decimal.NewFromInt(5200), TotalShares: 100,
		DailyRentalRate: decimal.NewFromInt(2800), ExpectedYield: 9.1,
		ImageURL: "/images/cars/ferrari-sf90-stradale.jpg",
	},
	{
		ID: "lamborghini-huracan-evo", Name: "Lamborghini Huracan EVO", Brand: "Lamborghini", Category: "Supercar",
		Year: 2023, PricePerShare: decimal.NewFromInt(2700), TotalShares: 100,
		DailyRentalRate: decimal.NewFromInt(1900), ExpectedYield: 8.4,
		ImageURL: "/images/cars/lamborghini-huracan-evo.jpg",
	},
	{
		ID: "porsche-911-turbo-s", Name: "Porsche 911 Turbo S", Brand: "Porsche", Category: "Sports",
		Year: 2024, PricePerShare: decimal.NewFromInt(2300), TotalShares: 100,
		DailyRentalRate: decimal.NewFromInt(1200), ExpectedYield: 6.8,
		ImageURL: "/images/cars/porsche-911-turbo-s.jpg",
	},
	{
		ID: "rolls-royce-ghost", Name: "Rolls-Royce Ghost", Brand: "Rolls-Royce", Category: "Luxury Sedan",
		Year: 2023, PricePerShare: decimal.NewFromInt(3400), TotalShares: 100,
		DailyRentalRate: decimal.NewFromInt(2100), ExpectedYield: 5.9,
		ImageURL: "/images/cars/rolls-royce-ghost.jpg",
	},
	{
		ID: "mclaren-720s", Name: "McLaren 720S", Brand: "McLaren", Category: "Supercar",
		Year: 2022, PricePerShare: decimal.NewFromInt(3000), TotalShares: 100,
		DailyRentalRate: decimal.NewFromInt(2000), ExpectedYield: 8.0,
		ImageURL: "/images/cars/mclaren-720s.jpg",
	},
	{
		ID: "bentley-continental-gt", Name: "Bentley Continental GT", Brand: "Bentley", Category: "Grand Tourer",
		Year: 2023, PricePerShare: decimal.NewFromInt(2400), TotalShares: 100,
		DailyRentalRate: decimal.NewFromInt(1300), ExpectedYield: 6.1,
		ImageURL: "/images/cars/bentley-continental-gt.jpg",
	},
	{
		ID: "mercedes-amg-g63", Name: "Mercedes-AMG G63", Brand: "Mercedes-Benz", Category: "Luxury SUV",
		Year: 2024, PricePerShare: decimal.NewFromInt(1800), TotalShares: 100,
		DailyRentalRate: decimal.NewFromInt(950), ExpectedYield: 6.5,
		ImageURL: "/images/cars/mercedes-amg-g63.jpg",
	},
}

// Catalog returns a copy of the vehicle catalog.
func Catalog() []model.Vehicle {
	return append([]model.Vehicle(nil), vehicleCatalog...)
}

// FindVehicle matches name against the catalog: case-insensitive, and a
// match when either name contains the other.
func FindVehicle(name string) (model.Vehicle, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return model.Vehicle{}, false
	}
	for _, v := range vehicleCatalog {
		candidate := strings.ToLower(v.Name)
		if strings.Contains(candidate, needle) || strings.Contains(needle, candidate) {
			return v, true
		}
	}
	return model.Vehicle{}, false
}

// enrichVehicleImages sets imageUrl on every entry of the listed arrays
// whose "vehicle" name matches the catalog. Unmatched entries are left as is.
func enrichVehicleImages(result map[string]any, listKeys ...string) {
	for _, key := range listKeys {
		entries, ok := result[key].([]any)
		if !ok {
			continue
		}
		for _, e := range entries {
			entry, ok := e.(map[string]any)
			if !ok {
				continue
			}
			name, _ := entry["vehicle"].(string)
			if v, found := FindVehicle(name); found {
				entry["imageUrl"] = v.ImageURL
			}
		}
	}
}
