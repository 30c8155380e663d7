package service

import "testing"

func TestFindVehicle(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
		found bool
	}{
		{"exact", "Tesla Model S Plaid", "Tesla Model S Plaid", true},
		{"partial", "Tesla Model S", "Tesla Model S Plaid", true},
		{"case insensitive", "ferrari sf90 stradale", "Ferrari SF90 Stradale", true},
		{"longer than catalog name", "2023 McLaren 720S Spider", "McLaren 720S", true},
		{"unknown", "Unknown Car XYZ", "", false},
		{"empty", "  ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := FindVehicle(tt.query)
			if ok != tt.found {
				t.Fatalf("expected found=%v, got %v", tt.found, ok)
			}
			if ok && v.Name != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, v.Name)
			}
		})
	}
}

func TestEnrichVehicleImages(t *testing.T) {
	result := map[string]any{
		"recommendedVehicles": []any{
			map[string]any{"vehicle": "Tesla Model S"},
			map[string]any{"vehicle": "Unknown Car XYZ"},
			"not an object",
		},
		"summary": "text",
	}

	enrichVehicleImages(result, "recommendedVehicles", "missing")

	list := result["recommendedVehicles"].([]any)
	if got := list[0].(map[string]any)["imageUrl"]; got != "/images/cars/tesla-model-s-plaid.jpg" {
		t.Errorf("expected Tesla image, got %v", got)
	}
	if _, ok := list[1].(map[string]any)["imageUrl"]; ok {
		t.Error("unknown vehicle must not get an image")
	}
}

func TestCatalogReturnsCopy(t *testing.T) {
	c := Catalog()
	c[0].Name = "changed"
	if Catalog()[0].Name == "changed" {
		t.Fatal("catalog was modified through the returned slice")
	}
}
