package tag

import (
	"encoding/json"
	"testing"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input   string
		want    Category
		wantErr bool
	}{
		{"Areas", Areas, false},
		{"Lighting Fixtures", LightingFixtures, false},
		{"lighting-fixtures", LightingFixtures, false},
		{"LightingFixtures", LightingFixtures, false},
		{"curtain_walls", CurtainWalls, false},
		{"  WINDOWS ", Windows, false},
		{"Generic Models", CategoryUnknown, true},
		{"", CategoryUnknown, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCategory(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCategory(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseCategory(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCategoryRoundTrip(t *testing.T) {
	for _, c := range AllCategories() {
		parsed, err := ParseCategory(c.String())
		if err != nil || parsed != c {
			t.Errorf("ParseCategory(%q) = %v, %v; want %v", c.String(), parsed, err, c)
		}
		parsed, err = ParseCategory(c.Slug())
		if err != nil || parsed != c {
			t.Errorf("ParseCategory(%q) = %v, %v; want %v", c.Slug(), parsed, err, c)
		}
	}
}

func TestElementCategoriesExcludeCurtainWalls(t *testing.T) {
	cats := ElementCategories()
	if len(cats) != 7 {
		t.Fatalf("len(ElementCategories()) = %d, want 7", len(cats))
	}
	for _, c := range cats {
		if c == CurtainWalls {
			t.Error("CurtainWalls must not be an element category")
		}
		if !c.IsElementCategory() {
			t.Errorf("%v.IsElementCategory() = false", c)
		}
	}
	if CurtainWalls.IsElementCategory() {
		t.Error("CurtainWalls.IsElementCategory() = true")
	}
	if len(AllCategories()) != 8 {
		t.Errorf("len(AllCategories()) = %d, want 8", len(AllCategories()))
	}
}

func TestParseViewType(t *testing.T) {
	tests := []struct {
		input string
		want  ViewType
	}{
		{"FloorPlan", FloorPlan},
		{"floor-plan", FloorPlan},
		{"CEILING_PLAN", CeilingPlan},
		{"Area Plan", AreaPlan},
		{"section", Section},
		{"ThreeD", ViewOther},
		{"Elevation", ViewOther},
		{"", ViewOther},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseViewType(tt.input); got != tt.want {
				t.Errorf("ParseViewType(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTextMarshaling(t *testing.T) {
	type doc struct {
		View        ViewType    `json:"view"`
		Category    Category    `json:"category"`
		Orientation Orientation `json:"orientation"`
	}
	in := doc{View: CeilingPlan, Category: LightingFixtures, Orientation: Horizontal}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"view":"CeilingPlan","category":"Lighting Fixtures","orientation":"horizontal"}`
	if string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}

	var out doc
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out != in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestUnknownCategoryDoesNotMarshal(t *testing.T) {
	if _, err := json.Marshal(CategoryUnknown); err == nil {
		t.Error("expected error marshaling CategoryUnknown")
	}
}

func TestSymbolRef(t *testing.T) {
	if !(SymbolRef{}).IsZero() {
		t.Error("zero SymbolRef should be IsZero")
	}
	r := SymbolRef{ID: "1001", Family: "M_Door Tag"}
	if r.IsZero() {
		t.Error("populated SymbolRef reported IsZero")
	}
	if r.String() != "M_Door Tag (1001)" {
		t.Errorf("String() = %q", r.String())
	}
}
