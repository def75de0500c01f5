package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/actuallystonmai/meal-recommendation-service/internal/domain"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "foods.csv",
		"음식명,대표식품명,에너지(kcal),탄수화물(g),단백질(g),지방(g),당류(g),나트륨(mg)\n"+
			"Bibimbap,Rice,550,80,20,15,5,900\n"+
			"Kimchi stew,Stew,,10,12,NaN,abc,1,200\n")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 items, got %d", c.Len())
	}

	first := c.Item(0)
	if first.Name != "Bibimbap" || first.Category != "Rice" {
		t.Errorf("unexpected first item %+v", first)
	}
	if first.Energy() != 550 || first.Nutrients[domain.Sodium] != 900 {
		t.Errorf("unexpected nutrients %v", first.Nutrients)
	}

	// empty, NaN and garbage cells load as 0
	second := c.Item(1)
	want := [domain.NutrientCount]float64{0, 10, 12, 0, 0, 1}
	if second.Nutrients != want {
		t.Errorf("expected %v, got %v", want, second.Nutrients)
	}
}

func TestLoadCSVEnglishHeadersAnyOrder(t *testing.T) {
	path := writeFile(t, "foods.csv",
		"sodium_mg,Name,category,energy_kcal,protein_g,carbohydrate_g,fat_g,sugar_g,extra\n"+
			"300,Salad,Veg,120,4,10,2,3,ignored\n")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := c.Item(0)
	want := [domain.NutrientCount]float64{120, 10, 4, 2, 3, 300}
	if got.Nutrients != want {
		t.Errorf("expected %v, got %v", want, got.Nutrients)
	}
	if got.Name != "Salad" {
		t.Errorf("expected Salad, got %q", got.Name)
	}
}

func TestLoadCSVShortRowsAndBlankLines(t *testing.T) {
	path := writeFile(t, "foods.csv",
		"name,category,energy,carbohydrate,protein,fat,sugar,sodium\n"+
			"Tea,Drink,5\n"+
			",,,,,,,\n"+
			"Toast,Bread,-20,30,5,3,4,200\n")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("expected blank row skipped, got %d items", c.Len())
	}
	if c.Item(0).Energy() != 5 || c.Item(0).Nutrients[domain.Sodium] != 0 {
		t.Errorf("short row not padded with zeros: %v", c.Item(0).Nutrients)
	}
	if c.Item(1).Energy() != 0 {
		t.Errorf("negative energy should load as 0, got %f", c.Item(1).Energy())
	}
}

func TestLoadMissingColumn(t *testing.T) {
	path := writeFile(t, "foods.csv", "name,category,energy\nTea,Drink,5\n")

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for missing nutrient columns")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	path := writeFile(t, "foods.json", "[]")

	_, err := Load(path)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestLoadXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"음식명", "대표식품명", "에너지(kcal)", "탄수화물(g)", "단백질(g)", "지방(g)", "당류(g)", "나트륨(mg)"},
		{"Bulgogi", "Meat", 480.5, 20, 35, 25, 12, 850},
		{"Rice cake", "Snack", 300, 65, 5, nil, 10, 400},
	}
	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cellName, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "foods.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 items, got %d", c.Len())
	}
	if c.Item(0).Energy() != 480.5 {
		t.Errorf("expected 480.5, got %f", c.Item(0).Energy())
	}
	if c.Item(1).Nutrients[domain.Fat] != 0 {
		t.Errorf("empty cell should load as 0, got %f", c.Item(1).Nutrients[domain.Fat])
	}
}

func TestFingerprint(t *testing.T) {
	a := New([]domain.FoodItem{{Name: "A", Category: "X", Nutrients: [6]float64{1, 2, 3, 4, 5, 6}}})
	b := New([]domain.FoodItem{{Name: "A", Category: "X", Nutrients: [6]float64{1, 2, 3, 4, 5, 6}}})
	c := New([]domain.FoodItem{{Name: "A", Category: "X", Nutrients: [6]float64{1, 2, 3, 4, 5, 7}}})

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("identical catalogs should share a fingerprint")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("different catalogs should not share a fingerprint")
	}
}

func TestIsNutrientHeader(t *testing.T) {
	if !IsNutrientHeader(domain.Energy, "에너지(kcal)") {
		t.Error("korean energy header not recognised")
	}
	if !IsNutrientHeader(domain.Sodium, " Sodium ") {
		t.Error("english sodium header not recognised")
	}
	if IsNutrientHeader(domain.Fat, "sugar") {
		t.Error("sugar is not the fat header")
	}
}
