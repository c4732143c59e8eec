package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(gormsqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Category{}, &Choice{}, &TranslationModel{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const typesJSON = `{
  "types": [
    {
      "category": "News",
      "choices": [
        {"name": "annotation", "prompt": "Annotate.", "model_type": "universal"},
        {"name": "classification", "prompt": "politics, sports", "model_type": "pretrained"}
      ]
    },
    {
      "category": "Reviews",
      "choices": [
        {"name": "sentiment", "prompt": "Rate it.", "model_type": ""}
      ]
    }
  ]
}`

const modelsJSON = `{
  "models": [
    {"mode": "UNIVERSAL", "description": "general", "source_language": "auto", "target_language": "en"},
    {"mode": "SPECIAL", "description": "fr-en", "source_language": "fr", "target_language": "en"},
    {"mode": "SPECIAL", "description": "de-en", "source_language": "de", "target_language": "en"}
  ]
}`

func TestLoadSeedsTablesAndResolvesByPosition(t *testing.T) {
	db := openTestDB(t)
	typesPath := writeFile(t, "types.json", typesJSON)
	modelsPath := writeFile(t, "models.json", modelsJSON)

	cat, err := Load(db, typesPath, modelsPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if got := len(cat.Categories()); got != 2 {
		t.Fatalf("expected 2 categories, got %d", got)
	}

	news, err := cat.Category(0)
	if err != nil {
		t.Fatalf("category 0: %v", err)
	}
	if news.Name != "News" {
		t.Fatalf("expected News at position 0, got %q", news.Name)
	}

	choice, err := cat.Choice(news, 1)
	if err != nil {
		t.Fatalf("choice 1: %v", err)
	}
	if choice.Name != "classification" || choice.ModelType != "pretrained" {
		t.Fatalf("unexpected choice: %+v", choice)
	}

	var catCount, choiceCount, modelCount int64
	db.Model(&Category{}).Count(&catCount)
	db.Model(&Choice{}).Count(&choiceCount)
	db.Model(&TranslationModel{}).Count(&modelCount)
	if catCount != 2 || choiceCount != 3 || modelCount != 3 {
		t.Fatalf("unexpected seeded rows: categories=%d choices=%d models=%d", catCount, choiceCount, modelCount)
	}
}

func TestLoadReseedIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	typesPath := writeFile(t, "types.json", typesJSON)

	for i := 0; i < 2; i++ {
		if _, err := Load(db, typesPath, ""); err != nil {
			t.Fatalf("load %d: %v", i, err)
		}
	}
	var count int64
	db.Model(&Category{}).Count(&count)
	if count != 2 {
		t.Fatalf("reseed duplicated categories: %d", count)
	}
}

func TestUnknownIndexesAreRejected(t *testing.T) {
	cat := FromCategories([]Category{{
		CategoryID: "c1",
		Name:       "News",
		Choices:    []Choice{{ChoiceID: "ch1", Name: "annotation"}},
	}}, nil)

	if _, err := cat.Category(5); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	if _, err := cat.Category(-1); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	news, _ := cat.Category(0)
	if _, err := cat.Choice(news, 3); !errors.Is(err, ErrUnknownChoice) {
		t.Fatalf("expected ErrUnknownChoice, got %v", err)
	}
	if _, err := cat.Model("missing"); !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel, got %v", err)
	}
}

func TestChoiceTargetFieldMapping(t *testing.T) {
	cases := map[string]Field{
		"annotation":     FieldShortSummary,
		"entities":       FieldEntities,
		"sentiment":      FieldSentiments,
		"classification": FieldClassification,
		"conclusions":    FieldFullSummary,
		"anything else":  FieldFullSummary,
	}
	for name, want := range cases {
		if got := (Choice{Name: name}).TargetField(); got != want {
			t.Fatalf("choice %q: expected field %q, got %q", name, want, got)
		}
	}
}

func TestSpecialSourceLanguages(t *testing.T) {
	cat := FromCategories(nil, []TranslationModel{
		{ModelID: "m1", Mode: ModeUniversal, SourceLanguage: "auto"},
		{ModelID: "m2", Mode: ModeSpecial, SourceLanguage: "fr"},
		{ModelID: "m3", Mode: ModeSpecial, SourceLanguage: "fr"},
		{ModelID: "m4", Mode: ModeSpecial, SourceLanguage: "de"},
	})
	langs := cat.SpecialSourceLanguages()
	if len(langs) != 2 || langs[0] != "fr" || langs[1] != "de" {
		t.Fatalf("unexpected special languages: %v", langs)
	}
}
