// Package catalog loads the static analysis taxonomy and the translation
// model list from JSON files into their database tables and serves lookups
// from memory. The tables are read-only for the rest of the process.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUnknownCategory = errors.New("catalog: unknown category index")
	ErrUnknownChoice   = errors.New("catalog: unknown choice index")
	ErrUnknownModel    = errors.New("catalog: unknown translation model")
)

// Catalog is the in-memory view built once at startup.
type Catalog struct {
	categories []Category
	models     []TranslationModel
}

type typesFile struct {
	Types []struct {
		Category string `json:"category"`
		Choices  []struct {
			Name      string `json:"name"`
			Prompt    string `json:"prompt"`
			ModelType string `json:"model_type"`
		} `json:"choices"`
	} `json:"types"`
}

type modelsFile struct {
	Models []struct {
		Mode           string `json:"mode"`
		Description    string `json:"description"`
		SourceLanguage string `json:"source_language"`
		TargetLanguage string `json:"target_language"`
	} `json:"models"`
}

// Load parses both catalog files, reseeds their tables and returns the
// in-memory catalog. A missing translation models path is allowed so the
// analysis service can run standalone.
func Load(db *gorm.DB, typesPath, modelsPath string) (*Catalog, error) {
	cats, err := loadTypes(typesPath)
	if err != nil {
		return nil, err
	}

	var models []TranslationModel
	if modelsPath != "" {
		models, err = loadModels(modelsPath)
		if err != nil {
			return nil, err
		}
	}

	if err := seed(db, cats, models); err != nil {
		return nil, err
	}
	return &Catalog{categories: cats, models: models}, nil
}

func loadTypes(path string) ([]Category, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read types file: %w", err)
	}
	var parsed typesFile
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("catalog: parse types file: %w", err)
	}
	if len(parsed.Types) == 0 {
		return nil, fmt.Errorf("catalog: types file %s has no categories", path)
	}

	cats := make([]Category, 0, len(parsed.Types))
	for ci, t := range parsed.Types {
		cat := Category{
			CategoryID: uuid.NewString(),
			Name:       t.Category,
			Position:   ci,
		}
		for pi, ch := range t.Choices {
			cat.Choices = append(cat.Choices, Choice{
				ChoiceID:   uuid.NewString(),
				CategoryID: cat.CategoryID,
				Name:       ch.Name,
				Prompt:     ch.Prompt,
				ModelType:  ch.ModelType,
				Position:   pi,
			})
		}
		cats = append(cats, cat)
	}
	return cats, nil
}

func loadModels(path string) ([]TranslationModel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read models file: %w", err)
	}
	var parsed modelsFile
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("catalog: parse models file: %w", err)
	}
	models := make([]TranslationModel, 0, len(parsed.Models))
	for _, m := range parsed.Models {
		models = append(models, TranslationModel{
			ModelID:        uuid.NewString(),
			Mode:           m.Mode,
			Description:    m.Description,
			SourceLanguage: m.SourceLanguage,
			TargetLanguage: m.TargetLanguage,
		})
	}
	return models, nil
}

func seed(db *gorm.DB, cats []Category, models []TranslationModel) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Choice{}).Error; err != nil {
			return err
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Category{}).Error; err != nil {
			return err
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&TranslationModel{}).Error; err != nil {
			return err
		}
		for i := range cats {
			if err := tx.Create(&cats[i]).Error; err != nil {
				return err
			}
		}
		for i := range models {
			if err := tx.Create(&models[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FromCategories builds a catalog directly from values, bypassing files and
// the database. Test constructor.
func FromCategories(cats []Category, models []TranslationModel) *Catalog {
	return &Catalog{categories: cats, models: models}
}

// Categories returns the taxonomy ordered by position.
func (c *Catalog) Categories() []Category {
	out := append([]Category(nil), c.categories...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// Category resolves a category by its position index.
func (c *Catalog) Category(index int) (Category, error) {
	ordered := c.Categories()
	if index < 0 || index >= len(ordered) {
		return Category{}, ErrUnknownCategory
	}
	return ordered[index], nil
}

// Choice resolves a choice by its position index under a category.
func (c *Catalog) Choice(cat Category, index int) (Choice, error) {
	ordered := cat.OrderedChoices()
	if index < 0 || index >= len(ordered) {
		return Choice{}, ErrUnknownChoice
	}
	return ordered[index], nil
}

// OrderedChoices returns a category's choices by position.
func (c Category) OrderedChoices() []Choice {
	out := append([]Choice(nil), c.Choices...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// Models returns the translation model catalog.
func (c *Catalog) Models() []TranslationModel {
	return append([]TranslationModel(nil), c.models...)
}

// Model resolves a translation model by ID.
func (c *Catalog) Model(modelID string) (TranslationModel, error) {
	for _, m := range c.models {
		if m.ModelID == modelID {
			return m, nil
		}
	}
	return TranslationModel{}, ErrUnknownModel
}

// SpecialSourceLanguages lists source languages covered by SPECIAL models,
// used by AUTO mode routing.
func (c *Catalog) SpecialSourceLanguages() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range c.models {
		if m.Mode != ModeSpecial {
			continue
		}
		if _, dup := seen[m.SourceLanguage]; dup {
			continue
		}
		seen[m.SourceLanguage] = struct{}{}
		out = append(out, m.SourceLanguage)
	}
	return out
}
