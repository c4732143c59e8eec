package catalog

import "time"

// Category is one analysis taxonomy entry. Rows are seeded from the types
// file at startup and never mutated afterwards.
type Category struct {
	CategoryID string   `gorm:"type:varchar(36);primaryKey" json:"-"`
	Name       string   `gorm:"type:varchar(128);not null" json:"name"`
	Position   int      `gorm:"not null;index" json:"position"`
	Choices    []Choice `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"choices"`
	CreatedAt  time.Time `json:"-"`
}

func (Category) TableName() string { return "analysis_categories" }

// Choice is one analysis type under a category. ModelType selects the
// collaborator: "universal" for the hosted completion endpoint, "pretrained"
// for the local zero-shot classifier, anything else for the builtin
// heuristics.
type Choice struct {
	ChoiceID   string    `gorm:"type:varchar(36);primaryKey" json:"-"`
	CategoryID string    `gorm:"type:varchar(36);index;not null" json:"-"`
	Name       string    `gorm:"type:varchar(64);not null" json:"name"`
	Prompt     string    `gorm:"type:text;not null" json:"prompt"`
	ModelType  string    `gorm:"type:varchar(32)" json:"model_type"`
	Position   int       `gorm:"not null;index" json:"position"`
	CreatedAt  time.Time `json:"-"`
}

func (Choice) TableName() string { return "analysis_choices" }

// Field names a slot of the analysis content payload a choice writes into.
type Field string

const (
	FieldShortSummary   Field = "short_summary"
	FieldEntities       Field = "entities"
	FieldSentiments     Field = "sentiments"
	FieldClassification Field = "classifications"
	FieldFullSummary    Field = "full_summary"
)

// fieldByChoice maps the catalog choice names onto content fields.
var fieldByChoice = map[string]Field{
	"annotation":     FieldShortSummary,
	"entities":       FieldEntities,
	"sentiment":      FieldSentiments,
	"classification": FieldClassification,
	"conclusions":    FieldFullSummary,
}

// TargetField resolves which content field a choice produces. Unknown names
// fall back to the full summary slot so a catalog typo cannot drop output.
func (c Choice) TargetField() Field {
	if f, ok := fieldByChoice[c.Name]; ok {
		return f
	}
	return FieldFullSummary
}

// TranslationModel is one entry of the translation model catalog, also
// seeded at startup and read-only afterwards.
type TranslationModel struct {
	ModelID        string    `gorm:"type:varchar(36);primaryKey" json:"model_id"`
	Mode           string    `gorm:"type:varchar(16);not null" json:"mode"`
	Description    string    `gorm:"type:varchar(256)" json:"description"`
	SourceLanguage string    `gorm:"type:varchar(8);not null" json:"source_language"`
	TargetLanguage string    `gorm:"type:varchar(8);not null" json:"target_language"`
	CreatedAt      time.Time `json:"-"`
}

func (TranslationModel) TableName() string { return "translation_models" }

// Translation model modes.
const (
	ModeAuto      = "AUTO"
	ModeUniversal = "UNIVERSAL"
	ModeSpecial   = "SPECIAL"
)
