package analysis

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ChoiceList stores the requested choice indexes as a JSON column.
type ChoiceList []int

func (l ChoiceList) Value() (driver.Value, error) {
	if l == nil {
		l = ChoiceList{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *ChoiceList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = ChoiceList{}
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("analysis: cannot scan choice list from %T", src)
	}
}

// Content is the derived payload of an analysis session. Fields a
// regeneration does not touch keep their previous value.
type Content struct {
	ShortSummary    string `gorm:"type:text" json:"short_summary"`
	Entities        string `gorm:"type:text" json:"entities"`
	Sentiments      string `gorm:"type:text" json:"sentiments"`
	Classifications string `gorm:"type:text" json:"classifications"`
	FullSummary     string `gorm:"type:text" json:"full_summary"`
}

// Session is one persisted unit of analysis work. Version starts at 0 and
// moves up by exactly 1 per accepted mutation.
type Session struct {
	ID            uint64     `gorm:"primaryKey;autoIncrement" json:"-"`
	SessionID     string     `gorm:"type:varchar(26);uniqueIndex;not null" json:"session_id"`
	OwnerID       string     `gorm:"type:varchar(128);index;not null" json:"-"`
	Title         string     `gorm:"type:varchar(256);not null" json:"title"`
	Text          string     `gorm:"type:text;not null" json:"text"`
	CategoryIndex int        `gorm:"not null" json:"category"`
	ChoiceIndexes ChoiceList `gorm:"type:text;not null" json:"choices"`
	Content       Content    `gorm:"embedded" json:"content"`
	Version       int        `gorm:"not null;default:0" json:"version"`
	CreatedAt     time.Time  `json:"inserted_at"`
	UpdatedAt     time.Time  `gorm:"index" json:"updated_at"`
}

func (Session) TableName() string { return "analysis_sessions" }

// SessionTable is the table name the shared version guard operates on.
const SessionTable = "analysis_sessions"
