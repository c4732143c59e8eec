package translate

import "time"

// Session is one persisted translation exchange. The version counter follows
// the same guard protocol as analysis sessions.
type Session struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	SessionID      string    `gorm:"type:varchar(26);uniqueIndex;not null" json:"session_id"`
	OwnerID        string    `gorm:"type:varchar(128);index;not null" json:"-"`
	Title          string    `gorm:"type:varchar(256);not null" json:"title"`
	Mode           string    `gorm:"type:varchar(16);not null" json:"model"`
	Query          string    `gorm:"type:text;not null" json:"query"`
	Translation    string    `gorm:"type:text;not null" json:"translation"`
	SourceLanguage string    `gorm:"type:varchar(8);not null" json:"source_language"`
	TargetLanguage string    `gorm:"type:varchar(8);not null" json:"target_language"`
	Version        int       `gorm:"not null;default:0" json:"version"`
	CreatedAt      time.Time `json:"inserted_at"`
	UpdatedAt      time.Time `gorm:"index" json:"updated_at"`
}

func (Session) TableName() string { return "translation_sessions" }

// SessionTable is the table name the shared version guard operates on.
const SessionTable = "translation_sessions"
