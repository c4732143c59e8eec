package db

import (
	"log"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/veslo-ai/textlab/internal/analysis"
	"github.com/veslo-ai/textlab/internal/catalog"
	"github.com/veslo-ai/textlab/internal/owner"
	"github.com/veslo-ai/textlab/internal/translate"
)

// Connect opens the configured database and migrates the schema.
// driver is "mysql" or "sqlite"; sqlite is the development default.
func Connect(driver, dsn string) *gorm.DB {
	var dialector gorm.Dialector
	switch driver {
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		dialector = sqlite.Open(dsn)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}

	if err := gdb.AutoMigrate(
		&owner.Owner{},
		&catalog.Category{},
		&catalog.Choice{},
		&catalog.TranslationModel{},
		&analysis.Session{},
		&analysis.Job{},
		&translate.Session{},
	); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	return gdb
}
