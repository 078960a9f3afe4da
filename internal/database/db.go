package database

import (
	"log"
	"os"
	"path/filepath"

	"license-auth-api/internal/model"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB(dbPath string) {
	var err error
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatal("create data directory failed:", err)
		}
	}

	DB, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		log.Fatal("database connection failed:", err)
	}

	// sqlite allows a single writer; one pooled connection keeps
	// concurrent binds serialized at the driver instead of failing busy.
	sqlDB, err := DB.DB()
	if err != nil {
		log.Fatal("database handle failed:", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = DB.AutoMigrate(&model.License{}, &model.UsageLog{})
	if err != nil {
		log.Fatal("database migration failed:", err)
	}
}
