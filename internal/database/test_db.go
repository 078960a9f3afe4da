package database

import (
	"license-auth-api/internal/model"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func InitTestDB() {
	var err error
	DB, err = gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		panic("failed to connect test database")
	}

	sqlDB, err := DB.DB()
	if err != nil {
		panic("failed to get test database handle")
	}
	sqlDB.SetMaxOpenConns(1)

	err = DB.AutoMigrate(&model.License{}, &model.UsageLog{})
	if err != nil {
		panic("failed to migrate test database")
	}
}

func CleanTestDB() {
	sqlDB, err := DB.DB()
	if err != nil {
		return
	}
	sqlDB.Close()
}
