package repository

import (
	"log"
	"os"
	"time"

	"github.com/Luismi76/cursos/internal/config"
	"github.com/Luismi76/cursos/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	slow := cfg.SlowQuery
	if slow <= 0 {
		slow = 200 * time.Millisecond
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
			SlowThreshold:             slow,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: models.ServerTimestamp,
	})
	if err != nil {
		return nil, err
	}

	// Users, courses and enrollments are owned by the platform; migrating them
	// here keeps a standalone deployment usable.
	if err := db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.CourseStudent{},
		&models.CourseMessage{},
		&models.ReadCursor{},
	); err != nil {
		return nil, err
	}

	return db, nil
}
