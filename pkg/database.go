package pkg

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/schoolsuite/school-service/internal/config"
	"github.com/schoolsuite/school-service/internal/models"
)

// InitDatabase opens Postgres and migrates the schema.
func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	logLevel := logger.Warn
	if cfg.Environment == "development" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := autoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return db, nil
}

// Postgres treats NULLs as distinct in unique indexes, so the composite
// index on (name, school_id) does not constrain platform-level roles.
// A partial index keeps their names unique too.
const platformRoleNameIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_roles_platform_name
	ON roles (name) WHERE school_id IS NULL`

func autoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.School{},
		&models.User{},
		&models.TeacherProfile{},
		&models.StudentProfile{},
		&models.ParentProfile{},
		&models.StudentEnrollment{},
		&models.ParentEnrollment{},
		&models.PermissionGrant{},
		&models.Role{},
	); err != nil {
		return err
	}
	return db.Exec(platformRoleNameIndex).Error
}
