package migrations

import (
	"gorm.io/gorm"

	"github.com/digitallive06-cyber/Elite-wave-GO/internal/models"
)

// AllMigrations returns every schema migration in version order.
//   - 001: profiles table
//   - 002: last_connected_at column on profiles
func AllMigrations() []Migration {
	return []Migration{
		migration001Profiles(),
		migration002ProfileLastConnected(),
	}
}

// profileV1 is the profiles table as first released.
type profileV1 struct {
	models.BaseModel
	Name      string `gorm:"uniqueIndex;not null;size:255"`
	ServerURL string `gorm:"not null;size:2048"`
	Username  string `gorm:"not null;size:255"`
	Password  string `gorm:"not null;size:255"`
}

func (profileV1) TableName() string { return "profiles" }

func migration001Profiles() Migration {
	return Migration{
		Version:     "001",
		Description: "Create profiles table",
		Up: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&profileV1{})
		},
		Down: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable("profiles")
		},
	}
}

func migration002ProfileLastConnected() Migration {
	return Migration{
		Version:     "002",
		Description: "Add last_connected_at to profiles",
		Up: func(tx *gorm.DB) error {
			if tx.Migrator().HasColumn(&models.Profile{}, "LastConnectedAt") {
				return nil
			}
			return tx.Migrator().AddColumn(&models.Profile{}, "LastConnectedAt")
		},
		Down: func(tx *gorm.DB) error {
			return tx.Migrator().DropColumn(&models.Profile{}, "LastConnectedAt")
		},
	}
}
