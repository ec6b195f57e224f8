package auth

import (
	"errors"

	"github.com/synstt/sttpanel/pkg/sttpanel/models"
	"gorm.io/gorm"
)

// EnsureDefaultAdmin creates the configured bootstrap admin if no
// admin with that email exists. It is idempotent and safe to run on
// every startup: an existing admin is never overwritten, even if the
// configured password differs, and the unique index on admins.email
// keeps concurrent process starts from seeding twice.
func EnsureDefaultAdmin(db *gorm.DB, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	var existing models.Admin
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	admin := models.Admin{
		Email:        email,
		PasswordHash: hash,
	}
	if err := db.Create(&admin).Error; err != nil {
		// Another process may have seeded between the lookup and the
		// insert; the unique index turns that into a create error.
		if db.Where("email = ?", email).First(&existing).Error == nil {
			return nil
		}
		return err
	}

	return nil
}
