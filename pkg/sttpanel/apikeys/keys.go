package apikeys

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/synstt/sttpanel/pkg/sttpanel/models"
	"gorm.io/gorm"
)

const (
	// KeyProductPrefix is the fixed leading part of every issued key
	KeyProductPrefix = "syn-stt"
	// keyRandomBytes is the entropy of the random part (32 bytes = 64 hex chars)
	keyRandomBytes = 32
	// KeyPrefixLength is the number of leading characters stored for display
	KeyPrefixLength = 10
)

// GenerateKey creates a new API key. It returns the plaintext (shown
// to the operator exactly once), the display prefix and the hash that
// gets persisted.
func GenerateKey() (plaintext, prefix, hash string, err error) {
	buf := make([]byte, keyRandomBytes)
	if _, err = rand.Read(buf); err != nil {
		return "", "", "", err
	}
	plaintext = KeyProductPrefix + "-" + hex.EncodeToString(buf)
	return plaintext, plaintext[:KeyPrefixLength], HashKey(plaintext), nil
}

// HashKey creates a SHA-256 hash of the full plaintext key
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Verify looks up a plaintext key by its hash and returns the record
// when the key is active and belongs to a non-deleted user. This is
// the check the transcription service runs for every request.
func Verify(db *gorm.DB, plaintext string) (*models.APIKey, error) {
	var key models.APIKey
	err := db.
		Joins("JOIN users ON users.id = api_keys.user_id AND users.deleted_at IS NULL").
		Where("api_keys.key_hash = ? AND api_keys.is_active = ?", HashKey(plaintext), true).
		First(&key).Error
	if err != nil {
		return nil, err
	}
	return &key, nil
}

// UpdateLastUsed bumps the last_used_at timestamp for a key
func UpdateLastUsed(db *gorm.DB, keyID string) error {
	return db.Model(&models.APIKey{}).Where("id = ?", keyID).Update("last_used_at", time.Now()).Error
}
