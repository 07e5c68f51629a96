package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PosSettings holds a user's external POS configuration. Credentials are an
// opaque map interpreted only by the matching adapter. A user with no
// settings row simply has the relay disabled.
type PosSettings struct {
	ID          uuid.UUID                             `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID      uuid.UUID                             `gorm:"type:uuid;uniqueIndex;not null"`
	SystemID    string                                `gorm:"type:varchar(30);not null"`
	Credentials datatypes.JSONType[map[string]string] `gorm:"type:jsonb"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
