// Package models defines the GORM models persisted by elitewave.
package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// ULID is a sortable row identifier stored as its 26 character string.
// The zero value means "not assigned yet".
type ULID ulid.ULID

// NewULID returns a fresh identifier.
func NewULID() ULID { return ULID(ulid.Make()) }

// ParseULID parses the canonical string form.
func ParseULID(s string) (ULID, error) {
	id, err := ulid.ParseStrict(s)
	if err != nil {
		return ULID{}, fmt.Errorf("invalid ULID %q: %w", s, err)
	}
	return ULID(id), nil
}

// MustParseULID is ParseULID for constants in tests and fixtures.
func MustParseULID(s string) ULID {
	id, err := ParseULID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (u ULID) String() string { return ulid.ULID(u).String() }

// IsZero reports whether u is unassigned.
func (u ULID) IsZero() bool { return u == ULID{} }

// Value stores unassigned ids as NULL.
func (u ULID) Value() (driver.Value, error) {
	if u.IsZero() {
		return nil, nil
	}
	return u.String(), nil
}

// Scan accepts NULL, string and []byte columns.
func (u *ULID) Scan(value any) error {
	var s string
	switch v := value.(type) {
	case nil:
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into ULID", value)
	}
	return u.set(s)
}

// MarshalText encodes unassigned ids as the empty string.
func (u ULID) MarshalText() ([]byte, error) {
	if u.IsZero() {
		return []byte{}, nil
	}
	return []byte(u.String()), nil
}

// UnmarshalText accepts the canonical form or the empty string.
func (u *ULID) UnmarshalText(text []byte) error {
	return u.set(string(text))
}

func (u *ULID) set(s string) error {
	if s == "" {
		*u = ULID{}
		return nil
	}
	id, err := ParseULID(s)
	if err != nil {
		return err
	}
	*u = id
	return nil
}

// GormDataType sizes the column for the string form.
func (ULID) GormDataType() string { return "varchar(26)" }

// BaseModel is embedded by every persisted model. Rows are hard deleted.
type BaseModel struct {
	ID        ULID      `gorm:"primaryKey;type:varchar(26)" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns an id to rows created without one.
func (b *BaseModel) BeforeCreate(*gorm.DB) error {
	if b.ID.IsZero() {
		b.ID = NewULID()
	}
	return nil
}

// Now is the timestamp written to time columns: UTC at microsecond
// precision, which every supported driver stores without rounding.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
