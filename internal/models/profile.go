package models

import (
	"strings"
	"time"

	"github.com/digitallive06-cyber/Elite-wave-GO/internal/urlutil"
)

// Profile is a saved Xtream panel account.
type Profile struct {
	BaseModel

	Name      string `gorm:"uniqueIndex;not null;size:255" json:"name"`
	ServerURL string `gorm:"not null;size:2048" json:"server_url"`
	Username  string `gorm:"not null;size:255" json:"username"`
	Password  string `gorm:"not null;size:255" json:"-" masq:"secret"`

	// LastConnectedAt is set each time the credentials are accepted.
	LastConnectedAt *time.Time `json:"last_connected_at,omitempty"`
}

// TableName returns the table name for profiles.
func (Profile) TableName() string {
	return "profiles"
}

// Normalize trims input fields and canonicalises the server URL.
func (p *Profile) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Username = strings.TrimSpace(p.Username)
	p.ServerURL = urlutil.NormalizeBaseURL(p.ServerURL)
}

// Validate checks the profile. The returned error is an ErrValidation.
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrValidation{Field: "name", Message: ErrNameRequired.Error()}
	}
	if strings.TrimSpace(p.ServerURL) == "" {
		return ErrValidation{Field: "server_url", Message: ErrURLRequired.Error()}
	}
	if err := urlutil.ValidateURL(p.ServerURL); err != nil {
		return ErrValidation{Field: "server_url", Message: ErrInvalidURL.Error() + ": " + err.Error()}
	}
	if p.Username == "" || p.Password == "" {
		return ErrValidation{Field: "credentials", Message: ErrCredentialsRequired.Error()}
	}
	return nil
}
