package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// LoginRecord is one successful signin.
type LoginRecord struct {
	ID        string        `gorm:"type:uuid;primaryKey" bson:"_id" json:"id"`
	AccountID string        `gorm:"type:uuid;not null;index" bson:"account_id" json:"accountId"`
	Email     string        `gorm:"type:text;not null" bson:"email" json:"email"`
	FullName  string        `gorm:"type:text;not null" bson:"full_name" json:"fullName"`
	LoginTime time.Time     `gorm:"not null;index" bson:"login_time" json:"loginTime"`
	Metadata  LoginMetadata `gorm:"type:jsonb" bson:"metadata,omitempty" json:"metadata,omitempty"`
}

func (LoginRecord) TableName() string {
	return "login_history"
}

// Metadata keys recorded with a login.
const (
	LoginMetaRemoteAddr = "remote_addr"
	LoginMetaUserAgent  = "user_agent"
)

// LoginMetadata is stored as jsonb in Postgres and as a sub-document elsewhere.
type LoginMetadata map[string]string

func (m LoginMetadata) Value() (driver.Value, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *LoginMetadata) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("login metadata: unsupported column type %T", src)
	}

	decoded := LoginMetadata{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("login metadata: %w", err)
	}
	*m = decoded
	return nil
}
