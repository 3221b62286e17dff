package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Project is a full catalog record.
type Project struct {
	ID               int64      `json:"id" db:"id"`
	Name             string     `json:"name" db:"name"`
	City             string     `json:"city" db:"city"`
	Country          string     `json:"country" db:"country"`
	DeveloperName    string     `json:"developer_name,omitempty" db:"developer_name"`
	Bedrooms         *int       `json:"no_of_bedrooms,omitempty" db:"no_of_bedrooms"`
	Bathrooms        *int       `json:"bathrooms,omitempty" db:"bathrooms"`
	UnitType         string     `json:"unit_type,omitempty" db:"unit_type"`
	CompletionStatus string     `json:"completion_status,omitempty" db:"completion_status"` // off_plan / available / completed
	PriceUSD         *float64   `json:"price_usd,omitempty" db:"price_usd"`
	AreaSqm          *float64   `json:"area_sqm,omitempty" db:"area_sqm"`
	PropertyType     string     `json:"property_type,omitempty" db:"property_type"`
	CompletionDate   *time.Time `json:"completion_date,omitempty" db:"completion_date"`
	Features         string     `json:"features,omitempty" db:"features"`
	Facilities       string     `json:"facilities,omitempty" db:"facilities"`
	Description      string     `json:"description,omitempty" db:"description"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// Lead is a captured buyer contact.
type Lead struct {
	ID          int64     `json:"id" db:"id"`
	FirstName   string    `json:"first_name" db:"first_name"`
	LastName    string    `json:"last_name,omitempty" db:"last_name"`
	Email       string    `json:"email" db:"email"`
	Phone       string    `json:"phone,omitempty" db:"phone"`
	Preferences JSONMap   `json:"preferences,omitempty" db:"preferences"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Booking statuses.
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
)

// Booking is a visit request linking a lead to a project.
type Booking struct {
	ID        int64     `json:"id" db:"id"`
	LeadID    int64     `json:"lead_id" db:"lead_id"`
	ProjectID int64     `json:"project_id" db:"project_id"`
	City      string    `json:"city" db:"city"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// Populated by the repository on create for confirmation messages,
	// not persisted columns.
	Lead    Lead    `json:"lead" db:"-"`
	Project Project `json:"project" db:"-"`
}

// JSONMap represents a JSONB object column.
type JSONMap map[string]interface{}

// Value implements driver.Valuer.
func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner.
func (j *JSONMap) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = nil
		return nil
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return fmt.Errorf("cannot scan %T into JSONMap", value)
	}
}
