package entity

import (
	"time"
)

// Placeholders stored in place of optional fields the creator left out.
const (
	DefaultUnknown        = "--"
	DefaultMedicalHistory = "None recorded"
	DefaultAllergies      = "No known allergies"
	DefaultMedicines      = "None"
)

// EmergencyProfile is the publicly readable record behind a QR code.
type EmergencyProfile struct {
	ID                 string    `gorm:"type:text;primaryKey" bson:"_id" json:"id"`
	OwnerAccountID     string    `gorm:"type:text;index" bson:"owner_account_id,omitempty" json:"ownerAccountId,omitempty"`
	FullName           string    `gorm:"type:text;not null" bson:"full_name" json:"fullName"`
	Age                string    `gorm:"type:text;not null" bson:"age" json:"age"`
	BloodType          string    `gorm:"type:text;not null" bson:"blood_type" json:"bloodType"`
	ContactNo          string    `gorm:"type:text;not null" bson:"contact_no" json:"contactNo"`
	AlternateContactNo string    `gorm:"type:text;not null" bson:"alternate_contact_no" json:"alternateContactNo"`
	PermanentAddress   string    `gorm:"type:text;not null" bson:"permanent_address" json:"permanentAddress"`
	MedicalHistory     string    `gorm:"type:text;not null" bson:"medical_history" json:"medicalHistory"`
	Allergies          string    `gorm:"type:text;not null" bson:"allergies" json:"allergies"`
	Medicines          string    `gorm:"type:text;not null" bson:"medicines" json:"medicines"`
	EmergencyContact   string    `gorm:"type:text;not null" bson:"emergency_contact" json:"emergencyContact"`
	CreatedAt          time.Time `gorm:"not null" bson:"created_at" json:"createdAt"`
}

func (EmergencyProfile) TableName() string {
	return "emergency_profiles"
}
