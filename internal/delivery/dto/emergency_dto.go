package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// FlexString accepts a JSON string or number; forms send age either way.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return err
	}
	*s = FlexString(n.String())
	return nil
}

// Request DTOs

type CreateEmergencyProfileRequest struct {
	UserID             string     `json:"userId"`
	FullName           string     `json:"fullName" validate:"required"`
	Age                FlexString `json:"age"`
	BloodType          string     `json:"bloodType" validate:"required"`
	ContactNo          string     `json:"contactNo"`
	AlternateContactNo string     `json:"alternateContactNo"`
	PermanentAddress   string     `json:"permanentAddress"`
	MedicalHistory     string     `json:"medicalHistory"`
	Allergies          string     `json:"allergies"`
	Medicines          string     `json:"medicines"`
	EmergencyContact   string     `json:"emergencyContact"`
}

type GenerateQRRequest struct {
	EmergencyID string `json:"emergencyID"`
}

// Response DTOs

type CreatedEmergencyProfileResponse struct {
	Success     bool   `json:"success"`
	EmergencyID string `json:"emergencyID"`
	FullName    string `json:"fullName"`
	BloodType   string `json:"bloodType"`
	Message     string `json:"message"`
}

// EmergencyProfileResponse is the public view of a profile; the owner is not exposed.
type EmergencyProfileResponse struct {
	Success            bool      `json:"success"`
	ID                 string    `json:"id"`
	FullName           string    `json:"fullName"`
	Age                string    `json:"age"`
	BloodType          string    `json:"bloodType"`
	ContactNo          string    `json:"contactNo"`
	AlternateContactNo string    `json:"alternateContactNo"`
	PermanentAddress   string    `json:"permanentAddress"`
	MedicalHistory     string    `json:"medicalHistory"`
	Allergies          string    `json:"allergies"`
	Medicines          string    `json:"medicines"`
	EmergencyContact   string    `json:"emergencyContact"`
	CreatedAt          time.Time `json:"createdAt"`
}

type QRCodeResponse struct {
	Success     bool   `json:"success"`
	EmergencyID string `json:"emergencyID"`
	QRURL       string `json:"qrUrl"`
	QRAPIURL    string `json:"qrApiUrl"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}
