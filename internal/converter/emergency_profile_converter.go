package converter

import (
	"rescue-id/internal/delivery/dto"
	"rescue-id/internal/domain/entity"
)

func EmergencyProfileToResponse(profile *entity.EmergencyProfile) *dto.EmergencyProfileResponse {
	if profile == nil {
		return nil
	}

	return &dto.EmergencyProfileResponse{
		Success:            true,
		ID:                 profile.ID,
		FullName:           profile.FullName,
		Age:                profile.Age,
		BloodType:          profile.BloodType,
		ContactNo:          profile.ContactNo,
		AlternateContactNo: profile.AlternateContactNo,
		PermanentAddress:   profile.PermanentAddress,
		MedicalHistory:     profile.MedicalHistory,
		Allergies:          profile.Allergies,
		Medicines:          profile.Medicines,
		EmergencyContact:   profile.EmergencyContact,
		CreatedAt:          profile.CreatedAt,
	}
}

func EmergencyProfileToCreatedResponse(profile *entity.EmergencyProfile) *dto.CreatedEmergencyProfileResponse {
	if profile == nil {
		return nil
	}

	return &dto.CreatedEmergencyProfileResponse{
		Success:     true,
		EmergencyID: profile.ID,
		FullName:    profile.FullName,
		BloodType:   profile.BloodType,
		Message:     "Emergency profile created",
	}
}
