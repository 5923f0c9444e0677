package converter

import (
	"rescue-id/internal/delivery/dto"
	"rescue-id/internal/domain/entity"
)

// AccountToResponse never copies the password hash.
func AccountToResponse(account *entity.Account) *dto.AccountResponse {
	if account == nil {
		return nil
	}

	return &dto.AccountResponse{
		UserID:   account.ID,
		FullName: account.FullName,
		Email:    account.Email,
	}
}

func LoginRecordsToResponse(records []entity.LoginRecord) []dto.LoginRecordResponse {
	responses := make([]dto.LoginRecordResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, dto.LoginRecordResponse{
			ID:         record.ID,
			Email:      record.Email,
			FullName:   record.FullName,
			LoginTime:  record.LoginTime,
			RemoteAddr: record.Metadata[entity.LoginMetaRemoteAddr],
			UserAgent:  record.Metadata[entity.LoginMetaUserAgent],
		})
	}
	return responses
}
