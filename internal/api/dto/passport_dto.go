package dto

import (
	"encoding/json"
	"time"

	"github.com/spec-kit/skilllink-support/internal/domain"
)

// MintRequest payload.
type MintRequest struct {
	UserID   string          `json:"userId"`
	Metadata json.RawMessage `json:"metadata"`
}

// MintResultResponse reports a submitted mint transaction.
type MintResultResponse struct {
	TransactionHash string `json:"transactionHash"`
	ValidUntilBlock uint32 `json:"validUntilBlock"`
	ContractHash    string `json:"contractHash"`
	Recipient       string `json:"recipient"`
	RecordID        string `json:"recordId,omitempty"`
}

// ProfileResponse mirrors the hosted profile row.
type ProfileResponse struct {
	ID            string    `json:"id"`
	FullName      *string   `json:"full_name"`
	Email         *string   `json:"email"`
	Role          *string   `json:"role"`
	WalletAddress *string   `json:"wallet_address"`
	Skills        []string  `json:"skills"`
	CreatedAt     time.Time `json:"created_at"`
}

// PassportResponse is a stored mint record.
type PassportResponse struct {
	ID              string          `json:"id"`
	WalletAddress   string          `json:"wallet_address"`
	Metadata        json.RawMessage `json:"metadata"`
	TransactionHash string          `json:"transaction_hash"`
	CreatedAt       time.Time       `json:"created_at"`
}

// StatsResponse carries admin dashboard counters.
type StatsResponse struct {
	Users        int64 `json:"users"`
	Certificates int64 `json:"certificates"`
}

func NewMintResultResponse(mint *domain.MintResult, record *domain.PassportRecord) MintResultResponse {
	resp := MintResultResponse{
		TransactionHash: mint.TransactionHash,
		ValidUntilBlock: mint.ValidUntilBlock,
		ContractHash:    mint.ContractHash,
		Recipient:       mint.RecipientAddress,
	}
	if record != nil {
		resp.RecordID = record.ID
	}
	return resp
}

func NewProfileResponse(p *domain.Profile) ProfileResponse {
	skills := p.Skills
	if skills == nil {
		skills = []string{}
	}
	return ProfileResponse{
		ID:            p.ID,
		FullName:      p.FullName,
		Email:         p.Email,
		Role:          p.Role,
		WalletAddress: p.WalletAddress,
		Skills:        skills,
		CreatedAt:     p.CreatedAt,
	}
}

func NewProfileResponses(profiles []domain.Profile) []ProfileResponse {
	resp := make([]ProfileResponse, 0, len(profiles))
	for i := range profiles {
		resp = append(resp, NewProfileResponse(&profiles[i]))
	}
	return resp
}

func NewPassportResponses(records []domain.PassportRecord) []PassportResponse {
	resp := make([]PassportResponse, 0, len(records))
	for _, r := range records {
		resp = append(resp, PassportResponse{
			ID:              r.ID,
			WalletAddress:   r.WalletAddress,
			Metadata:        r.Metadata,
			TransactionHash: r.TransactionHash,
			CreatedAt:       r.CreatedAt,
		})
	}
	return resp
}
