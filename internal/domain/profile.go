package domain

import (
	"encoding/json"
	"time"
)

// Profile is a student, recruiter or admin stored in the hosted database.
type Profile struct {
	ID            string
	FullName      *string
	Email         *string
	Role          *string
	WalletAddress *string
	Skills        []string
	CreatedAt     time.Time
}

// Wallet returns the profile wallet address or an empty string.
func (p *Profile) Wallet() string {
	if p == nil || p.WalletAddress == nil {
		return ""
	}
	return *p.WalletAddress
}

// PassportRecord persists a minted skill passport.
type PassportRecord struct {
	ID              string
	UserID          string
	WalletAddress   string
	Metadata        json.RawMessage
	TransactionHash string
	CreatedAt       time.Time
}

// MintResult is what the minter reports for a submitted mint.
type MintResult struct {
	TransactionHash  string
	ValidUntilBlock  uint32
	ContractHash     string
	RecipientAddress string
}

// PlatformStats aggregates admin dashboard counters.
type PlatformStats struct {
	Users        int64
	Certificates int64
}
