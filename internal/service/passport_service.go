package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/spec-kit/skilllink-support/internal/chain"
	"github.com/spec-kit/skilllink-support/internal/domain"
	"github.com/spec-kit/skilllink-support/internal/observability"
	"github.com/spec-kit/skilllink-support/internal/repository"
	apperrors "github.com/spec-kit/skilllink-support/pkg/errorutil"
)

// StudentListLimit caps the recruiter student listing.
const StudentListLimit = 200

// PassportMinter submits a passport mint to the chain.
type PassportMinter interface {
	Mint(ctx context.Context, to string, metadata json.RawMessage) (*domain.MintResult, error)
}

// PassportService validates mint requests and forwards them to the minter.
type PassportService struct {
	profiles  repository.ProfileRepository
	passports repository.PassportRepository
	minter    PassportMinter
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// PassportDependencies bundles collaborators for the passport service.
type PassportDependencies struct {
	ProfileRepo  repository.ProfileRepository
	PassportRepo repository.PassportRepository
	Minter       PassportMinter
	Metrics      *observability.Metrics
	Logger       *zap.Logger
}

// MintOutcome is the minted transaction plus the stored record, when stored.
type MintOutcome struct {
	Mint   *domain.MintResult
	Record *domain.PassportRecord
}

// NewPassportService constructs the service.
func NewPassportService(deps PassportDependencies) *PassportService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PassportService{
		profiles:  deps.ProfileRepo,
		passports: deps.PassportRepo,
		minter:    deps.Minter,
		metrics:   deps.Metrics,
		logger:    logger,
	}
}

// Mint checks the request and the user's wallet before anything reaches the chain.
func (s *PassportService) Mint(ctx context.Context, userID string, metadata json.RawMessage) (*MintOutcome, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" || len(strings.TrimSpace(string(metadata))) == 0 || string(metadata) == "null" {
		return nil, apperrors.NewValidationError("userId and metadata required", nil)
	}
	if err := validateMetadata(metadata); err != nil {
		return nil, err
	}

	profile, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	wallet := profile.Wallet()
	if strings.TrimSpace(wallet) == "" {
		return nil, apperrors.NewMissingWallet(userID)
	}

	compact, err := compactJSON(metadata)
	if err != nil {
		return nil, apperrors.NewValidationError("metadata must be valid JSON", nil)
	}

	result, err := s.minter.Mint(ctx, wallet, compact)
	s.metrics.RecordMint(err)
	if err != nil {
		if errors.Is(err, chain.ErrInvalidRecipient) {
			return nil, apperrors.NewValidationError("User wallet address is invalid", map[string]any{"user_id": userID})
		}
		return nil, apperrors.NewInternalError(fmt.Errorf("mint passport: %w", err))
	}

	outcome := &MintOutcome{Mint: result}
	if s.passports == nil {
		return outcome, nil
	}

	record := &domain.PassportRecord{
		UserID:          userID,
		WalletAddress:   wallet,
		Metadata:        compact,
		TransactionHash: result.TransactionHash,
	}
	// The transaction is already on its way; a failed insert must not invite a second mint.
	if err := s.passports.Create(ctx, record); err != nil {
		s.logger.Error("passport record not stored",
			zap.String("user_id", userID),
			zap.String("tx_hash", result.TransactionHash),
			zap.Error(err))
		return outcome, nil
	}
	outcome.Record = record
	return outcome, nil
}

func validateMetadata(metadata json.RawMessage) error {
	if !gjson.ValidBytes(metadata) {
		return apperrors.NewValidationError("metadata must be valid JSON", nil)
	}
	parsed := gjson.ParseBytes(metadata)
	if !parsed.IsObject() {
		return apperrors.NewValidationError("metadata must be a JSON object", nil)
	}
	name := parsed.Get("name")
	if name.Type != gjson.String || strings.TrimSpace(name.Str) == "" {
		return apperrors.NewValidationError("metadata.name required", map[string]any{"field": "metadata.name"})
	}
	return nil
}

func compactJSON(raw json.RawMessage) (json.RawMessage, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// Profile returns a profile by id.
func (s *PassportService) Profile(ctx context.Context, userID string) (*domain.Profile, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, apperrors.NewNotFound("User", map[string]any{"user_id": userID})
	}
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, apperrors.NewNotFound("User", map[string]any{"user_id": userID})
		}
		return nil, apperrors.NewInternalError(fmt.Errorf("load profile: %w", err))
	}
	return profile, nil
}

// Passports lists the passports minted for a user.
func (s *PassportService) Passports(ctx context.Context, userID string) ([]domain.PassportRecord, error) {
	if _, err := s.Profile(ctx, userID); err != nil {
		return nil, err
	}
	records, err := s.passports.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("list passports: %w", err))
	}
	return records, nil
}

// Students lists up to StudentListLimit profiles.
func (s *PassportService) Students(ctx context.Context) ([]domain.Profile, error) {
	profiles, err := s.profiles.List(ctx, StudentListLimit)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("list students: %w", err))
	}
	return profiles, nil
}

// PlatformStats counts users and certificates.
func (s *PassportService) PlatformStats(ctx context.Context) (*domain.PlatformStats, error) {
	users, err := s.profiles.CountUsers(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("count users: %w", err))
	}
	certificates, err := s.profiles.CountCertificates(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("count certificates: %w", err))
	}
	return &domain.PlatformStats{Users: users, Certificates: certificates}, nil
}
