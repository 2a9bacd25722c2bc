package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"match-integrity-system/models"
)

var (
	ErrMatchNotFound = errors.New("match not found")
	ErrMatchExists   = errors.New("match already stored")
	ErrNoSeal        = errors.New("match has no seal")
	ErrNoReport      = errors.New("match has no validation report")
)

// SealEntry is a stored seal with the id verification rows refer to.
type SealEntry struct {
	ID   string
	Seal *models.Seal
}

// MatchStore persists the artifacts of a match. Records are written once;
// reports, seals and verification results are appended, never edited.
type MatchStore interface {
	SaveMatch(ctx context.Context, rec *models.MatchRecord, source, submittedBy string) error
	GetMatch(ctx context.Context, matchID string) (*models.MatchRecord, error)
	SaveReport(ctx context.Context, report *models.ValidationReport) error
	LatestReport(ctx context.Context, matchID string) (*models.ValidationReport, error)
	SaveSeal(ctx context.Context, s *models.Seal) (string, error)
	LatestSeal(ctx context.Context, matchID string) (*SealEntry, error)
	SaveVerification(ctx context.Context, sealID string, res models.VerifyResult) error
	UnsealedMatches(ctx context.Context, limit int) ([]string, error)
	SealedMatches(ctx context.Context) ([]string, error)
}

// GormMatchStore keeps match artifacts in postgres.
type GormMatchStore struct {
	DB *gorm.DB
}

func NewGormMatchStore(db *gorm.DB) *GormMatchStore {
	return &GormMatchStore{DB: db}
}

// AutoMigrate creates the match artifact tables.
func (s *GormMatchStore) AutoMigrate() error {
	return s.DB.AutoMigrate(
		&models.StoredMatch{},
		&models.StoredReport{},
		&models.StoredSeal{},
		&models.StoredVerification{},
	)
}

func (s *GormMatchStore) SaveMatch(ctx context.Context, rec *models.MatchRecord, source, submittedBy string) error {
	data, err := models.EncodeRecord(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", rec.MatchID, err)
	}
	row := models.StoredMatch{
		ID:            uuid.New().String(),
		MatchID:       rec.MatchID,
		HomeTeamID:    rec.HomeTeamID,
		AwayTeamID:    rec.AwayTeamID,
		HomeScore:     rec.FinalScore.Home,
		AwayScore:     rec.FinalScore.Away,
		DurationTicks: rec.DurationTicks,
		Aborted:       rec.Aborted,
		Source:        source,
		SubmittedBy:   submittedBy,
		RecordJSON:    string(data),
	}
	res := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "match_id"}},
		DoNothing: true,
	}).Create(&row)
	if res.Error != nil {
		return fmt.Errorf("failed to store match %s: %w", rec.MatchID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrMatchExists, rec.MatchID)
	}
	return nil
}

func (s *GormMatchStore) GetMatch(ctx context.Context, matchID string) (*models.MatchRecord, error) {
	var row models.StoredMatch
	if err := s.DB.WithContext(ctx).Where("match_id = ?", matchID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
		}
		return nil, fmt.Errorf("failed to load match %s: %w", matchID, err)
	}
	return models.DecodeRecord([]byte(row.RecordJSON))
}

func (s *GormMatchStore) SaveReport(ctx context.Context, report *models.ValidationReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	row := models.StoredReport{
		ID:         report.ReportID,
		MatchID:    report.MatchID,
		TrustScore: report.TrustScore,
		Verdict:    string(report.Verdict),
		ReportJSON: string(data),
	}
	if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to store report for %s: %w", report.MatchID, err)
	}
	return nil
}

func (s *GormMatchStore) LatestReport(ctx context.Context, matchID string) (*models.ValidationReport, error) {
	var row models.StoredReport
	if err := s.DB.WithContext(ctx).Where("match_id = ?", matchID).Order("created_at DESC").First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNoReport, matchID)
		}
		return nil, fmt.Errorf("failed to load report for %s: %w", matchID, err)
	}
	var report models.ValidationReport
	if err := json.Unmarshal([]byte(row.ReportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", row.ID, err)
	}
	return &report, nil
}

// SaveSeal appends the seal and flags the match as sealed in one transaction.
func (s *GormMatchStore) SaveSeal(ctx context.Context, sl *models.Seal) (string, error) {
	data, err := json.Marshal(sl)
	if err != nil {
		return "", fmt.Errorf("failed to encode seal: %w", err)
	}
	row := models.StoredSeal{
		ID:             uuid.New().String(),
		MatchID:        sl.MatchID,
		Algorithm:      sl.Algorithm,
		ResultHash:     sl.ResultHash,
		FullRecordHash: sl.FullRecordHash,
		SealJSON:       string(data),
		SealedAtMs:     sl.SealedAtMs,
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return tx.Model(&models.StoredMatch{}).Where("match_id = ?", sl.MatchID).Update("sealed", true).Error
	})
	if err != nil {
		return "", fmt.Errorf("failed to store seal for %s: %w", sl.MatchID, err)
	}
	return row.ID, nil
}

func (s *GormMatchStore) LatestSeal(ctx context.Context, matchID string) (*SealEntry, error) {
	var row models.StoredSeal
	if err := s.DB.WithContext(ctx).Where("match_id = ?", matchID).Order("created_at DESC").First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNoSeal, matchID)
		}
		return nil, fmt.Errorf("failed to load seal for %s: %w", matchID, err)
	}
	var sl models.Seal
	if err := json.Unmarshal([]byte(row.SealJSON), &sl); err != nil {
		return nil, fmt.Errorf("failed to decode seal %s: %w", row.ID, err)
	}
	return &SealEntry{ID: row.ID, Seal: &sl}, nil
}

func (s *GormMatchStore) SaveVerification(ctx context.Context, sealID string, res models.VerifyResult) error {
	row := models.StoredVerification{
		ID:               uuid.New().String(),
		MatchID:          res.MatchID,
		SealID:           sealID,
		Valid:            res.Valid,
		MismatchedFields: strings.Join(res.MismatchedFields, ","),
		Reason:           res.Reason,
	}
	if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to store verification for %s: %w", res.MatchID, err)
	}
	return nil
}

func (s *GormMatchStore) UnsealedMatches(ctx context.Context, limit int) ([]string, error) {
	var ids []string
	q := s.DB.WithContext(ctx).Model(&models.StoredMatch{}).
		Where("sealed = ?", false).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Pluck("match_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list unsealed matches: %w", err)
	}
	return ids, nil
}

func (s *GormMatchStore) SealedMatches(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.DB.WithContext(ctx).Model(&models.StoredMatch{}).
		Where("sealed = ?", true).
		Order("created_at ASC").
		Pluck("match_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sealed matches: %w", err)
	}
	return ids, nil
}
