package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"match-integrity-system/models"
)

type memoryMatch struct {
	record  *models.MatchRecord
	source  string
	sealed  bool
	reports []*models.ValidationReport
	seals   []SealEntry
}

// MemoryMatchStore is a MatchStore for tests and for running without a database.
type MemoryMatchStore struct {
	mu            sync.RWMutex
	matches       map[string]*memoryMatch
	order         []string
	verifications []models.StoredVerification
}

func NewMemoryMatchStore() *MemoryMatchStore {
	return &MemoryMatchStore{matches: map[string]*memoryMatch{}}
}

func (s *MemoryMatchStore) SaveMatch(_ context.Context, rec *models.MatchRecord, source, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.matches[rec.MatchID]; ok {
		return fmt.Errorf("%w: %s", ErrMatchExists, rec.MatchID)
	}
	s.matches[rec.MatchID] = &memoryMatch{record: rec.Clone(), source: source}
	s.order = append(s.order, rec.MatchID)
	return nil
}

func (s *MemoryMatchStore) get(matchID string) (*memoryMatch, error) {
	m, ok := s.matches[matchID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	return m, nil
}

func (s *MemoryMatchStore) GetMatch(_ context.Context, matchID string) (*models.MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, err := s.get(matchID)
	if err != nil {
		return nil, err
	}
	return m.record.Clone(), nil
}

func (s *MemoryMatchStore) SaveReport(_ context.Context, report *models.ValidationReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.get(report.MatchID)
	if err != nil {
		return err
	}
	cp := *report
	m.reports = append(m.reports, &cp)
	return nil
}

func (s *MemoryMatchStore) LatestReport(_ context.Context, matchID string) (*models.ValidationReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, err := s.get(matchID)
	if err != nil {
		return nil, err
	}
	if len(m.reports) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoReport, matchID)
	}
	cp := *m.reports[len(m.reports)-1]
	return &cp, nil
}

func (s *MemoryMatchStore) SaveSeal(_ context.Context, sl *models.Seal) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.get(sl.MatchID)
	if err != nil {
		return "", err
	}
	entry := SealEntry{ID: uuid.New().String(), Seal: copySeal(sl)}
	m.seals = append(m.seals, entry)
	m.sealed = true
	return entry.ID, nil
}

func (s *MemoryMatchStore) LatestSeal(_ context.Context, matchID string) (*SealEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, err := s.get(matchID)
	if err != nil {
		return nil, err
	}
	if len(m.seals) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSeal, matchID)
	}
	last := m.seals[len(m.seals)-1]
	return &SealEntry{ID: last.ID, Seal: copySeal(last.Seal)}, nil
}

func (s *MemoryMatchStore) SaveVerification(_ context.Context, sealID string, res models.VerifyResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verifications = append(s.verifications, models.StoredVerification{
		ID:               uuid.New().String(),
		MatchID:          res.MatchID,
		SealID:           sealID,
		Valid:            res.Valid,
		MismatchedFields: strings.Join(res.MismatchedFields, ","),
		Reason:           res.Reason,
	})
	return nil
}

// Verifications returns every verification row written so far.
func (s *MemoryMatchStore) Verifications() []models.StoredVerification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.StoredVerification(nil), s.verifications...)
}

func (s *MemoryMatchStore) UnsealedMatches(_ context.Context, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for _, id := range s.order {
		if limit > 0 && len(ids) >= limit {
			break
		}
		if !s.matches[id].sealed {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *MemoryMatchStore) SealedMatches(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for _, id := range s.order {
		if s.matches[id].sealed {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func copySeal(sl *models.Seal) *models.Seal {
	cp := *sl
	if sl.FieldHashes != nil {
		cp.FieldHashes = make(map[string]string, len(sl.FieldHashes))
		for k, v := range sl.FieldHashes {
			cp.FieldHashes[k] = v
		}
	}
	return &cp
}
