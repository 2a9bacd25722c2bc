package services

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/sync/errgroup"

	"match-integrity-system/engine"
	"match-integrity-system/fairness"
	"match-integrity-system/metrics"
	"match-integrity-system/models"
	"match-integrity-system/seal"
)

// ReproductionError is an imported record that the simulator does not
// reproduce from its own setup and input log.
type ReproductionError struct {
	MatchID string
	Fields  []string
}

func (e *ReproductionError) Error() string {
	return fmt.Sprintf("record %s does not replay to the same result (fields: %s)", e.MatchID, strings.Join(e.Fields, ", "))
}

// SimulateRequest is a match to run from scratch against a scripted input log.
type SimulateRequest struct {
	MatchID       string               `json:"matchId,omitempty"`
	Home          models.Team          `json:"home"`
	Away          models.Team          `json:"away"`
	Seed          *uint64              `json:"seed,omitempty"`
	DurationTicks uint64               `json:"durationTicks"`
	Difficulty    string               `json:"difficulty,omitempty"`
	Inputs        []models.PlayerInput `json:"inputs"`
}

// MatchOutcome is everything produced for one accepted record.
type MatchOutcome struct {
	Record *models.MatchRecord      `json:"record"`
	Report *models.ValidationReport `json:"report"`
	Seal   *models.Seal             `json:"seal,omitempty"`
	Proof  string                   `json:"proof,omitempty"`
}

// ProofCheck is the answer to "does this proof string hold?".
type ProofCheck struct {
	Proof   *models.PartialSeal  `json:"proof"`
	Matches bool                 `json:"matches"`
	Verify  *models.VerifyResult `json:"verify,omitempty"`
}

// ReverifySummary counts the outcome of a re-verification sweep.
type ReverifySummary struct {
	Checked int64 `json:"checked"`
	Valid   int64 `json:"valid"`
	Invalid int64 `json:"invalid"`
	Errors  int64 `json:"errors"`
}

// MatchService ties the simulator, validator and sealer to storage.
type MatchService struct {
	Store     MatchStore
	Sim       *engine.Simulator
	Validator *fairness.Validator
	Sealer    *seal.Sealer
	Metrics   *metrics.Metrics
	Seen      *SeenFilter
	Archiver  *RecordArchiver // nil disables archiving

	ReverifyConcurrency int
}

func NewMatchService(store MatchStore, sim *engine.Simulator, validator *fairness.Validator, sealer *seal.Sealer, m *metrics.Metrics) *MatchService {
	return &MatchService{
		Store:               store,
		Sim:                 sim,
		Validator:           validator,
		Sealer:              sealer,
		Metrics:             m,
		Seen:                NewSeenFilter(0),
		ReverifyConcurrency: 8,
	}
}

// NewMatchID builds "<home>-vs-<away>-<8 hex>".
func NewMatchID(homeID, awayID string) string {
	return fmt.Sprintf("%s-%s", slug.Make(homeID+" vs "+awayID), uuid.New().String()[:8])
}

// RandomSeed is used when a request does not pin one.
func RandomSeed() uint64 {
	id := uuid.New()
	return binary.BigEndian.Uint64(id[:8])
}

// Simulate runs a match from a setup and a scripted input log, then
// validates, stores and seals the record.
func (s *MatchService) Simulate(ctx context.Context, req SimulateRequest, submittedBy string) (*MatchOutcome, error) {
	if err := models.CheckInputs(req.Inputs); err != nil {
		return nil, err
	}
	setup := engine.MatchSetup{
		MatchID:       req.MatchID,
		Home:          req.Home,
		Away:          req.Away,
		DurationTicks: req.DurationTicks,
		Difficulty:    req.Difficulty,
	}
	if setup.MatchID == "" {
		setup.MatchID = NewMatchID(req.Home.ID, req.Away.ID)
	}
	if req.Seed != nil {
		setup.Seed = *req.Seed
	} else {
		setup.Seed = RandomSeed()
	}

	start := time.Now()
	rec, err := s.Sim.Replay(setup, req.Inputs)
	if err != nil {
		return nil, err
	}
	s.Metrics.SimulationTime.Observe(time.Since(start).Seconds())
	log.Printf("⚽ [MATCH] Simulated %s: %d-%d over %d ticks (%d inputs, %d rejected)",
		rec.MatchID, rec.FinalScore.Home, rec.FinalScore.Away, rec.DurationTicks, len(rec.InputLog), len(rec.Rejected))

	return s.accept(ctx, rec, models.SourceSimulated, submittedBy, true)
}

// Import accepts a record produced elsewhere. The record must replay to
// itself on this simulator before it is stored.
func (s *MatchService) Import(ctx context.Context, rec *models.MatchRecord, submittedBy string) (*MatchOutcome, error) {
	if err := models.CheckInputs(rec.InputLog); err != nil {
		return nil, err
	}
	if err := s.Reproduce(rec); err != nil {
		return nil, err
	}
	return s.accept(ctx, rec, models.SourceImported, submittedBy, true)
}

// Record stores and validates a record without sealing it; the seal worker
// picks it up.
func (s *MatchService) Record(ctx context.Context, rec *models.MatchRecord, source, submittedBy string) (*MatchOutcome, error) {
	return s.accept(ctx, rec, source, submittedBy, false)
}

// Reproduce replays rec with the generator and tick length it names and
// reports every sealed field that comes out different.
func (s *MatchService) Reproduce(rec *models.MatchRecord) error {
	sim, err := engine.NewSimulator(engine.ConfigForRecord(s.Sim.Config(), rec))
	if err != nil {
		return err
	}
	replayed, err := sim.ReplayRecord(rec)
	if err != nil {
		return err
	}
	want, err := s.Sealer.SealAt(rec, 0)
	if err != nil {
		return err
	}
	got, err := s.Sealer.SealAt(replayed, 0)
	if err != nil {
		return err
	}
	var fields []string
	for _, field := range seal.FullFields {
		if want.FieldHashes[field] != got.FieldHashes[field] {
			fields = append(fields, field)
		}
	}
	if len(fields) > 0 {
		return &ReproductionError{MatchID: rec.MatchID, Fields: fields}
	}
	return nil
}

func (s *MatchService) accept(ctx context.Context, rec *models.MatchRecord, source, submittedBy string, sealNow bool) (*MatchOutcome, error) {
	if s.Seen.MaybeSeen(rec.MatchID) {
		if _, err := s.Store.GetMatch(ctx, rec.MatchID); err == nil {
			s.Metrics.DuplicateResults.Inc()
			return nil, fmt.Errorf("%w: %s", ErrMatchExists, rec.MatchID)
		}
	}
	if err := s.Store.SaveMatch(ctx, rec, source, submittedBy); err != nil {
		if errors.Is(err, ErrMatchExists) {
			s.Metrics.DuplicateResults.Inc()
		}
		return nil, err
	}
	s.Seen.Add(rec.MatchID)
	s.Metrics.MatchesSimulated.WithLabelValues(source).Inc()

	out := &MatchOutcome{Record: rec}
	report, err := s.validate(ctx, rec)
	if err != nil {
		return nil, err
	}
	out.Report = report

	if sealNow {
		sl, err := s.seal(ctx, rec)
		if err != nil {
			return nil, err
		}
		out.Seal = sl
		out.Proof = seal.ProofString(sl, rec.FinalScore)
	}
	return out, nil
}

// EnsureNew fails with ErrMatchExists when matchID is already stored.
func (s *MatchService) EnsureNew(ctx context.Context, matchID string) error {
	_, err := s.Store.GetMatch(ctx, matchID)
	switch {
	case err == nil:
		s.Seen.Add(matchID)
		return fmt.Errorf("%w: %s", ErrMatchExists, matchID)
	case errors.Is(err, ErrMatchNotFound):
		return nil
	default:
		return err
	}
}

// Get returns the stored record.
func (s *MatchService) Get(ctx context.Context, matchID string) (*models.MatchRecord, error) {
	return s.Store.GetMatch(ctx, matchID)
}

// LatestReport returns the most recent validation report for a match.
func (s *MatchService) LatestReport(ctx context.Context, matchID string) (*models.ValidationReport, error) {
	return s.Store.LatestReport(ctx, matchID)
}

// Validate produces and stores a new report for a stored match.
func (s *MatchService) Validate(ctx context.Context, matchID string) (*models.ValidationReport, error) {
	rec, err := s.Store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	return s.validate(ctx, rec)
}

func (s *MatchService) validate(ctx context.Context, rec *models.MatchRecord) (*models.ValidationReport, error) {
	report := s.Validator.Validate(rec)
	if err := s.Store.SaveReport(ctx, report); err != nil {
		return nil, err
	}
	s.Metrics.ObserveReport(report)
	if report.Verdict != models.VerdictClean {
		log.Printf("🚩 [MATCH] %s validated %s (trust %d): %v", rec.MatchID, report.Verdict, report.TrustScore, report.FraudIndicators)
	}
	return report, nil
}

// Seal appends a new seal for a stored match.
func (s *MatchService) Seal(ctx context.Context, matchID string) (*models.Seal, error) {
	rec, err := s.Store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	return s.seal(ctx, rec)
}

func (s *MatchService) seal(ctx context.Context, rec *models.MatchRecord) (*models.Seal, error) {
	sl, err := s.Sealer.Seal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to seal %s: %w", rec.MatchID, err)
	}
	if _, err := s.Store.SaveSeal(ctx, sl); err != nil {
		return nil, err
	}
	s.Metrics.SealsCreated.WithLabelValues(sl.Algorithm).Inc()
	log.Printf("🔏 [MATCH] Sealed %s (%s %s…)", rec.MatchID, sl.Algorithm, sl.ResultHash[:seal.ProofPrefixSize])

	if s.Archiver != nil {
		if err := s.Archiver.Archive(ctx, rec, sl); err != nil {
			s.Metrics.ArchivedRecords.WithLabelValues("failed").Inc()
			log.Printf("⚠️ [MATCH] Archive of %s failed: %v", rec.MatchID, err)
		} else {
			s.Metrics.ArchivedRecords.WithLabelValues("ok").Inc()
		}
	}
	return sl, nil
}

// Verify checks a record against the latest stored seal for matchID. When
// rec is nil the stored record is checked. The result is logged to the store.
func (s *MatchService) Verify(ctx context.Context, matchID string, rec *models.MatchRecord) (models.VerifyResult, error) {
	entry, err := s.Store.LatestSeal(ctx, matchID)
	if err != nil {
		return models.VerifyResult{}, err
	}
	if rec == nil {
		if rec, err = s.Store.GetMatch(ctx, matchID); err != nil {
			return models.VerifyResult{}, err
		}
	}
	res := s.Sealer.Verify(rec, entry.Seal)
	s.Metrics.ObserveVerify(res)
	if err := s.Store.SaveVerification(ctx, entry.ID, res); err != nil {
		return res, err
	}
	if !res.Valid {
		log.Printf("❌ [MATCH] %s failed verification: %s %v", matchID, res.Reason, res.MismatchedFields)
	}
	return res, nil
}

// VerifyProof parses a proof string and checks it against the stored seal
// and record.
func (s *MatchService) VerifyProof(ctx context.Context, proof string) (*ProofCheck, error) {
	p, err := seal.ParseProof(proof)
	if err != nil {
		return nil, err
	}
	entry, err := s.Store.LatestSeal(ctx, p.MatchID)
	if err != nil {
		return nil, err
	}
	rec, err := s.Store.GetMatch(ctx, p.MatchID)
	if err != nil {
		return nil, err
	}
	res, err := s.Verify(ctx, p.MatchID, rec)
	if err != nil {
		return nil, err
	}
	return &ProofCheck{
		Proof:   p,
		Matches: res.Valid && seal.MatchesProof(p, entry.Seal, rec.FinalScore),
		Verify:  &res,
	}, nil
}

// SealPending seals up to limit stored matches that have no seal yet.
func (s *MatchService) SealPending(ctx context.Context, limit int) (int, error) {
	ids, err := s.Store.UnsealedMatches(ctx, limit)
	if err != nil {
		return 0, err
	}
	sealed := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		if _, err := s.Seal(ctx, id); err != nil {
			log.Printf("⚠️ [MATCH] Could not seal %s: %v", id, err)
			continue
		}
		sealed++
	}
	return sealed, nil
}

// ReverifyAll re-checks every sealed match against its latest seal.
func (s *MatchService) ReverifyAll(ctx context.Context) (ReverifySummary, error) {
	ids, err := s.Store.SealedMatches(ctx)
	if err != nil {
		return ReverifySummary{}, err
	}
	sort.Strings(ids)

	var checked, valid, invalid, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.ReverifyConcurrency))
	for _, id := range ids {
		g.Go(func() error {
			res, err := s.Verify(gctx, id, nil)
			checked.Add(1)
			switch {
			case err != nil:
				failed.Add(1)
				log.Printf("⚠️ [MATCH] Re-verification of %s errored: %v", id, err)
			case res.Valid:
				valid.Add(1)
			default:
				invalid.Add(1)
			}
			return gctx.Err()
		})
	}
	err = g.Wait()
	return ReverifySummary{
		Checked: checked.Load(),
		Valid:   valid.Load(),
		Invalid: invalid.Load(),
		Errors:  failed.Load(),
	}, err
}
