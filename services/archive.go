package services

import (
	"context"
	"fmt"
	"path"

	json "github.com/goccy/go-json"

	"match-integrity-system/models"
	"match-integrity-system/seal"
)

// ObjectStore is the blob storage the archiver writes to (utils.R2Store in production).
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

// RecordArchiver copies sealed records out for third-party verifiers: the
// exported record, the seal and the canonical form the seal was computed over.
type RecordArchiver struct {
	store  ObjectStore
	prefix string
}

func NewRecordArchiver(store ObjectStore, prefix string) *RecordArchiver {
	return &RecordArchiver{store: store, prefix: prefix}
}

// Keys returns the object keys used for a match.
func (a *RecordArchiver) Keys(matchID string) (record, sealKey, canonical string) {
	base := path.Join(a.prefix, matchID)
	return base + "/record.json", base + "/seal.json", base + "/canonical.json"
}

func (a *RecordArchiver) Archive(ctx context.Context, rec *models.MatchRecord, sl *models.Seal) error {
	recordKey, sealKey, canonicalKey := a.Keys(rec.MatchID)

	recordJSON, err := models.EncodeRecord(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", rec.MatchID, err)
	}
	sealJSON, err := json.Marshal(sl)
	if err != nil {
		return fmt.Errorf("failed to encode seal %s: %w", rec.MatchID, err)
	}
	canonical, err := seal.Canonical(rec, sl.SealedAtMs)
	if err != nil {
		return err
	}

	for _, obj := range []struct {
		key  string
		body []byte
	}{
		{recordKey, recordJSON},
		{sealKey, sealJSON},
		{canonicalKey, canonical},
	} {
		if err := a.store.Put(ctx, obj.key, obj.body, "application/json"); err != nil {
			return err
		}
	}
	return nil
}
