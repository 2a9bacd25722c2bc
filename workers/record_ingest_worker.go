// workers/record_ingest_worker.go
package workers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"

	"match-integrity-system/models"
	"match-integrity-system/services"
)

// IngestSubmitter is the identity recorded on ingested matches.
const IngestSubmitter = "ingest-worker"

// GetMatchRecordsResponse is what a record producer returns for ?since=.
type GetMatchRecordsResponse struct {
	Records []json.RawMessage `json:"records"`
}

// IngestStats counts one batch.
type IngestStats struct {
	Received   int
	Imported   int
	Duplicates int
	Failed     int
}

// RecordIngestWorker pulls finished match records from a remote producer
// and imports them (replay check, validation, seal).
type RecordIngestWorker struct {
	matches      *services.MatchService
	interval     time.Duration
	baseURL      string // e.g., "http://localhost:8500"
	endpointPath string // e.g., "/api/v1/public/matches"
	serviceToken string
	httpClient   *http.Client
	lastSync     time.Time
}

func NewRecordIngestWorker(matches *services.MatchService, baseURL, endpointPath, serviceToken string, interval time.Duration, client *http.Client) *RecordIngestWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &RecordIngestWorker{
		matches:      matches,
		interval:     interval,
		baseURL:      baseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient:   client,
	}
}

func (w *RecordIngestWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Record Ingest Worker (producer → matches)…")
	go w.run(ctx)
}

func (w *RecordIngestWorker) run(ctx context.Context) {
	// Initial backfill from the beginning of time
	w.tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.tick(ctx)
		case <-ctx.Done():
			log.Println("⏹️ Record Ingest Worker stopped")
			return
		}
	}
}

func (w *RecordIngestWorker) tick(ctx context.Context) {
	started := time.Now().UTC()
	stats, err := w.SyncBatch(ctx, w.lastSync)
	if err != nil {
		log.Printf("❌ [INGEST] Batch failed: %v", err)
		// keep lastSync so the same window is retried next tick
		return
	}
	w.lastSync = started
	if stats.Received > 0 {
		log.Printf("✅ [INGEST] %d record(s): %d imported, %d duplicate, %d failed",
			stats.Received, stats.Imported, stats.Duplicates, stats.Failed)
	}
}

// SyncBatch fetches records changed since and imports each one. A record
// that fails import is logged and counted; it does not fail the batch.
func (w *RecordIngestWorker) SyncBatch(ctx context.Context, since time.Time) (IngestStats, error) {
	var stats IngestStats

	base, err := url.Parse(w.baseURL)
	if err != nil {
		return stats, fmt.Errorf("invalid ingest service URL '%s': %w", w.baseURL, err)
	}
	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", since.UTC().Format(time.RFC3339))
	endpointURL.RawQuery = q.Encode()
	finalURL := endpointURL.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
	if err != nil {
		return stats, fmt.Errorf("failed to create request to %s: %w", finalURL, err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return stats, fmt.Errorf("HTTP request to ingest service failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return stats, fmt.Errorf("ingest service non-200 response: %d: %s", resp.StatusCode, string(body))
	}

	var response GetMatchRecordsResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return stats, fmt.Errorf("failed to decode ingest service response: %w", err)
	}

	stats.Received = len(response.Records)
	for i, raw := range response.Records {
		rec, err := models.DecodeRecord(raw)
		if err != nil {
			stats.Failed++
			w.matches.Metrics.IngestedRecords.WithLabelValues("invalid").Inc()
			log.Printf("[INGEST] ⚠️ Record %d is not a match record: %v", i, err)
			continue
		}
		if _, err := w.matches.Import(ctx, rec, IngestSubmitter); err != nil {
			if errors.Is(err, services.ErrMatchExists) {
				stats.Duplicates++
				w.matches.Metrics.IngestedRecords.WithLabelValues("duplicate").Inc()
				continue
			}
			stats.Failed++
			w.matches.Metrics.IngestedRecords.WithLabelValues("rejected").Inc()
			log.Printf("[INGEST] ⚠️ Import of %s failed: %v", rec.MatchID, err)
			continue
		}
		stats.Imported++
		w.matches.Metrics.IngestedRecords.WithLabelValues("imported").Inc()
	}
	return stats, nil
}
