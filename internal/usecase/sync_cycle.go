package usecase

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/rollingriches/leadsync/internal/entity"
	"github.com/rollingriches/leadsync/internal/infra/integration/ghl"
	"github.com/rollingriches/leadsync/internal/infra/queue"
)

// SyncOrchestrator drives one cycle end to end: fetch, normalize, upsert,
// forward, record outcomes. The checkpoint only advances after a cycle
// completes without fatal error, so a crashed or failed cycle is simply
// re-driven over the same window.
type SyncOrchestrator struct {
	Source     SourceConnector
	Forwarder  CRMForwarder
	Leads      entity.LeadRepositoryInterface
	Runs       SyncRunRepositoryInterface
	Attempts   ForwardAttemptRepositoryInterface
	Checkpoint CheckpointRepositoryInterface
	Normalizer *Normalizer

	// Alerts is optional; nil disables operator notifications.
	Alerts AlertProducerInterface

	MaxRetries int
	PageSize   int
	MaxPages   int
	RetryDelay time.Duration
	BatchSize  int

	// Now is swappable for tests.
	Now func() time.Time
}

func NewSyncOrchestrator(
	source SourceConnector,
	forwarder CRMForwarder,
	leads entity.LeadRepositoryInterface,
	runs SyncRunRepositoryInterface,
	attempts ForwardAttemptRepositoryInterface,
	checkpoint CheckpointRepositoryInterface,
	normalizer *Normalizer,
	alerts AlertProducerInterface,
) *SyncOrchestrator {
	return &SyncOrchestrator{
		Source:     source,
		Forwarder:  forwarder,
		Leads:      leads,
		Runs:       runs,
		Attempts:   attempts,
		Checkpoint: checkpoint,
		Normalizer: normalizer,
		Alerts:     alerts,
		MaxRetries: 3,
		PageSize:   100,
		MaxPages:   10,
		RetryDelay: 30 * time.Minute,
		BatchSize:  50,
		Now:        time.Now,
	}
}

// RunCycle executes one full sync cycle and returns its audit record. The
// error is non-nil only for cycle-fatal failures; per-record problems are
// counted in the run and never abort it.
func (o *SyncOrchestrator) RunCycle(ctx context.Context) (*entity.SyncRun, error) {
	run, err := o.Runs.Start(ctx)
	if err != nil {
		return nil, &TechnicalError{Code: "STORE_UNAVAILABLE", Message: "start sync run: " + err.Error()}
	}

	checkpoint, _, err := o.Checkpoint.Get(ctx)
	if err != nil {
		return run, o.fail(ctx, run, "read checkpoint: "+err.Error())
	}

	log.Printf("🔄 Sync cycle %s started (since %s)", run.ID, checkpoint.Format(time.RFC3339))

	maxSignup := checkpoint

	// Fetch pages until the source runs dry or the page ceiling protects us
	// from an unbounded pull.
	for page := 0; page < o.MaxPages; page++ {
		records, err := o.Source.FetchLeads(ctx, checkpoint, o.PageSize, page*o.PageSize)
		if err != nil {
			return run, o.fail(ctx, run, "fetch from source: "+err.Error())
		}

		run.Fetched += len(records)

		for _, raw := range records {
			lead, err := o.Normalizer.Normalize(raw)
			if err != nil {
				run.Errored++
				log.Printf("⚠️ Skipping malformed record: %v", err)
				continue
			}

			result, err := o.Leads.Upsert(ctx, lead)
			if err != nil {
				// Single-row upserts only fail when the store itself does;
				// constraint races are absorbed inside the repository.
				return run, o.fail(ctx, run, "upsert lead: "+err.Error())
			}

			switch result {
			case entity.UpsertInserted:
				run.Inserted++
			case entity.UpsertUpdated:
				run.Updated++
			}

			if lead.SignupTime.After(maxSignup) {
				maxSignup = lead.SignupTime
			}

			if !lead.ForwardingEligible() {
				run.Skipped++
				continue
			}
			if lead.Forwarded {
				// Already in the CRM from an earlier cycle; SUCCESS is terminal.
				continue
			}

			if err := o.forwardLead(ctx, lead, run); err != nil {
				return run, o.fail(ctx, run, "record forward attempt: "+err.Error())
			}
		}

		if len(records) < o.PageSize {
			break
		}
	}

	// Second pass: the retry backlog, retry-scheduled first, then best
	// quality, then oldest. Leads already attempted above are excluded by
	// their fresh attempt rows.
	backlog, err := o.Attempts.LeadsToForward(ctx, o.MaxRetries, o.BatchSize)
	if err != nil {
		return run, o.fail(ctx, run, "load forwarding backlog: "+err.Error())
	}
	for _, lead := range backlog {
		if err := o.forwardLead(ctx, lead, run); err != nil {
			return run, o.fail(ctx, run, "record forward attempt: "+err.Error())
		}
	}

	run.Status = entity.SyncRunCompleted
	if err := o.Runs.Finish(ctx, run); err != nil {
		return run, &TechnicalError{Code: "STORE_UNAVAILABLE", Message: "finish sync run: " + err.Error()}
	}

	if maxSignup.After(checkpoint) {
		if err := o.Checkpoint.Set(ctx, maxSignup); err != nil {
			return run, &TechnicalError{Code: "STORE_UNAVAILABLE", Message: "persist checkpoint: " + err.Error()}
		}
	}

	log.Printf("✅ Sync cycle %s completed: fetched=%d inserted=%d updated=%d skipped=%d errored=%d forwarded=%d forward_failed=%d",
		run.ID, run.Fetched, run.Inserted, run.Updated, run.Skipped, run.Errored, run.Forwarded, run.ForwardFailed)

	return run, nil
}

// forwardLead runs the per-lead forwarding state machine: check the latest
// attempt, push if allowed, record the outcome. A CRM rejection is not an
// error here; only ledger writes can fail.
func (o *SyncOrchestrator) forwardLead(ctx context.Context, lead *entity.Lead, run *entity.SyncRun) error {
	latest, err := o.Attempts.LatestForLead(ctx, lead.ID)
	if err != nil {
		return err
	}

	now := o.Now()
	if !ShouldForward(latest, o.MaxRetries, now) {
		return nil
	}

	input := ghl.ContactInput{
		Email:     lead.Email,
		Phone:     lead.PhoneRaw,
		FirstName: lead.FirstName,
		LastName:  lead.LastName,
		Tags:      QualityTags(lead),
		CustomFields: map[string]string{
			"signup_date":   lead.SignupTime.Format(time.RFC3339),
			"quality_score": strconv.Itoa(lead.QualityScore),
			"source":        "WordPress Sweepstakes",
		},
	}

	result, err := o.Forwarder.CreateOrUpdateContact(ctx, input)
	if err != nil {
		return err
	}

	completed := result.RespondedAt
	attempt := &entity.ForwardAttempt{
		ID:             uuid.New().String(),
		LeadID:         lead.ID,
		Email:          lead.Email,
		RequestBody:    result.RequestBody,
		ResponseStatus: result.ResponseStatus,
		ResponseBody:   result.ResponseBody,
		AttemptedAt:    result.RequestedAt,
		CompletedAt:    &completed,
	}

	if result.Success {
		attempt.Status = entity.AttemptSuccess
		attempt.ContactID = result.ContactID
		attempt.RetryCount = 0
		if latest != nil {
			attempt.RetryCount = latest.RetryCount
		}
	} else {
		attempt.Status = entity.AttemptFailed
		attempt.ErrorMessage = result.ErrorMessage
		attempt.RetryCount = NextRetryCount(latest)
		if attempt.RetryCount < o.MaxRetries {
			next := now.Add(o.RetryDelay)
			attempt.NextRetryAt = &next
		}
	}

	if err := o.Attempts.Create(ctx, attempt); err != nil {
		return err
	}

	if result.Success {
		if err := o.Leads.MarkForwarded(ctx, lead.ID, result.ContactID); err != nil {
			return err
		}
		run.Forwarded++
		log.Printf("✅ Forwarded %s (contact %s)", lead.Email, result.ContactID)
		return nil
	}

	run.ForwardFailed++
	log.Printf("⚠️ Forward failed for %s (attempt %d/%d): %s",
		lead.Email, attempt.RetryCount, o.MaxRetries, result.ErrorMessage)

	if attempt.RetryCount >= o.MaxRetries && o.Alerts != nil {
		alert := queue.AlertPayload{
			Kind:       queue.AlertForwardExhausted,
			LeadID:     lead.ID,
			Email:      lead.Email,
			RetryCount: attempt.RetryCount,
			Error:      result.ErrorMessage,
			OccurredAt: now,
		}
		if err := o.Alerts.PublishAlert(ctx, alert); err != nil {
			// Alerting is best-effort; the backlog report still has it.
			log.Printf("⚠️ Could not publish exhausted-retries alert: %v", err)
		}
	}

	return nil
}

// RescanQualityScores recomputes quality for leads scored under an older
// rule set. Scoring is a pure function, so the pass is idempotent.
func (o *SyncOrchestrator) RescanQualityScores(ctx context.Context) (int, error) {
	rescanned := 0
	for {
		leads, err := o.Leads.GetPendingQualityRescan(ctx, ScoringVersion, o.BatchSize)
		if err != nil {
			return rescanned, &TechnicalError{Code: "STORE_UNAVAILABLE", Message: "load rescan batch: " + err.Error()}
		}
		if len(leads) == 0 {
			return rescanned, nil
		}

		for _, lead := range leads {
			score := Score(lead.EmailValid, lead.PhoneValid, lead.EmailDomain, lead.SignupChannel)
			if err := o.Leads.UpdateQualityScore(ctx, lead.ID, score, ScoringVersion); err != nil {
				return rescanned, &TechnicalError{Code: "STORE_UNAVAILABLE", Message: "update score: " + err.Error()}
			}
			rescanned++
		}
	}
}

// fail finalizes a run as failed. The checkpoint is deliberately left
// untouched so the next cycle re-fetches the same window.
func (o *SyncOrchestrator) fail(ctx context.Context, run *entity.SyncRun, detail string) error {
	run.Status = entity.SyncRunFailed
	run.ErrorDetail = detail

	if err := o.Runs.Finish(ctx, run); err != nil {
		log.Printf("❌ Could not finalize failed run %s: %v", run.ID, err)
	}

	if o.Alerts != nil {
		alert := queue.AlertPayload{
			Kind:       queue.AlertRunFailed,
			RunID:      run.ID,
			Error:      detail,
			OccurredAt: o.Now(),
		}
		if err := o.Alerts.PublishAlert(ctx, alert); err != nil {
			log.Printf("⚠️ Could not publish run-failed alert: %v", err)
		}
	}

	log.Printf("❌ Sync cycle %s failed: %s", run.ID, detail)
	return &TechnicalError{Code: "CYCLE_FAILED", Message: detail}
}
