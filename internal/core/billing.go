package core

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/edvin/compute/internal/model"
)

var (
	sweepChargesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billing_sweep_charges_total",
		Help: "Successful hourly charges applied by the billing sweep.",
	})
	sweepFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billing_sweep_failures_total",
		Help: "Charges the billing sweep failed to apply.",
	})
	sweepCreditsCharged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billing_sweep_credits_charged_total",
		Help: "Total credits debited by the billing sweep.",
	})
)

// BillingService converts accumulated pay-as-you-go usage into ledger
// debits. Reserved instances are charged upfront at provisioning and
// are never touched by the sweep.
type BillingService struct {
	db      DB
	usage   *UsageService
	credits *CreditService
	logger  zerolog.Logger
}

func NewBillingService(db DB, usage *UsageService, credits *CreditService, logger zerolog.Logger) *BillingService {
	return &BillingService{db: db, usage: usage, credits: credits, logger: logger}
}

// RunSweep charges every active pay-as-you-go record for its whole
// elapsed hours since the last charge. Partial hours stay accrued for
// the next sweep. One record's failure never stops the sweep: the
// record is flagged for remediation and iteration continues.
func (s *BillingService) RunSweep(ctx context.Context) (*model.SweepResult, error) {
	started := time.Now().UTC()

	records, err := s.usage.ActivePAYGRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("billing sweep snapshot: %w", err)
	}

	result := &model.SweepResult{StartedAt: started}
	for _, record := range records {
		result.Results = append(result.Results, s.chargeRecord(ctx, record, started))
	}

	for _, r := range result.Results {
		if !r.Skipped && r.Error == "" {
			result.Processed++
		}
	}

	result.FinishedAt = time.Now().UTC()
	s.logger.Info().
		Int("records", len(records)).
		Int("charged", result.Processed).
		Msg("billing sweep finished")
	return result, nil
}

func (s *BillingService) chargeRecord(ctx context.Context, record model.UsageRecord, now time.Time) model.SweepRecordResult {
	result := model.SweepRecordResult{
		RecordID:   record.ID,
		TenantID:   record.TenantID,
		InstanceID: record.InstanceID,
	}

	since := record.StartedAt
	if record.LastBilledAt != nil {
		since = *record.LastBilledAt
	}

	hours := int(math.Floor(now.Sub(since).Hours()))
	if hours < 1 {
		result.Skipped = true
		return result
	}

	amount := float64(hours) * record.HourlyRate
	metadata, _ := json.Marshal(map[string]any{
		"usage_record_id": record.ID,
		"instance_id":     record.InstanceID,
		"hours":           hours,
	})

	description := fmt.Sprintf("Hourly usage for %s (%dh)", record.InstanceName, hours)

	// The debit and the watermark advance are one transaction: a charge
	// without its watermark would bill the same hours again next sweep.
	tx, err := s.db.Begin(ctx)
	if err != nil {
		sweepFailuresTotal.Inc()
		s.logger.Error().Err(err).Str("record_id", record.ID).Msg("billing sweep charge failed")
		result.Error = err.Error()
		return result
	}
	defer tx.Rollback(ctx)

	if _, _, err := s.credits.DebitTx(ctx, tx, record.TenantID, amount, description, metadata); err != nil {
		sweepFailuresTotal.Inc()
		s.logger.Error().
			Err(err).
			Str("tenant_id", record.TenantID).
			Str("instance_id", record.InstanceID).
			Float64("amount", amount).
			Msg("billing sweep charge failed")

		if flagErr := s.usage.FlagForRemediation(ctx, record.ID, now); flagErr != nil {
			s.logger.Error().Err(flagErr).Str("record_id", record.ID).Msg("failed to flag usage record")
		}

		result.Error = err.Error()
		return result
	}

	// Advancing to now rather than since+hours forgives the current
	// partial hour, trading a small undercharge for never double
	// charging when sweeps are delayed.
	if err := s.usage.AdvanceLastBilled(ctx, tx, record.ID, now); err != nil {
		sweepFailuresTotal.Inc()
		s.logger.Error().Err(err).Str("record_id", record.ID).Msg("failed to advance billing watermark")
		result.Error = err.Error()
		return result
	}
	if err := tx.Commit(ctx); err != nil {
		sweepFailuresTotal.Inc()
		s.logger.Error().Err(err).Str("record_id", record.ID).Msg("billing sweep commit failed")
		result.Error = err.Error()
		return result
	}

	sweepChargesTotal.Inc()
	sweepCreditsCharged.Add(amount)
	result.HoursCharged = hours
	result.Amount = amount
	return result
}
