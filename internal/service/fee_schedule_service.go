package service

import (
	"fmt"
	"time"

	"github.com/ndewijer/Fund-Administration-Backend/internal/model"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// FeeScheduleService creates draft management fee events on a quarterly
// schedule for every active fund that charges a fee. Events it creates go
// through the same approval workflow as manually created ones.
type FeeScheduleService struct {
	fundService  *FundService
	eventService *EventService
	cronSpec     string
	scheduler    *cron.Cron
	logger       zerolog.Logger
}

// NewFeeScheduleService creates a new FeeScheduleService with the provided dependencies.
func NewFeeScheduleService(
	fundService *FundService,
	eventService *EventService,
	cronSpec string,
	logger zerolog.Logger,
) *FeeScheduleService {
	return &FeeScheduleService{
		fundService:  fundService,
		eventService: eventService,
		cronSpec:     cronSpec,
		logger:       logger,
	}
}

// Start registers the schedule and begins running it in the background.
func (s *FeeScheduleService) Start() error {
	s.scheduler = cron.New()

	_, err := s.scheduler.AddFunc(s.cronSpec, func() {
		if err := s.RunOnce(time.Now().UTC()); err != nil {
			s.logger.Error().Err(err).Msg("scheduled fee run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to register fee schedule %q: %w", s.cronSpec, err)
	}

	s.scheduler.Start()
	s.logger.Info().Str("schedule", s.cronSpec).Msg("fee scheduler started")

	return nil
}

// Stop halts the scheduler and waits for any in-flight run to finish.
func (s *FeeScheduleService) Stop() {
	if s.scheduler == nil {
		return
	}
	<-s.scheduler.Stop().Done()
	s.logger.Info().Msg("fee scheduler stopped")
}

// RunOnce creates a draft fee event per eligible fund for the quarter
// preceding now. Funds are processed concurrently; the first failure is
// reported but does not stop other funds.
func (s *FeeScheduleService) RunOnce(now time.Time) error {
	funds, err := s.fundService.GetFunds()
	if err != nil {
		return err
	}

	periodStart, periodEnd := previousQuarter(now)
	days := int(periodEnd.Sub(periodStart).Hours() / 24)

	var group errgroup.Group
	group.SetLimit(4)

	for _, fund := range funds {
		if fund.Status != model.FundActive && fund.Status != model.FundFundraising {
			continue
		}
		if !fund.ManagementFeeRate.IsPositive() {
			continue
		}

		fund := fund
		group.Go(func() error {
			event := model.FundEvent{
				FundID:           fund.ID,
				Type:             model.EventManagementFee,
				Name:             fmt.Sprintf("%s management fee %d Q%d", fund.Name, periodStart.Year(), (int(periodStart.Month())-1)/3+1),
				EventDate:        now,
				EffectiveDate:    now,
				RecordDate:       periodEnd,
				Method:           model.MethodProRata,
				Basis:            model.BasisCommitment,
				FeePeriodStart:   periodStart,
				FeePeriodEnd:     periodEnd,
				FeeRate:          fund.ManagementFeeRate,
				ProrateForPeriod: true,
				DaysInPeriod:     days,
			}

			if _, err := s.eventService.CreateEvent(event); err != nil {
				return fmt.Errorf("fund %s: %w", fund.ID, err)
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	s.logger.Info().
		Time("period_start", periodStart).
		Time("period_end", periodEnd).
		Msg("quarterly fee events created")

	return nil
}

// previousQuarter returns the calendar quarter [start, end) immediately
// before the given time.
func previousQuarter(now time.Time) (time.Time, time.Time) {
	quarterStartMonth := time.Month(((int(now.Month())-1)/3)*3 + 1)
	end := time.Date(now.Year(), quarterStartMonth, 1, 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, -3, 0)
	return start, end
}
