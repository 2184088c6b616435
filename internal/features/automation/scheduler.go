package automation

import (
	"context"
	"sync/atomic"
	"time"

	"go-opsdesk/internal/config"
	"go-opsdesk/internal/events"
	"go-opsdesk/internal/features/booking"
	"go-opsdesk/internal/features/form"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	reminderWindow    = 24 * time.Hour
	formReminderDelay = 48 * time.Hour
)

// Scheduler runs the periodic scan for time-based triggers that no discrete
// event produces: 24h booking reminders and 48h pending-form reminders.
type Scheduler struct {
	BookingRepo booking.BookingRepository
	FormRepo    form.SubmissionRepository
	Bus         *events.Bus
	Config      *config.Config
	Logger      *zap.Logger

	cron    *cron.Cron
	running atomic.Bool
}

func NewScheduler(
	bookingRepo booking.BookingRepository,
	formRepo form.SubmissionRepository,
	bus *events.Bus,
	cfg *config.Config,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		BookingRepo: bookingRepo,
		FormRepo:    formRepo,
		Bus:         bus,
		Config:      cfg,
		Logger:      logger,
	}
}

func (s *Scheduler) Start() error {
	s.cron = cron.New()
	_, err := s.cron.AddFunc(s.Config.ScanSchedule, s.RunScan)
	if err != nil {
		return err
	}
	s.cron.Start()
	s.Logger.Info("automation scheduler started", zap.String("schedule", s.Config.ScanSchedule))
	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	s.Logger.Info("automation scheduler stopped")
}

// RunScan executes one scan cycle. If a previous cycle is still running the
// tick is skipped; the claim-before-fire flag flips below make re-scans safe
// anyway, this just avoids wasted work.
func (s *Scheduler) RunScan() {
	if !s.running.CompareAndSwap(false, true) {
		s.Logger.Warn("scan cycle still running, skipping tick")
		return
	}
	defer s.running.Store(false)

	defer func() {
		if r := recover(); r != nil {
			s.Logger.Error("scan cycle panicked", zap.Any("panic", r))
		}
	}()

	ctx := context.Background()
	s.scanBookingReminders(ctx)
	s.scanPendingForms(ctx)
}

// scanBookingReminders fires booking_reminder_24h for bookings starting inside
// the next 24 hours. The atomic claim on reminder_sent guarantees at most one
// dispatch per booking even across racing cycles.
func (s *Scheduler) scanBookingReminders(ctx context.Context) {
	now := time.Now()
	bookings, err := s.BookingRepo.FindReminderWindow(ctx, now, now.Add(reminderWindow))
	if err != nil {
		s.Logger.Error("booking reminder scan failed", zap.Error(err))
		return
	}

	for i := range bookings {
		b := bookings[i]

		claimed, err := s.BookingRepo.ClaimReminder(ctx, b.ID)
		if err != nil {
			s.Logger.Error("failed to claim booking reminder",
				zap.String("booking_id", b.ID.Hex()),
				zap.Error(err),
			)
			continue
		}
		if !claimed {
			continue
		}

		s.Bus.Publish(ctx, events.Event{
			Trigger: string(TriggerBookingReminder),
			Payload: events.Payload{
				WorkspaceID: b.WorkspaceID,
				Contact:     &b.Contact,
				Booking:     &b,
			},
		})
	}

	if len(bookings) > 0 {
		s.Logger.Info("booking reminder scan complete", zap.Int("candidates", len(bookings)))
	}
}

// scanPendingForms fires form_pending_48h for submissions stuck in pending,
// then sweeps past-due pending submissions into the overdue status.
func (s *Scheduler) scanPendingForms(ctx context.Context) {
	now := time.Now()
	submissions, err := s.FormRepo.FindPendingReminderDue(ctx, now.Add(-formReminderDelay))
	if err != nil {
		s.Logger.Error("pending form scan failed", zap.Error(err))
		return
	}

	for i := range submissions {
		sub := submissions[i]

		claimed, err := s.FormRepo.ClaimReminder(ctx, sub.ID)
		if err != nil {
			s.Logger.Error("failed to claim form reminder",
				zap.String("submission_id", sub.ID.Hex()),
				zap.Error(err),
			)
			continue
		}
		if !claimed {
			continue
		}

		s.Bus.Publish(ctx, events.Event{
			Trigger: string(TriggerFormPending),
			Payload: events.Payload{
				WorkspaceID: sub.WorkspaceID,
				Contact:     &sub.Contact,
				Submission:  &sub,
			},
		})
	}

	marked, err := s.FormRepo.MarkOverdue(ctx, now)
	if err != nil {
		s.Logger.Error("overdue sweep failed", zap.Error(err))
		return
	}
	if marked > 0 {
		s.Logger.Info("marked submissions overdue", zap.Int64("count", marked))
	}
}
