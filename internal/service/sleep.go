package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Ram4lh0/Sleep-App/internal"
	"github.com/Ram4lh0/Sleep-App/internal/notify"
	"github.com/Ram4lh0/Sleep-App/internal/observability"
	"github.com/Ram4lh0/Sleep-App/internal/sleepcalc"
	"github.com/Ram4lh0/Sleep-App/internal/storage"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, err := sleepcalc.ParseTimeOfDay(fl.Field().String())
		return err == nil
	})
	return v
}

type SleepRecordRequest struct {
	BedTime  string `json:"bed_time" validate:"required,hhmm"`
	WakeTime string `json:"wake_time" validate:"required,hhmm"`
}

func ValidateSleepRecordRequest(body *SleepRecordRequest) error {
	return validate.Struct(body)
}

// SleepService records nights for "today" and announces every change on
// the publisher.
type SleepService struct {
	repo      storage.SleepRecordRepository
	publisher notify.Publisher
	clock     sleepcalc.Clock
	logger    internal.Logger
}

func NewSleepService(repo storage.SleepRecordRepository, publisher notify.Publisher, clock sleepcalc.Clock, logger internal.Logger) *SleepService {
	return &SleepService{repo: repo, publisher: publisher, clock: clock, logger: logger}
}

// NewSleepRecord builds the record for a bed/wake pair on the clock's
// current local date. The request must already be valid.
func NewSleepRecord(userID string, body *SleepRecordRequest, clock sleepcalc.Clock) *internal.SleepRecord {
	tenths := sleepcalc.DurationTenths(body.BedTime, body.WakeTime)
	return &internal.SleepRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		Date:      sleepcalc.TodayLocalDate(clock),
		BedTime:   body.BedTime,
		WakeTime:  body.WakeTime,
		Hours:     float64(tenths) / 10,
		CreatedAt: clock.Now(),
	}
}

func (s *SleepService) Create(ctx context.Context, user *internal.User, body *SleepRecordRequest) (*internal.SleepRecord, error) {
	if err := ValidateSleepRecordRequest(body); err != nil {
		return nil, err
	}
	rec := NewSleepRecord(user.ID, body, s.clock)
	if err := s.repo.InsertRecord(ctx, rec); err != nil {
		return nil, fmt.Errorf("saving sleep record: %w", err)
	}
	observability.RecordCreated(rec.Hours)
	s.publish(ctx, notify.Event{Type: notify.EventInsert, UserID: user.ID, RecordID: rec.ID, Record: rec, OccurredAt: rec.CreatedAt})
	return rec, nil
}

func (s *SleepService) List(ctx context.Context, userID string) ([]internal.SleepRecord, error) {
	return s.repo.ListRecords(ctx, userID)
}

func (s *SleepService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.DeleteRecord(ctx, userID, id); err != nil {
		return err
	}
	observability.RecordDeleted()
	s.publish(ctx, notify.Event{Type: notify.EventDelete, UserID: userID, RecordID: id, OccurredAt: s.clock.Now()})
	return nil
}

// publish never fails the caller: the change is already stored.
func (s *SleepService) publish(ctx context.Context, ev notify.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warnf("change event %s for record %s not published: %v", ev.Type, ev.RecordID, err)
	}
}
