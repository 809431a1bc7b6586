// Package scheduler fires bounded-duration recordings by cron expression.
// It owns only the mapping from schedule id to the timing engine's job
// handle; it never touches a transcoder child directly, asking the
// RecordingController to start and stop instead.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jmylchreest/camerad/internal/models"
)

// RecordingController is the subset of the process supervisor the scheduler
// drives. It never inspects child handles itself.
type RecordingController interface {
	StartRecording(ctx context.Context, cameraID uint, targetFPS *int) error
	StopRecording(ctx context.Context, cameraID uint) error
}

// cronParser accepts 6-field expressions with seconds, matching the
// canonical form schedules are persisted in.
var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Scheduler holds scheduled jobs keyed by schedule id. Its job map is
// guarded by a mutex whose critical sections span the closure-registration
// path — never the closures themselves, which run as independent goroutines
// under the cron engine.
type Scheduler struct {
	mu sync.Mutex

	controller RecordingController
	engine     *cron.Cron
	logger     *slog.Logger

	// jobs maps schedule id to the engine's job handle and the camera id
	// currently firing under it, for active_scheduled bookkeeping.
	jobs           map[uint]cron.EntryID
	activeSchedule map[uint]uint
}

// New creates a Scheduler whose engine fires in the given IANA timezone.
func New(controller RecordingController, timezone string) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("loading scheduler timezone: %w", err)
	}

	engine := cron.New(
		cron.WithParser(cronParser),
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cron.DefaultLogger)),
	)

	return &Scheduler{
		controller:     controller,
		engine:         engine,
		logger:         slog.Default(),
		jobs:           make(map[uint]cron.EntryID),
		activeSchedule: make(map[uint]uint),
	}, nil
}

// WithLogger sets a custom logger.
func (s *Scheduler) WithLogger(logger *slog.Logger) *Scheduler {
	s.logger = logger
	return s
}

// Start begins firing registered schedules.
func (s *Scheduler) Start() {
	s.engine.Start()
}

// Stop halts the engine. In-flight closures are not interrupted; removing a
// schedule only prevents future fires.
func (s *Scheduler) Stop() {
	<-s.engine.Stop().Done()
}

// LoadEnabled registers every enabled schedule with the engine. Intended to
// be called once at startup after reading persistence.
func (s *Scheduler) LoadEnabled(schedules []*models.RecordingSchedule) {
	for _, sched := range schedules {
		if err := s.AddSchedule(sched); err != nil {
			s.logger.Error("failed to re-arm recording schedule",
				slog.Uint64("schedule_id", uint64(sched.ID)),
				slog.Any("error", err))
		}
	}
}

// ValidateCron reports whether expr parses as a valid cron expression,
// accepting either the 5-field or 6-field (seconds-first) form — the
// same canonicalization callers apply before persisting a schedule. It
// is the semantic check behind the field-count check callers do first.
func ValidateCron(expr string) error {
	if _, err := cronParser.Parse(models.CanonicalizeCron(expr)); err != nil {
		return fmt.Errorf("parsing cron expression %q: %w", expr, err)
	}
	return nil
}

// AddSchedule parses the schedule's 6-field cron expression and binds a
// closure that starts a recording, sleeps for the configured duration, then
// stops it. Any prior entry for this schedule id is removed first.
func (s *Scheduler) AddSchedule(sched *models.RecordingSchedule) error {
	schedule, err := cronParser.Parse(sched.Cron)
	if err != nil {
		return fmt.Errorf("parsing cron expression %q: %w", sched.Cron, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.jobs[sched.ID]; ok {
		s.engine.Remove(existing)
		delete(s.jobs, sched.ID)
	}

	job := s.fireJob(sched.ID, sched.CameraID, sched.DurationMinutes, sched.TargetFPS)
	entryID := s.engine.Schedule(schedule, cron.FuncJob(job))
	s.jobs[sched.ID] = entryID

	return nil
}

// RemoveSchedule removes a schedule's entry from the engine. It does not
// interrupt an in-flight recording started before removal.
func (s *Scheduler) RemoveSchedule(scheduleID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.jobs[scheduleID]; ok {
		s.engine.Remove(entryID)
		delete(s.jobs, scheduleID)
	}
	delete(s.activeSchedule, scheduleID)
}

// fireJob builds the closure the cron engine invokes on each trigger.
func (s *Scheduler) fireJob(scheduleID, cameraID uint, durationMinutes int, targetFPS *int) func() {
	return func() {
		ctx := context.Background()

		s.mu.Lock()
		s.activeSchedule[scheduleID] = cameraID
		s.mu.Unlock()

		defer func() {
			s.mu.Lock()
			delete(s.activeSchedule, scheduleID)
			s.mu.Unlock()
		}()

		if err := s.controller.StartRecording(ctx, cameraID, targetFPS); err != nil {
			s.logger.Error("scheduled recording failed to start",
				slog.Uint64("schedule_id", uint64(scheduleID)),
				slog.Uint64("camera_id", uint64(cameraID)),
				slog.Any("error", err))
			return
		}

		time.Sleep(time.Duration(durationMinutes) * time.Minute)

		if err := s.controller.StopRecording(ctx, cameraID); err != nil {
			s.logger.Error("scheduled recording failed to stop",
				slog.Uint64("schedule_id", uint64(scheduleID)),
				slog.Uint64("camera_id", uint64(cameraID)),
				slog.Any("error", err))
		}
	}
}

// ActiveCameraIDs returns the camera ids currently firing under a schedule.
func (s *Scheduler) ActiveCameraIDs() map[uint]uint {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[uint]uint, len(s.activeSchedule))
	for k, v := range s.activeSchedule {
		out[k] = v
	}
	return out
}
