package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	redisclient "github.com/webdoctor/ehr-server/internal/redis"
	"github.com/webdoctor/ehr-server/internal/rooms"
	"github.com/webdoctor/ehr-server/internal/scheduler"
)

// CompletionHandler names the deferred task that auto-completes an
// appointment after the visit window.
const CompletionHandler = "appointment.complete"

var (
	ErrAlreadyTerminal = errors.New("appointment is already completed or cancelled")
	ErrAppointmentBusy = errors.New("appointment is being modified, please retry")
	ErrVisitInPast     = errors.New("appointment date-time is in the past")
	ErrMissingDateTime = errors.New("appointment date-time is required")
)

// Service owns the appointment state machine. It provisions a video
// room and per-role join links at creation, schedules the deferred
// completion task, and keeps exactly one pending task per appointment
// across reschedules and cancellations.
type Service struct {
	repo   Repository
	rooms  rooms.Client
	sched  scheduler.Scheduler
	locker redisclient.Locker
	delay  time.Duration
	log    zerolog.Logger
}

func NewService(repo Repository, roomClient rooms.Client, sched scheduler.Scheduler, locker redisclient.Locker, completionDelay time.Duration, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		rooms:  roomClient,
		sched:  sched,
		locker: locker,
		delay:  completionDelay,
		log:    log,
	}
}

// Create books a visit for a connected patient. Room and links are
// provisioned before anything is persisted, so a provider failure
// leaves no half-initialized appointment behind. If persistence or
// scheduling fails after the room exists, the room is disabled again
// on a best-effort basis.
func (s *Service) Create(ctx context.Context, doctorID, patientID uuid.UUID, scheduledAt time.Time, description string) (*Appointment, error) {
	if scheduledAt.IsZero() {
		return nil, ErrMissingDateTime
	}
	if scheduledAt.Before(time.Now()) {
		return nil, ErrVisitInPast
	}

	ok, err := s.repo.DoctorExists(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("load doctor: %w", err)
	}
	if !ok {
		return nil, ErrDoctorNotFound
	}

	ok, err = s.repo.PatientExists(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("load patient: %w", err)
	}
	if !ok {
		return nil, ErrPatientNotFound
	}

	ok, err = s.repo.Connected(ctx, doctorID, patientID)
	if err != nil {
		return nil, fmt.Errorf("check connection: %w", err)
	}
	if !ok {
		return nil, ErrNotConnected
	}

	roomName := NewRoomName()
	roomID, err := s.rooms.CreateRoom(ctx, roomName, description)
	if err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}

	doctorLink, err := s.rooms.JoinLink(ctx, roomID, rooms.RoleHost)
	if err != nil {
		s.disableRoomAsync(roomID)
		return nil, fmt.Errorf("issue doctor link: %w", err)
	}

	patientLink, err := s.rooms.JoinLink(ctx, roomID, rooms.RoleGuest)
	if err != nil {
		s.disableRoomAsync(roomID)
		return nil, fmt.Errorf("issue patient link: %w", err)
	}

	appt := &Appointment{
		ID:          uuid.New(),
		DoctorID:    doctorID,
		PatientID:   patientID,
		ScheduledAt: scheduledAt,
		Status:      StatusScheduled,
		RoomID:      roomID,
		RoomName:    roomName,
		DoctorLink:  doctorLink,
		PatientLink: patientLink,
		Description: description,
	}

	created, err := s.repo.Create(ctx, appt)
	if err != nil {
		s.disableRoomAsync(roomID)
		return nil, fmt.Errorf("persist appointment: %w", err)
	}

	handle, err := s.sched.Schedule(ctx, CompletionHandler, CompletionPayload{
		RoomID:        roomID,
		AppointmentID: created.ID,
	}, scheduledAt.Add(s.delay))
	if err != nil {
		// The appointment exists but has no completion task; undo the
		// booking rather than leave it half alive.
		if _, stErr := s.repo.UpdateStatus(ctx, created.ID, StatusScheduled, StatusCancelled); stErr != nil {
			s.log.Error().Err(stErr).Str("appointment_id", created.ID.String()).
				Msg("failed to cancel appointment after scheduling error")
		}
		s.disableRoomAsync(roomID)
		return nil, fmt.Errorf("schedule completion task: %w", err)
	}

	taskID := string(handle)
	if err := s.repo.SetTaskID(ctx, created.ID, &taskID); err != nil {
		_ = s.sched.Cancel(ctx, handle, true)
		if _, stErr := s.repo.UpdateStatus(ctx, created.ID, StatusScheduled, StatusCancelled); stErr != nil {
			s.log.Error().Err(stErr).Str("appointment_id", created.ID.String()).
				Msg("failed to cancel appointment after task handle store error")
		}
		s.disableRoomAsync(roomID)
		return nil, fmt.Errorf("store task handle: %w", err)
	}
	created.TaskID = &taskID

	s.log.Info().
		Str("appointment_id", created.ID.String()).
		Str("room_id", roomID).
		Time("scheduled_at", scheduledAt).
		Str("task_id", taskID).
		Msg("appointment created")

	return created, nil
}

// Reschedule moves the visit to a new date-time. The old completion
// task is cancelled before a replacement is scheduled, so at most one
// pending task references the appointment. Rescheduling to the stored
// date-time leaves the task untouched. Room and links are never
// regenerated.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, newDateTime time.Time, description *string) (*Appointment, error) {
	if newDateTime.IsZero() {
		return nil, ErrMissingDateTime
	}

	var result *Appointment

	err := s.locker.WithAppointmentLock(ctx, id, func(lockCtx context.Context) error {
		appt, err := s.repo.GetByID(lockCtx, id)
		if err != nil {
			return err
		}
		if appt.Status.Terminal() {
			return ErrAlreadyTerminal
		}

		if newDateTime.Equal(appt.ScheduledAt) {
			if description != nil && *description != appt.Description {
				appt, err = s.repo.UpdateDescription(lockCtx, id, *description)
				if err != nil {
					return fmt.Errorf("update description: %w", err)
				}
			}
			result = appt
			return nil
		}

		if newDateTime.Before(time.Now()) {
			return ErrVisitInPast
		}

		if appt.TaskID != nil {
			if err := s.sched.Cancel(lockCtx, scheduler.Handle(*appt.TaskID), true); err != nil {
				return fmt.Errorf("cancel previous completion task: %w", err)
			}
		}

		handle, err := s.sched.Schedule(lockCtx, CompletionHandler, CompletionPayload{
			RoomID:        appt.RoomID,
			AppointmentID: appt.ID,
		}, newDateTime.Add(s.delay))
		if err != nil {
			return fmt.Errorf("schedule completion task: %w", err)
		}

		taskID := string(handle)
		updated, err := s.repo.UpdateSchedule(lockCtx, id, newDateTime, &taskID)
		if err != nil {
			_ = s.sched.Cancel(lockCtx, handle, true)
			return fmt.Errorf("persist reschedule: %w", err)
		}
		if description != nil && *description != updated.Description {
			updated, err = s.repo.UpdateDescription(lockCtx, id, *description)
			if err != nil {
				return fmt.Errorf("update description: %w", err)
			}
		}

		s.log.Info().
			Str("appointment_id", id.String()).
			Time("scheduled_at", newDateTime).
			Str("task_id", taskID).
			Msg("appointment rescheduled")

		result = updated
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrAppointmentBusy
		}
		return nil, err
	}

	return result, nil
}

// Cancel finalizes the appointment as cancelled. The pending completion
// task is dropped first, then the status transition is applied with the
// scheduled-only guard. Room teardown runs in the background and never
// blocks the cancellation itself.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	err := s.locker.WithAppointmentLock(ctx, id, func(lockCtx context.Context) error {
		appt, err := s.repo.GetByID(lockCtx, id)
		if err != nil {
			return err
		}
		if appt.Status.Terminal() {
			return ErrAlreadyTerminal
		}

		if appt.TaskID != nil {
			if err := s.sched.Cancel(lockCtx, scheduler.Handle(*appt.TaskID), true); err != nil {
				// The status guard below still defuses a task that fires
				// anyway, so cancellation proceeds.
				s.log.Warn().Err(err).
					Str("appointment_id", id.String()).
					Msg("failed to cancel completion task")
			}
		}

		if _, err := s.repo.UpdateStatus(lockCtx, id, StatusScheduled, StatusCancelled); err != nil {
			if errors.Is(err, ErrAppointmentNotFound) {
				// Guard miss: the completion task won the race.
				return ErrAlreadyTerminal
			}
			return fmt.Errorf("cancel appointment: %w", err)
		}

		s.disableRoomAsync(appt.RoomID)

		s.log.Info().
			Str("appointment_id", id.String()).
			Str("room_id", appt.RoomID).
			Msg("appointment cancelled")

		return nil
	})
	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		return ErrAppointmentBusy
	}
	return err
}

// HandleCompletion is invoked by the scheduler worker at the task's
// fire time. It disables the room and completes the appointment only
// if it is still scheduled; a concurrent cancellation makes this a
// harmless cleanup pass.
func (s *Service) HandleCompletion(ctx context.Context, payload json.RawMessage) error {
	var p CompletionPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode completion payload: %w", err)
	}

	if _, err := s.rooms.DisableRoom(ctx, p.RoomID); err != nil {
		// Disabling an already disabled room never errors on the
		// provider side; transport failures are logged and completion
		// proceeds so the record does not stay scheduled forever.
		s.log.Warn().Err(err).
			Str("room_id", p.RoomID).
			Str("appointment_id", p.AppointmentID.String()).
			Msg("failed to disable room on completion")
	}

	updated, err := s.repo.UpdateStatus(ctx, p.AppointmentID, StatusScheduled, StatusCompleted)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			s.log.Info().
				Str("appointment_id", p.AppointmentID.String()).
				Msg("completion fired on non-scheduled appointment, no-op")
			return nil
		}
		return fmt.Errorf("complete appointment: %w", err)
	}

	s.log.Info().
		Str("appointment_id", updated.ID.String()).
		Str("room_id", p.RoomID).
		Msg("appointment completed")

	return nil
}

// Get retrieves an appointment by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

// List retrieves appointments filtered by doctor, patient and status.
func (s *Service) List(ctx context.Context, f Filter) ([]Appointment, error) {
	appts, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}

// disableRoomAsync tears a room down without blocking the caller. The
// request context may already be done, so a fresh one is used.
func (s *Service) disableRoomAsync(roomID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if _, err := s.rooms.DisableRoom(ctx, roomID); err != nil {
			s.log.Warn().Err(err).Str("room_id", roomID).Msg("background room disable failed")
			return
		}
		s.log.Debug().Str("room_id", roomID).Msg("room disabled")
	}()
}
