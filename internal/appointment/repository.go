package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrNotConnected        = errors.New("patient is not connected to this doctor")
)

// Filter narrows appointment listings. Nil fields match everything.
type Filter struct {
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
	Status    *Status
	Limit     int
	Offset    int
}

// Repository contains all DB interactions needed by the lifecycle service.
type Repository interface {
	DoctorExists(ctx context.Context, id uuid.UUID) (bool, error)
	PatientExists(ctx context.Context, id uuid.UUID) (bool, error)
	Connected(ctx context.Context, doctorID, patientID uuid.UUID) (bool, error)

	Create(ctx context.Context, appt *Appointment) (*Appointment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// UpdateStatus applies a guarded transition and returns
	// ErrAppointmentNotFound when the from-status no longer matches.
	// That guard is what resolves the cancel vs complete race.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)

	UpdateSchedule(ctx context.Context, id uuid.UUID, scheduledAt time.Time, taskID *string) (*Appointment, error)
	UpdateDescription(ctx context.Context, id uuid.UUID, description string) (*Appointment, error)
	SetTaskID(ctx context.Context, id uuid.UUID, taskID *string) error

	List(ctx context.Context, f Filter) ([]Appointment, error)
}
