package appointment

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further status transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Appointment is a booked video consultation between a doctor and a
// connected patient. RoomID, RoomName and both join links are assigned
// once at creation and never regenerated. TaskID references the pending
// deferred completion task, nil once the appointment is terminal.
type Appointment struct {
	ID          uuid.UUID
	DoctorID    uuid.UUID
	PatientID   uuid.UUID
	ScheduledAt time.Time
	Status      Status
	RoomID      string
	RoomName    string
	DoctorLink  string
	PatientLink string
	Description string
	TaskID      *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CompletionPayload is carried by the deferred completion task.
type CompletionPayload struct {
	RoomID        string    `json:"room_id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
}

// NewRoomName returns a globally unique display name for a consultation room.
func NewRoomName() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	return "WebDoctor-Appointment-" + strings.ToUpper(suffix)
}
