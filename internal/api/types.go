package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/webdoctor/ehr-server/internal/appointment"
	"github.com/webdoctor/ehr-server/internal/ehr"
)

// Appointments

type CreateAppointmentRequest struct {
	DoctorID    string    `json:"doctor_id" validate:"required,uuid4"`
	PatientID   string    `json:"patient_id" validate:"required,uuid4"`
	DateTime    time.Time `json:"date_time" validate:"required"`
	Description string    `json:"description" validate:"max=500"`
}

type RescheduleAppointmentRequest struct {
	DateTime    time.Time `json:"date_time" validate:"required"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=500"`
}

type AppointmentResponse struct {
	ID          uuid.UUID `json:"id"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	PatientID   uuid.UUID `json:"patient_id"`
	DateTime    time.Time `json:"date_time"`
	Status      string    `json:"status"`
	RoomID      string    `json:"room_id"`
	RoomName    string    `json:"room_name"`
	DoctorLink  string    `json:"doctor_link"`
	PatientLink string    `json:"patient_link"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:          a.ID,
		DoctorID:    a.DoctorID,
		PatientID:   a.PatientID,
		DateTime:    a.ScheduledAt,
		Status:      string(a.Status),
		RoomID:      a.RoomID,
		RoomName:    a.RoomName,
		DoctorLink:  a.DoctorLink,
		PatientLink: a.PatientLink,
		Description: a.Description,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// Profiles

type RegisterDoctorRequest struct {
	FirstName       string  `json:"first_name" validate:"required,max=100"`
	LastName        string  `json:"last_name" validate:"required,max=100"`
	Specialization  string  `json:"specialization" validate:"omitempty,max=20"`
	LicenseNumber   string  `json:"license_number" validate:"required,max=50"`
	ExperienceYears int     `json:"experience_years" validate:"gte=0"`
	Education       string  `json:"education"`
	ConsultationFee float64 `json:"consultation_fee" validate:"gte=0"`
	Bio             string  `json:"bio"`
}

type RegisterPatientRequest struct {
	FirstName         string     `json:"first_name" validate:"required,max=100"`
	LastName          string     `json:"last_name" validate:"required,max=100"`
	DateOfBirth       *time.Time `json:"date_of_birth,omitempty"`
	EmergencyContact  string     `json:"emergency_contact" validate:"required,max=15"`
	BloodType         *string    `json:"blood_type,omitempty" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	ChronicConditions []string   `json:"chronic_conditions,omitempty"`
}

type UpdateVitalsRequest struct {
	HeightCM        *float64 `json:"height_cm,omitempty" validate:"omitempty,gt=0"`
	WeightKG        *float64 `json:"weight_kg,omitempty" validate:"omitempty,gt=0"`
	BodyTemperature *float64 `json:"body_temperature,omitempty" validate:"omitempty,gt=0"`
	HeartRate       *int     `json:"heart_rate,omitempty" validate:"omitempty,gt=0"`
	RespiratoryRate *int     `json:"respiratory_rate,omitempty" validate:"omitempty,gt=0"`
}

type DoctorResponse struct {
	ID              uuid.UUID `json:"id"`
	UID             string    `json:"uid"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Specialization  string    `json:"specialization"`
	LicenseNumber   string    `json:"license_number"`
	ExperienceYears int       `json:"experience_years"`
	Education       string    `json:"education,omitempty"`
	ConsultationFee float64   `json:"consultation_fee"`
	Bio             string    `json:"bio,omitempty"`
}

func toDoctorResponse(d *ehr.Doctor) DoctorResponse {
	return DoctorResponse{
		ID:              d.ID,
		UID:             d.UID,
		FirstName:       d.FirstName,
		LastName:        d.LastName,
		Specialization:  string(d.Specialization),
		LicenseNumber:   d.LicenseNumber,
		ExperienceYears: d.ExperienceYears,
		Education:       d.Education,
		ConsultationFee: d.ConsultationFee,
		Bio:             d.Bio,
	}
}

type PatientResponse struct {
	ID                uuid.UUID  `json:"id"`
	UID               string     `json:"uid"`
	FirstName         string     `json:"first_name"`
	LastName          string     `json:"last_name"`
	DateOfBirth       *time.Time `json:"date_of_birth,omitempty"`
	EmergencyContact  string     `json:"emergency_contact"`
	BloodType         *string    `json:"blood_type,omitempty"`
	ChronicConditions []string   `json:"chronic_conditions,omitempty"`
	HeightCM          *float64   `json:"height_cm,omitempty"`
	WeightKG          *float64   `json:"weight_kg,omitempty"`
	BodyTemperature   *float64   `json:"body_temperature,omitempty"`
	HeartRate         *int       `json:"heart_rate,omitempty"`
	RespiratoryRate   *int       `json:"respiratory_rate,omitempty"`
}

func toPatientResponse(p *ehr.Patient) PatientResponse {
	return PatientResponse{
		ID:                p.ID,
		UID:               p.UID,
		FirstName:         p.FirstName,
		LastName:          p.LastName,
		DateOfBirth:       p.DateOfBirth,
		EmergencyContact:  p.EmergencyContact,
		BloodType:         p.BloodType,
		ChronicConditions: p.ChronicConditions,
		HeightCM:          p.Vitals.HeightCM,
		WeightKG:          p.Vitals.WeightKG,
		BodyTemperature:   p.Vitals.BodyTemperature,
		HeartRate:         p.Vitals.HeartRate,
		RespiratoryRate:   p.Vitals.RespiratoryRate,
	}
}

// Connections

type ConnectionRequestRequest struct {
	PatientID string `json:"patient_id" validate:"required,uuid4"`
	DoctorID  string `json:"doctor_id" validate:"required,uuid4"`
	Notes     string `json:"notes" validate:"max=500"`
}

type ConnectionRequestResponse struct {
	ID          uuid.UUID `json:"id"`
	PatientID   uuid.UUID `json:"patient_id"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	Status      string    `json:"status"`
	Notes       string    `json:"notes,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

func toConnectionRequestResponse(cr *ehr.ConnectionRequest) ConnectionRequestResponse {
	return ConnectionRequestResponse{
		ID:          cr.ID,
		PatientID:   cr.PatientID,
		DoctorID:    cr.DoctorID,
		Status:      string(cr.Status),
		Notes:       cr.Notes,
		RequestedAt: cr.RequestedAt,
	}
}

// Medications

type PrescribeRequest struct {
	DoctorID     string     `json:"doctor_id" validate:"required,uuid4"`
	Name         string     `json:"name" validate:"required,max=50"`
	DosageMG     int        `json:"dosage_mg" validate:"required,gt=0"`
	Frequency    string     `json:"frequency" validate:"required,max=100"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	DurationDays int        `json:"duration_days" validate:"required,gt=0"`
}

type UpdateMedicationRequest struct {
	Name         string     `json:"name" validate:"required,max=50"`
	DosageMG     int        `json:"dosage_mg" validate:"required,gt=0"`
	Frequency    string     `json:"frequency" validate:"required,max=100"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	DurationDays int        `json:"duration_days" validate:"required,gt=0"`
	Status       string     `json:"status" validate:"omitempty,oneof=ACTIVE DISCONTINUED"`
}

type MedicationResponse struct {
	ID           uuid.UUID `json:"id"`
	PatientID    uuid.UUID `json:"patient_id"`
	DoctorID     uuid.UUID `json:"doctor_id"`
	Name         string    `json:"name"`
	DosageMG     int       `json:"dosage_mg"`
	Frequency    string    `json:"frequency"`
	StartDate    time.Time `json:"start_date"`
	DurationDays int       `json:"duration_days"`
	EndDate      time.Time `json:"end_date"`
	Status       string    `json:"status"`
	IssuedAt     time.Time `json:"issued_at"`
}

func toMedicationResponse(m *ehr.Medication) MedicationResponse {
	return MedicationResponse{
		ID:           m.ID,
		PatientID:    m.PatientID,
		DoctorID:     m.DoctorID,
		Name:         m.Name,
		DosageMG:     m.DosageMG,
		Frequency:    m.Frequency,
		StartDate:    m.StartDate,
		DurationDays: m.DurationDays,
		EndDate:      m.EndDate(),
		Status:       string(m.Status),
		IssuedAt:     m.IssuedAt,
	}
}

// Reports

type AddReportRequest struct {
	UploadedBy  string    `json:"uploaded_by" validate:"required,uuid4"`
	Title       string    `json:"title" validate:"required,max=200"`
	Type        string    `json:"type" validate:"required,oneof=BLOOD_TEST X_RAY MRI CT_SCAN ULTRASOUND ECG ECHO BIOPSY PATHOLOGY OTHER"`
	ReportDate  time.Time `json:"report_date" validate:"required"`
	Description string    `json:"description"`
	LabFacility string    `json:"lab_facility" validate:"max=200"`
	FileName    string    `json:"file_name" validate:"required,max=255"`
	FileSize    int64     `json:"file_size" validate:"gte=0"`
	ContentType string    `json:"content_type" validate:"max=100"`
}

type UpdateReportRequest struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Type        string    `json:"type" validate:"required,oneof=BLOOD_TEST X_RAY MRI CT_SCAN ULTRASOUND ECG ECHO BIOPSY PATHOLOGY OTHER"`
	ReportDate  time.Time `json:"report_date" validate:"required"`
	Description string    `json:"description"`
	LabFacility string    `json:"lab_facility" validate:"max=200"`
}

type ReportResponse struct {
	ID          uuid.UUID `json:"id"`
	PatientID   uuid.UUID `json:"patient_id"`
	UploadedBy  uuid.UUID `json:"uploaded_by"`
	Title       string    `json:"title"`
	Type        string    `json:"type"`
	ReportDate  time.Time `json:"report_date"`
	Description string    `json:"description,omitempty"`
	LabFacility string    `json:"lab_facility,omitempty"`
	FileName    string    `json:"file_name"`
	FileSize    int64     `json:"file_size"`
	ContentType string    `json:"content_type,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

func toReportResponse(rep *ehr.Report) ReportResponse {
	return ReportResponse{
		ID:          rep.ID,
		PatientID:   rep.PatientID,
		UploadedBy:  rep.UploadedBy,
		Title:       rep.Title,
		Type:        string(rep.Type),
		ReportDate:  rep.ReportDate,
		Description: rep.Description,
		LabFacility: rep.LabFacility,
		FileName:    rep.FileName,
		FileSize:    rep.FileSize,
		ContentType: rep.ContentType,
		UploadedAt:  rep.UploadedAt,
	}
}
