package ehr

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Specialization string

const (
	SpecCardiology       Specialization = "CARDIOLOGY"
	SpecDermatology      Specialization = "DERMATOLOGY"
	SpecEndocrinology    Specialization = "ENDOCRINOLOGY"
	SpecGastroenterology Specialization = "GASTROENTEROLOGY"
	SpecNeurology        Specialization = "NEUROLOGY"
	SpecOncology         Specialization = "ONCOLOGY"
	SpecOrthopedics      Specialization = "ORTHOPEDICS"
	SpecPediatrics       Specialization = "PEDIATRICS"
	SpecPsychiatry       Specialization = "PSYCHIATRY"
	SpecRadiology        Specialization = "RADIOLOGY"
	SpecSurgery          Specialization = "SURGERY"
	SpecGeneral          Specialization = "GENERAL"
)

type Doctor struct {
	ID              uuid.UUID
	UID             string // DOCTOR-XXXXXXXXXX, assigned once
	FirstName       string
	LastName        string
	Specialization  Specialization
	LicenseNumber   string
	ExperienceYears int
	Education       string
	ConsultationFee float64
	Bio             string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (d *Doctor) FullName() string {
	return "Dr. " + d.FirstName + " " + d.LastName
}

// Vitals are the measurements a doctor records during a visit.
type Vitals struct {
	HeightCM        *float64
	WeightKG        *float64
	BodyTemperature *float64 // Celsius
	HeartRate       *int     // bpm
	RespiratoryRate *int     // breaths per minute
}

type Patient struct {
	ID                uuid.UUID
	UID               string // PATIENT-XXXXXXXXXX, assigned once
	FirstName         string
	LastName          string
	DateOfBirth       *time.Time
	EmergencyContact  string
	BloodType         *string
	ChronicConditions []string
	Vitals            Vitals
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

// Age returns full years since date of birth, or -1 when unknown.
func (p *Patient) Age() int {
	if p.DateOfBirth == nil {
		return -1
	}
	now := time.Now()
	years := now.Year() - p.DateOfBirth.Year()
	if now.YearDay() < p.DateOfBirth.YearDay() {
		years--
	}
	return years
}

type RequestStatus string

const (
	RequestPending  RequestStatus = "PENDING"
	RequestApproved RequestStatus = "APPROVED"
	RequestRejected RequestStatus = "REJECTED"
)

// ConnectionRequest is a patient asking a doctor to take them on.
// Approval creates the connection that booking requires.
type ConnectionRequest struct {
	ID          uuid.UUID
	PatientID   uuid.UUID
	DoctorID    uuid.UUID
	Status      RequestStatus
	Notes       string
	RequestedAt time.Time
}

type Connection struct {
	DoctorID    uuid.UUID
	PatientID   uuid.UUID
	ConnectedAt time.Time
}

type MedicationStatus string

const (
	MedicationActive       MedicationStatus = "ACTIVE"
	MedicationDiscontinued MedicationStatus = "DISCONTINUED"
)

type Medication struct {
	ID           uuid.UUID
	PatientID    uuid.UUID
	DoctorID     uuid.UUID
	Name         string
	DosageMG     int
	Frequency    string // e.g. "Twice a day"
	StartDate    time.Time
	DurationDays int
	Status       MedicationStatus
	IssuedAt     time.Time
	UpdatedAt    time.Time
}

// EndDate is the last day the medication should be taken.
func (m *Medication) EndDate() time.Time {
	return m.StartDate.AddDate(0, 0, m.DurationDays)
}

type ReportType string

const (
	ReportBloodTest  ReportType = "BLOOD_TEST"
	ReportXRay       ReportType = "X_RAY"
	ReportMRI        ReportType = "MRI"
	ReportCTScan     ReportType = "CT_SCAN"
	ReportUltrasound ReportType = "ULTRASOUND"
	ReportECG        ReportType = "ECG"
	ReportEcho       ReportType = "ECHO"
	ReportBiopsy     ReportType = "BIOPSY"
	ReportPathology  ReportType = "PATHOLOGY"
	ReportOther      ReportType = "OTHER"
)

// Report holds metadata about an uploaded medical report. The blob
// itself lives in external storage keyed by FileName.
type Report struct {
	ID          uuid.UUID
	PatientID   uuid.UUID
	UploadedBy  uuid.UUID
	Title       string
	Type        ReportType
	ReportDate  time.Time
	Description string
	LabFacility string
	FileName    string
	FileSize    int64
	ContentType string
	UploadedAt  time.Time
}

// NewUID returns a prefixed short identifier, e.g. PATIENT-3F9A1C04D2.
func NewUID(prefix string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	return prefix + "-" + strings.ToUpper(suffix)
}
