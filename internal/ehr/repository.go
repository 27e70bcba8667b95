package ehr

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrDoctorNotFound     = errors.New("doctor not found")
	ErrPatientNotFound    = errors.New("patient not found")
	ErrRequestNotFound    = errors.New("connection request not found")
	ErrMedicationNotFound = errors.New("medication not found")
	ErrReportNotFound     = errors.New("report not found")
	ErrDuplicateRequest   = errors.New("a connection request between this patient and doctor already exists")
	ErrAlreadyConnected   = errors.New("patient is already connected to this doctor")
)

// Repository contains all DB interactions for the EHR surface outside
// the appointment lifecycle.
type Repository interface {
	CreateDoctor(ctx context.Context, d *Doctor) (*Doctor, error)
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	ListDoctors(ctx context.Context, specialization *Specialization, limit, offset int) ([]Doctor, error)

	CreatePatient(ctx context.Context, p *Patient) (*Patient, error)
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	UpdateVitals(ctx context.Context, patientID uuid.UUID, v Vitals) (*Patient, error)

	CreateConnectionRequest(ctx context.Context, req *ConnectionRequest) (*ConnectionRequest, error)
	GetConnectionRequest(ctx context.Context, id uuid.UUID) (*ConnectionRequest, error)
	ListConnectionRequestsForDoctor(ctx context.Context, doctorID uuid.UUID, status *RequestStatus) ([]ConnectionRequest, error)
	// ApproveConnectionRequest flips the request to APPROVED and inserts
	// the doctor-patient connection in one transaction.
	ApproveConnectionRequest(ctx context.Context, id uuid.UUID) (*ConnectionRequest, error)
	RejectConnectionRequest(ctx context.Context, id uuid.UUID) (*ConnectionRequest, error)
	ListPatientsForDoctor(ctx context.Context, doctorID uuid.UUID) ([]Patient, error)

	CreateMedication(ctx context.Context, m *Medication) (*Medication, error)
	GetMedicationByID(ctx context.Context, id uuid.UUID) (*Medication, error)
	UpdateMedication(ctx context.Context, m *Medication) (*Medication, error)
	DeleteMedication(ctx context.Context, id uuid.UUID) error
	ListMedicationsForPatient(ctx context.Context, patientID uuid.UUID) ([]Medication, error)

	CreateReport(ctx context.Context, r *Report) (*Report, error)
	GetReportByID(ctx context.Context, id uuid.UUID) (*Report, error)
	UpdateReport(ctx context.Context, r *Report) (*Report, error)
	DeleteReport(ctx context.Context, id uuid.UUID) error
	ListReportsForPatient(ctx context.Context, patientID uuid.UUID, reportType *ReportType) ([]Report, error)
}
