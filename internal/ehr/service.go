package ehr

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrInvalidMedication = errors.New("medication needs a name, a positive dosage and a positive duration")
	ErrInvalidReport     = errors.New("report needs a title, a type and a report date")
)

// Service covers the conventional EHR surface: profiles, the
// connection approval flow, prescriptions and report metadata.
type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) RegisterDoctor(ctx context.Context, d *Doctor) (*Doctor, error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.UID == "" {
		d.UID = NewUID("DOCTOR")
	}
	if d.Specialization == "" {
		d.Specialization = SpecGeneral
	}

	created, err := s.repo.CreateDoctor(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("register doctor: %w", err)
	}

	s.log.Info().Str("doctor_id", created.ID.String()).Str("uid", created.UID).Msg("doctor registered")
	return created, nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.repo.GetDoctorByID(ctx, id)
}

func (s *Service) ListDoctors(ctx context.Context, specialization *Specialization, limit, offset int) ([]Doctor, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListDoctors(ctx, specialization, limit, offset)
}

func (s *Service) RegisterPatient(ctx context.Context, p *Patient) (*Patient, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.UID == "" {
		p.UID = NewUID("PATIENT")
	}

	created, err := s.repo.CreatePatient(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("register patient: %w", err)
	}

	s.log.Info().Str("patient_id", created.ID.String()).Str("uid", created.UID).Msg("patient registered")
	return created, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetPatientByID(ctx, id)
}

func (s *Service) UpdateVitals(ctx context.Context, patientID uuid.UUID, v Vitals) (*Patient, error) {
	updated, err := s.repo.UpdateVitals(ctx, patientID, v)
	if err != nil {
		return nil, fmt.Errorf("update vitals: %w", err)
	}
	return updated, nil
}

// RequestConnection records a patient asking to be taken on by a doctor.
func (s *Service) RequestConnection(ctx context.Context, patientID, doctorID uuid.UUID, notes string) (*ConnectionRequest, error) {
	if _, err := s.repo.GetPatientByID(ctx, patientID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetDoctorByID(ctx, doctorID); err != nil {
		return nil, err
	}

	req := &ConnectionRequest{
		ID:        uuid.New(),
		PatientID: patientID,
		DoctorID:  doctorID,
		Status:    RequestPending,
		Notes:     notes,
	}

	created, err := s.repo.CreateConnectionRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("request_id", created.ID.String()).
		Str("patient_id", patientID.String()).
		Str("doctor_id", doctorID.String()).
		Msg("connection requested")

	return created, nil
}

// ApproveConnection connects the patient to the doctor, which is the
// prerequisite for booking appointments.
func (s *Service) ApproveConnection(ctx context.Context, requestID uuid.UUID) (*ConnectionRequest, error) {
	approved, err := s.repo.ApproveConnectionRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("request_id", approved.ID.String()).
		Str("patient_id", approved.PatientID.String()).
		Str("doctor_id", approved.DoctorID.String()).
		Msg("connection approved")

	return approved, nil
}

func (s *Service) RejectConnection(ctx context.Context, requestID uuid.UUID) (*ConnectionRequest, error) {
	return s.repo.RejectConnectionRequest(ctx, requestID)
}

func (s *Service) ListConnectionRequests(ctx context.Context, doctorID uuid.UUID, status *RequestStatus) ([]ConnectionRequest, error) {
	return s.repo.ListConnectionRequestsForDoctor(ctx, doctorID, status)
}

func (s *Service) ListPatients(ctx context.Context, doctorID uuid.UUID) ([]Patient, error) {
	return s.repo.ListPatientsForDoctor(ctx, doctorID)
}

// Prescribe writes a new medication for a patient.
func (s *Service) Prescribe(ctx context.Context, m *Medication) (*Medication, error) {
	if m.Name == "" || m.DosageMG <= 0 || m.DurationDays <= 0 {
		return nil, ErrInvalidMedication
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.StartDate.IsZero() {
		m.StartDate = time.Now()
	}
	if m.Status == "" {
		m.Status = MedicationActive
	}

	created, err := s.repo.CreateMedication(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("prescribe medication: %w", err)
	}

	s.log.Info().
		Str("medication_id", created.ID.String()).
		Str("patient_id", created.PatientID.String()).
		Str("name", created.Name).
		Msg("medication prescribed")

	return created, nil
}

func (s *Service) GetMedication(ctx context.Context, id uuid.UUID) (*Medication, error) {
	return s.repo.GetMedicationByID(ctx, id)
}

func (s *Service) UpdateMedication(ctx context.Context, m *Medication) (*Medication, error) {
	if m.Name == "" || m.DosageMG <= 0 || m.DurationDays <= 0 {
		return nil, ErrInvalidMedication
	}
	return s.repo.UpdateMedication(ctx, m)
}

func (s *Service) DiscontinueMedication(ctx context.Context, id uuid.UUID) (*Medication, error) {
	m, err := s.repo.GetMedicationByID(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Status = MedicationDiscontinued
	return s.repo.UpdateMedication(ctx, m)
}

func (s *Service) DeleteMedication(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteMedication(ctx, id)
}

func (s *Service) ListMedications(ctx context.Context, patientID uuid.UUID) ([]Medication, error) {
	return s.repo.ListMedicationsForPatient(ctx, patientID)
}

// AddReport stores report metadata; the file itself is stored elsewhere.
func (s *Service) AddReport(ctx context.Context, rep *Report) (*Report, error) {
	if rep.Title == "" || rep.Type == "" || rep.ReportDate.IsZero() {
		return nil, ErrInvalidReport
	}
	if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}

	created, err := s.repo.CreateReport(ctx, rep)
	if err != nil {
		return nil, fmt.Errorf("add report: %w", err)
	}

	s.log.Info().
		Str("report_id", created.ID.String()).
		Str("patient_id", created.PatientID.String()).
		Str("type", string(created.Type)).
		Msg("report added")

	return created, nil
}

func (s *Service) GetReport(ctx context.Context, id uuid.UUID) (*Report, error) {
	return s.repo.GetReportByID(ctx, id)
}

func (s *Service) UpdateReport(ctx context.Context, rep *Report) (*Report, error) {
	if rep.Title == "" || rep.Type == "" || rep.ReportDate.IsZero() {
		return nil, ErrInvalidReport
	}
	return s.repo.UpdateReport(ctx, rep)
}

func (s *Service) DeleteReport(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteReport(ctx, id)
}

func (s *Service) ListReports(ctx context.Context, patientID uuid.UUID, reportType *ReportType) ([]Report, error) {
	return s.repo.ListReportsForPatient(ctx, patientID, reportType)
}
