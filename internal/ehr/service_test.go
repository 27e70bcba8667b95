package ehr

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRepo mirrors the Postgres repository semantics in memory, including
// the PENDING-only guard on approve/reject and the duplicate checks on
// connection requests.
type memRepo struct {
	doctors     map[uuid.UUID]*Doctor
	patients    map[uuid.UUID]*Patient
	requests    map[uuid.UUID]*ConnectionRequest
	connections map[string]bool
	medications map[uuid.UUID]*Medication
	reports     map[uuid.UUID]*Report
}

func newMemRepo() *memRepo {
	return &memRepo{
		doctors:     make(map[uuid.UUID]*Doctor),
		patients:    make(map[uuid.UUID]*Patient),
		requests:    make(map[uuid.UUID]*ConnectionRequest),
		connections: make(map[string]bool),
		medications: make(map[uuid.UUID]*Medication),
		reports:     make(map[uuid.UUID]*Report),
	}
}

func pairKey(doctorID, patientID uuid.UUID) string {
	return doctorID.String() + ":" + patientID.String()
}

func (r *memRepo) CreateDoctor(ctx context.Context, d *Doctor) (*Doctor, error) {
	cp := *d
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	r.doctors[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memRepo) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, ok := r.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *memRepo) ListDoctors(ctx context.Context, specialization *Specialization, limit, offset int) ([]Doctor, error) {
	var out []Doctor
	for _, d := range r.doctors {
		if specialization != nil && d.Specialization != *specialization {
			continue
		}
		out = append(out, *d)
	}
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *memRepo) CreatePatient(ctx context.Context, p *Patient) (*Patient, error) {
	cp := *p
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	r.patients[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memRepo) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := r.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memRepo) UpdateVitals(ctx context.Context, patientID uuid.UUID, v Vitals) (*Patient, error) {
	p, ok := r.patients[patientID]
	if !ok {
		return nil, ErrPatientNotFound
	}
	p.Vitals = v
	p.UpdatedAt = time.Now()
	cp := *p
	return &cp, nil
}

func (r *memRepo) CreateConnectionRequest(ctx context.Context, req *ConnectionRequest) (*ConnectionRequest, error) {
	for _, existing := range r.requests {
		if existing.PatientID == req.PatientID && existing.DoctorID == req.DoctorID && existing.Status == RequestPending {
			return nil, ErrDuplicateRequest
		}
	}
	if r.connections[pairKey(req.DoctorID, req.PatientID)] {
		return nil, ErrAlreadyConnected
	}
	cp := *req
	cp.Status = RequestPending
	cp.RequestedAt = time.Now()
	r.requests[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memRepo) GetConnectionRequest(ctx context.Context, id uuid.UUID) (*ConnectionRequest, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, ErrRequestNotFound
	}
	cp := *req
	return &cp, nil
}

func (r *memRepo) ListConnectionRequestsForDoctor(ctx context.Context, doctorID uuid.UUID, status *RequestStatus) ([]ConnectionRequest, error) {
	var out []ConnectionRequest
	for _, req := range r.requests {
		if req.DoctorID != doctorID {
			continue
		}
		if status != nil && req.Status != *status {
			continue
		}
		out = append(out, *req)
	}
	return out, nil
}

func (r *memRepo) ApproveConnectionRequest(ctx context.Context, id uuid.UUID) (*ConnectionRequest, error) {
	req, ok := r.requests[id]
	if !ok || req.Status != RequestPending {
		return nil, ErrRequestNotFound
	}
	req.Status = RequestApproved
	r.connections[pairKey(req.DoctorID, req.PatientID)] = true
	cp := *req
	return &cp, nil
}

func (r *memRepo) RejectConnectionRequest(ctx context.Context, id uuid.UUID) (*ConnectionRequest, error) {
	req, ok := r.requests[id]
	if !ok || req.Status != RequestPending {
		return nil, ErrRequestNotFound
	}
	req.Status = RequestRejected
	cp := *req
	return &cp, nil
}

func (r *memRepo) ListPatientsForDoctor(ctx context.Context, doctorID uuid.UUID) ([]Patient, error) {
	var out []Patient
	for _, p := range r.patients {
		if r.connections[pairKey(doctorID, p.ID)] {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memRepo) CreateMedication(ctx context.Context, m *Medication) (*Medication, error) {
	cp := *m
	cp.IssuedAt = time.Now()
	cp.UpdatedAt = cp.IssuedAt
	r.medications[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memRepo) GetMedicationByID(ctx context.Context, id uuid.UUID) (*Medication, error) {
	m, ok := r.medications[id]
	if !ok {
		return nil, ErrMedicationNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *memRepo) UpdateMedication(ctx context.Context, m *Medication) (*Medication, error) {
	stored, ok := r.medications[m.ID]
	if !ok {
		return nil, ErrMedicationNotFound
	}
	stored.Name = m.Name
	stored.DosageMG = m.DosageMG
	stored.Frequency = m.Frequency
	stored.StartDate = m.StartDate
	stored.DurationDays = m.DurationDays
	stored.Status = m.Status
	stored.UpdatedAt = time.Now()
	cp := *stored
	return &cp, nil
}

func (r *memRepo) DeleteMedication(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.medications[id]; !ok {
		return ErrMedicationNotFound
	}
	delete(r.medications, id)
	return nil
}

func (r *memRepo) ListMedicationsForPatient(ctx context.Context, patientID uuid.UUID) ([]Medication, error) {
	var out []Medication
	for _, m := range r.medications {
		if m.PatientID == patientID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *memRepo) CreateReport(ctx context.Context, rep *Report) (*Report, error) {
	cp := *rep
	cp.UploadedAt = time.Now()
	r.reports[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memRepo) GetReportByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	rep, ok := r.reports[id]
	if !ok {
		return nil, ErrReportNotFound
	}
	cp := *rep
	return &cp, nil
}

func (r *memRepo) UpdateReport(ctx context.Context, rep *Report) (*Report, error) {
	stored, ok := r.reports[rep.ID]
	if !ok {
		return nil, ErrReportNotFound
	}
	stored.Title = rep.Title
	stored.Type = rep.Type
	stored.ReportDate = rep.ReportDate
	stored.Description = rep.Description
	stored.LabFacility = rep.LabFacility
	cp := *stored
	return &cp, nil
}

func (r *memRepo) DeleteReport(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.reports[id]; !ok {
		return ErrReportNotFound
	}
	delete(r.reports, id)
	return nil
}

func (r *memRepo) ListReportsForPatient(ctx context.Context, patientID uuid.UUID, reportType *ReportType) ([]Report, error) {
	var out []Report
	for _, rep := range r.reports {
		if rep.PatientID != patientID {
			continue
		}
		if reportType != nil && rep.Type != *reportType {
			continue
		}
		out = append(out, *rep)
	}
	return out, nil
}

func newTestService() (*Service, *memRepo) {
	repo := newMemRepo()
	return NewService(repo, zerolog.Nop()), repo
}

func registerPair(t *testing.T, svc *Service) (*Doctor, *Patient) {
	t.Helper()
	d, err := svc.RegisterDoctor(context.Background(), &Doctor{FirstName: "Maya", LastName: "Okafor", Specialization: SpecCardiology, LicenseNumber: "L-1234"})
	require.NoError(t, err)
	p, err := svc.RegisterPatient(context.Background(), &Patient{FirstName: "Jon", LastName: "Reyes"})
	require.NoError(t, err)
	return d, p
}

func TestRegisterDoctor_AssignsIDAndUID(t *testing.T) {
	svc, _ := newTestService()

	d, err := svc.RegisterDoctor(context.Background(), &Doctor{FirstName: "Maya", LastName: "Okafor"})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, d.ID)
	assert.Regexp(t, `^DOCTOR-`, d.UID)
	assert.Equal(t, SpecGeneral, d.Specialization, "specialization defaults when omitted")
}

func TestRegisterPatient_AssignsIDAndUID(t *testing.T) {
	svc, _ := newTestService()

	p, err := svc.RegisterPatient(context.Background(), &Patient{FirstName: "Jon", LastName: "Reyes"})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Regexp(t, `^PATIENT-`, p.UID)
}

func TestUpdateVitals(t *testing.T) {
	svc, _ := newTestService()
	_, p := registerPair(t, svc)

	height := 178.0
	hr := 64
	updated, err := svc.UpdateVitals(context.Background(), p.ID, Vitals{HeightCM: &height, HeartRate: &hr})
	require.NoError(t, err)

	require.NotNil(t, updated.Vitals.HeightCM)
	assert.Equal(t, 178.0, *updated.Vitals.HeightCM)
	require.NotNil(t, updated.Vitals.HeartRate)
	assert.Equal(t, 64, *updated.Vitals.HeartRate)

	_, err = svc.UpdateVitals(context.Background(), uuid.New(), Vitals{})
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestConnectionFlow_RequestApproveList(t *testing.T) {
	svc, _ := newTestService()
	d, p := registerPair(t, svc)

	req, err := svc.RequestConnection(context.Background(), p.ID, d.ID, "referred by Dr. Lang")
	require.NoError(t, err)
	assert.Equal(t, RequestPending, req.Status)

	// Duplicate pending request is rejected.
	_, err = svc.RequestConnection(context.Background(), p.ID, d.ID, "")
	assert.ErrorIs(t, err, ErrDuplicateRequest)

	approved, err := svc.ApproveConnection(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, RequestApproved, approved.Status)

	patients, err := svc.ListPatients(context.Background(), d.ID)
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, p.ID, patients[0].ID)

	// A new request for an already connected pair is rejected.
	_, err = svc.RequestConnection(context.Background(), p.ID, d.ID, "")
	assert.ErrorIs(t, err, ErrAlreadyConnected)
}

func TestConnectionFlow_RejectAndReapprove(t *testing.T) {
	svc, _ := newTestService()
	d, p := registerPair(t, svc)

	req, err := svc.RequestConnection(context.Background(), p.ID, d.ID, "")
	require.NoError(t, err)

	rejected, err := svc.RejectConnection(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, RequestRejected, rejected.Status)

	// A settled request cannot be approved afterwards.
	_, err = svc.ApproveConnection(context.Background(), req.ID)
	assert.ErrorIs(t, err, ErrRequestNotFound)

	patients, err := svc.ListPatients(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Empty(t, patients)
}

func TestRequestConnection_UnknownParticipants(t *testing.T) {
	svc, _ := newTestService()
	d, p := registerPair(t, svc)

	_, err := svc.RequestConnection(context.Background(), uuid.New(), d.ID, "")
	assert.ErrorIs(t, err, ErrPatientNotFound)

	_, err = svc.RequestConnection(context.Background(), p.ID, uuid.New(), "")
	assert.ErrorIs(t, err, ErrDoctorNotFound)
}

func TestPrescribe(t *testing.T) {
	svc, _ := newTestService()
	d, p := registerPair(t, svc)

	m, err := svc.Prescribe(context.Background(), &Medication{
		PatientID:    p.ID,
		DoctorID:     d.ID,
		Name:         "Amoxicillin",
		DosageMG:     500,
		Frequency:    "3x daily",
		DurationDays: 7,
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, m.ID)
	assert.Equal(t, MedicationActive, m.Status)
	assert.False(t, m.StartDate.IsZero(), "start date defaults to now")
	assert.WithinDuration(t, m.StartDate.AddDate(0, 0, 7), m.EndDate(), time.Second)
}

func TestPrescribe_Validation(t *testing.T) {
	svc, _ := newTestService()
	_, p := registerPair(t, svc)

	cases := map[string]Medication{
		"no name":           {PatientID: p.ID, DosageMG: 500, DurationDays: 7},
		"no dosage":         {PatientID: p.ID, Name: "Amoxicillin", DurationDays: 7},
		"no duration":       {PatientID: p.ID, Name: "Amoxicillin", DosageMG: 500},
		"negative dosage":   {PatientID: p.ID, Name: "Amoxicillin", DosageMG: -1, DurationDays: 7},
		"negative duration": {PatientID: p.ID, Name: "Amoxicillin", DosageMG: 500, DurationDays: -3},
	}
	for name, m := range cases {
		medication := m
		_, err := svc.Prescribe(context.Background(), &medication)
		assert.ErrorIs(t, err, ErrInvalidMedication, name)
	}
}

func TestDiscontinueMedication(t *testing.T) {
	svc, _ := newTestService()
	d, p := registerPair(t, svc)

	m, err := svc.Prescribe(context.Background(), &Medication{
		PatientID: p.ID, DoctorID: d.ID, Name: "Lisinopril", DosageMG: 10, Frequency: "1x daily", DurationDays: 90,
	})
	require.NoError(t, err)

	stopped, err := svc.DiscontinueMedication(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, MedicationDiscontinued, stopped.Status)

	_, err = svc.DiscontinueMedication(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrMedicationNotFound)
}

func TestAddReport(t *testing.T) {
	svc, _ := newTestService()
	d, p := registerPair(t, svc)

	rep, err := svc.AddReport(context.Background(), &Report{
		PatientID:  p.ID,
		UploadedBy: d.ID,
		Title:      "CBC panel",
		Type:       ReportBloodTest,
		ReportDate: time.Now().AddDate(0, 0, -1),
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, rep.ID)

	listed, err := svc.ListReports(context.Background(), p.ID, nil)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "CBC panel", listed[0].Title)
}

func TestAddReport_Validation(t *testing.T) {
	svc, _ := newTestService()
	_, p := registerPair(t, svc)

	_, err := svc.AddReport(context.Background(), &Report{PatientID: p.ID, Type: ReportBloodTest, ReportDate: time.Now()})
	assert.ErrorIs(t, err, ErrInvalidReport)

	_, err = svc.AddReport(context.Background(), &Report{PatientID: p.ID, Title: "CBC panel", ReportDate: time.Now()})
	assert.ErrorIs(t, err, ErrInvalidReport)

	_, err = svc.AddReport(context.Background(), &Report{PatientID: p.ID, Title: "CBC panel", Type: ReportBloodTest})
	assert.ErrorIs(t, err, ErrInvalidReport)
}

func TestListReports_FiltersByType(t *testing.T) {
	svc, _ := newTestService()
	d, p := registerPair(t, svc)

	for _, rt := range []ReportType{ReportBloodTest, ReportXRay, ReportBloodTest} {
		_, err := svc.AddReport(context.Background(), &Report{
			PatientID: p.ID, UploadedBy: d.ID, Title: "scan", Type: rt, ReportDate: time.Now(),
		})
		require.NoError(t, err)
	}

	rt := ReportBloodTest
	listed, err := svc.ListReports(context.Background(), p.ID, &rt)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}
