package ehr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// qualify prefixes every column in a comma separated list with a table alias.
func qualify(columns, alias string) string {
	parts := strings.Split(columns, ",")
	for i, c := range parts {
		parts[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(parts, ", ")
}

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Doctors

const doctorColumns = `id, uid, first_name, last_name, specialization, license_number,
		       experience_years, education, consultation_fee, bio, created_at, updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(
		&d.ID,
		&d.UID,
		&d.FirstName,
		&d.LastName,
		&d.Specialization,
		&d.LicenseNumber,
		&d.ExperienceYears,
		&d.Education,
		&d.ConsultationFee,
		&d.Bio,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *PgRepository) CreateDoctor(ctx context.Context, d *Doctor) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO doctors
			(id, uid, first_name, last_name, specialization, license_number,
			 experience_years, education, consultation_fee, bio, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
		RETURNING `+doctorColumns+`
	`,
		d.ID, d.UID, d.FirstName, d.LastName, d.Specialization, d.LicenseNumber,
		d.ExperienceYears, d.Education, d.ConsultationFee, d.Bio,
	)
	return scanDoctor(row)
}

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) ListDoctors(ctx context.Context, specialization *Specialization, limit, offset int) ([]Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors`
	args := []any{}

	if specialization != nil {
		args = append(args, *specialization)
		query += " WHERE specialization = $1"
	}

	query += " ORDER BY last_name, first_name"
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	return result, rows.Err()
}

// Patients

const patientColumns = `id, uid, first_name, last_name, date_of_birth, emergency_contact,
		       blood_type, chronic_conditions, height_cm, weight_kg,
		       body_temperature, heart_rate, respiratory_rate, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID,
		&p.UID,
		&p.FirstName,
		&p.LastName,
		&p.DateOfBirth,
		&p.EmergencyContact,
		&p.BloodType,
		&p.ChronicConditions,
		&p.Vitals.HeightCM,
		&p.Vitals.WeightKG,
		&p.Vitals.BodyTemperature,
		&p.Vitals.HeartRate,
		&p.Vitals.RespiratoryRate,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PgRepository) CreatePatient(ctx context.Context, p *Patient) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO patients
			(id, uid, first_name, last_name, date_of_birth, emergency_contact,
			 blood_type, chronic_conditions, height_cm, weight_kg,
			 body_temperature, heart_rate, respiratory_rate, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now(), now())
		RETURNING `+patientColumns+`
	`,
		p.ID, p.UID, p.FirstName, p.LastName, p.DateOfBirth, p.EmergencyContact,
		p.BloodType, p.ChronicConditions, p.Vitals.HeightCM, p.Vitals.WeightKG,
		p.Vitals.BodyTemperature, p.Vitals.HeartRate, p.Vitals.RespiratoryRate,
	)
	return scanPatient(row)
}

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) UpdateVitals(ctx context.Context, patientID uuid.UUID, v Vitals) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE patients
		SET height_cm = $2,
		    weight_kg = $3,
		    body_temperature = $4,
		    heart_rate = $5,
		    respiratory_rate = $6,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+patientColumns+`
	`, patientID, v.HeightCM, v.WeightKG, v.BodyTemperature, v.HeartRate, v.RespiratoryRate)
	return scanPatient(row)
}

// Connection requests

const requestColumns = `id, patient_id, doctor_id, status, notes, requested_at`

func scanRequest(row pgx.Row) (*ConnectionRequest, error) {
	var cr ConnectionRequest
	err := row.Scan(
		&cr.ID,
		&cr.PatientID,
		&cr.DoctorID,
		&cr.Status,
		&cr.Notes,
		&cr.RequestedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return &cr, nil
}

func (r *PgRepository) CreateConnectionRequest(ctx context.Context, req *ConnectionRequest) (*ConnectionRequest, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM connection_requests
			WHERE patient_id = $1 AND doctor_id = $2 AND status = 'PENDING'
		)
	`, req.PatientID, req.DoctorID).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateRequest
	}

	err = r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM connections
			WHERE patient_id = $1 AND doctor_id = $2
		)
	`, req.PatientID, req.DoctorID).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyConnected
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO connection_requests (id, patient_id, doctor_id, status, notes, requested_at)
		VALUES ($1, $2, $3, 'PENDING', $4, now())
		RETURNING `+requestColumns+`
	`, req.ID, req.PatientID, req.DoctorID, req.Notes)
	return scanRequest(row)
}

func (r *PgRepository) GetConnectionRequest(ctx context.Context, id uuid.UUID) (*ConnectionRequest, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+requestColumns+`
		FROM connection_requests
		WHERE id = $1
	`, id)
	return scanRequest(row)
}

func (r *PgRepository) ListConnectionRequestsForDoctor(ctx context.Context, doctorID uuid.UUID, status *RequestStatus) ([]ConnectionRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM connection_requests WHERE doctor_id = $1`
	args := []any{doctorID}

	if status != nil {
		args = append(args, *status)
		query += " AND status = $2"
	}
	query += " ORDER BY requested_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ConnectionRequest
	for rows.Next() {
		cr, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *cr)
	}
	return result, rows.Err()
}

func (r *PgRepository) ApproveConnectionRequest(ctx context.Context, id uuid.UUID) (*ConnectionRequest, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin approve tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE connection_requests
		SET status = 'APPROVED'
		WHERE id = $1
		  AND status = 'PENDING'
		RETURNING `+requestColumns+`
	`, id)
	cr, err := scanRequest(row)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO connections (doctor_id, patient_id, connected_at)
		VALUES ($1, $2, now())
		ON CONFLICT (doctor_id, patient_id) DO NOTHING
	`, cr.DoctorID, cr.PatientID)
	if err != nil {
		return nil, fmt.Errorf("insert connection: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit approve tx: %w", err)
	}
	return cr, nil
}

func (r *PgRepository) RejectConnectionRequest(ctx context.Context, id uuid.UUID) (*ConnectionRequest, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE connection_requests
		SET status = 'REJECTED'
		WHERE id = $1
		  AND status = 'PENDING'
		RETURNING `+requestColumns+`
	`, id)
	return scanRequest(row)
}

func (r *PgRepository) ListPatientsForDoctor(ctx context.Context, doctorID uuid.UUID) ([]Patient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+qualify(patientColumns, "p")+`
		FROM patients p
		JOIN connections c ON c.patient_id = p.id
		WHERE c.doctor_id = $1
		ORDER BY c.connected_at DESC
	`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

// Medications

const medicationColumns = `id, patient_id, doctor_id, name, dosage_mg, frequency,
		       start_date, duration_days, status, issued_at, updated_at`

func scanMedication(row pgx.Row) (*Medication, error) {
	var m Medication
	err := row.Scan(
		&m.ID,
		&m.PatientID,
		&m.DoctorID,
		&m.Name,
		&m.DosageMG,
		&m.Frequency,
		&m.StartDate,
		&m.DurationDays,
		&m.Status,
		&m.IssuedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMedicationNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *PgRepository) CreateMedication(ctx context.Context, m *Medication) (*Medication, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO medications
			(id, patient_id, doctor_id, name, dosage_mg, frequency,
			 start_date, duration_days, status, issued_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING `+medicationColumns+`
	`,
		m.ID, m.PatientID, m.DoctorID, m.Name, m.DosageMG, m.Frequency,
		m.StartDate, m.DurationDays, m.Status,
	)
	return scanMedication(row)
}

func (r *PgRepository) GetMedicationByID(ctx context.Context, id uuid.UUID) (*Medication, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+medicationColumns+`
		FROM medications
		WHERE id = $1
	`, id)
	return scanMedication(row)
}

func (r *PgRepository) UpdateMedication(ctx context.Context, m *Medication) (*Medication, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE medications
		SET name = $2,
		    dosage_mg = $3,
		    frequency = $4,
		    start_date = $5,
		    duration_days = $6,
		    status = $7,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+medicationColumns+`
	`, m.ID, m.Name, m.DosageMG, m.Frequency, m.StartDate, m.DurationDays, m.Status)
	return scanMedication(row)
}

func (r *PgRepository) DeleteMedication(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM medications WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMedicationNotFound
	}
	return nil
}

func (r *PgRepository) ListMedicationsForPatient(ctx context.Context, patientID uuid.UUID) ([]Medication, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+medicationColumns+`
		FROM medications
		WHERE patient_id = $1
		ORDER BY issued_at DESC
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Medication
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *m)
	}
	return result, rows.Err()
}

// Reports

const reportColumns = `id, patient_id, uploaded_by, title, report_type, report_date,
		       description, lab_facility, file_name, file_size, content_type, uploaded_at`

func scanReport(row pgx.Row) (*Report, error) {
	var rep Report
	err := row.Scan(
		&rep.ID,
		&rep.PatientID,
		&rep.UploadedBy,
		&rep.Title,
		&rep.Type,
		&rep.ReportDate,
		&rep.Description,
		&rep.LabFacility,
		&rep.FileName,
		&rep.FileSize,
		&rep.ContentType,
		&rep.UploadedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return &rep, nil
}

func (r *PgRepository) CreateReport(ctx context.Context, rep *Report) (*Report, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO reports
			(id, patient_id, uploaded_by, title, report_type, report_date,
			 description, lab_facility, file_name, file_size, content_type, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		RETURNING `+reportColumns+`
	`,
		rep.ID, rep.PatientID, rep.UploadedBy, rep.Title, rep.Type, rep.ReportDate,
		rep.Description, rep.LabFacility, rep.FileName, rep.FileSize, rep.ContentType,
	)
	return scanReport(row)
}

func (r *PgRepository) GetReportByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+reportColumns+`
		FROM reports
		WHERE id = $1
	`, id)
	return scanReport(row)
}

func (r *PgRepository) UpdateReport(ctx context.Context, rep *Report) (*Report, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE reports
		SET title = $2,
		    report_type = $3,
		    report_date = $4,
		    description = $5,
		    lab_facility = $6
		WHERE id = $1
		RETURNING `+reportColumns+`
	`, rep.ID, rep.Title, rep.Type, rep.ReportDate, rep.Description, rep.LabFacility)
	return scanReport(row)
}

func (r *PgRepository) DeleteReport(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrReportNotFound
	}
	return nil
}

func (r *PgRepository) ListReportsForPatient(ctx context.Context, patientID uuid.UUID, reportType *ReportType) ([]Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE patient_id = $1`
	args := []any{patientID}

	if reportType != nil {
		args = append(args, *reportType)
		query += " AND report_type = $2"
	}
	query += " ORDER BY report_date DESC, uploaded_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rep)
	}
	return result, rows.Err()
}
