package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/webdoctor/ehr-server/internal/db"
	"github.com/webdoctor/ehr-server/internal/ehr"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	doctorIDs, err := seedDoctors(context.Background(), pool, 50)
	if err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	patientIDs, err := seedPatients(context.Background(), pool, 2000)
	if err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedConnections(context.Background(), pool, doctorIDs, patientIDs); err != nil {
		log.Fatalf("seed connections: %v", err)
	}
	if err := seedMedications(context.Background(), pool, doctorIDs, patientIDs); err != nil {
		log.Fatalf("seed medications: %v", err)
	}
	if err := seedReports(context.Background(), pool, doctorIDs, patientIDs); err != nil {
		log.Fatalf("seed reports: %v", err)
	}

	log.Println("seed complete")
}

var specializations = []ehr.Specialization{
	ehr.SpecCardiology,
	ehr.SpecDermatology,
	ehr.SpecNeurology,
	ehr.SpecOrthopedics,
	ehr.SpecPediatrics,
	ehr.SpecPsychiatry,
	ehr.SpecGeneral,
}

var bloodTypes = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d doctors", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		spec := specializations[gofakeit.Number(0, len(specializations)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO doctors
				(id, uid, first_name, last_name, specialization, license_number,
				 experience_years, education, consultation_fee, bio, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
		`,
			id, ehr.NewUID("DOCTOR"), gofakeit.FirstName(), gofakeit.LastName(), spec,
			gofakeit.DigitN(8), gofakeit.Number(1, 35), gofakeit.Company()+" Medical School",
			float64(gofakeit.Number(40, 300)), gofakeit.Sentence(12),
		)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("doctors seeded")
	return ids, nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d patients", count)

	const batchSize = 500

	ids := make([]uuid.UUID, 0, count)
	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return nil, err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			dob := gofakeit.DateRange(
				time.Now().AddDate(-90, 0, 0),
				time.Now().AddDate(-18, 0, 0),
			)
			blood := bloodTypes[gofakeit.Number(0, len(bloodTypes)-1)]
			heightCM := float64(gofakeit.Number(150, 200))
			weightKG := float64(gofakeit.Number(45, 120))

			_, err := tx.Exec(ctx, `
				INSERT INTO patients
					(id, uid, first_name, last_name, date_of_birth, emergency_contact,
					 blood_type, chronic_conditions, height_cm, weight_kg,
					 body_temperature, heart_rate, respiratory_rate, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULL, NULL, NULL, now(), now())
			`,
				id, ehr.NewUID("PATIENT"), gofakeit.FirstName(), gofakeit.LastName(),
				dob, gofakeit.Phone(), blood, []string{}, heightCM, weightKG,
			)
			if err != nil {
				_ = tx.Rollback(ctx)
				return nil, err
			}
			ids = append(ids, id)
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	log.Println("patients seeded")
	return ids, nil
}

// seedConnections links every patient to one doctor so booking works
// straight after seeding.
func seedConnections(ctx context.Context, pool *pgxpool.Pool, doctorIDs, patientIDs []uuid.UUID) error {
	if len(doctorIDs) == 0 {
		return nil
	}

	log.Printf("seeding %d connections", len(patientIDs))

	const batchSize = 500

	for offset := 0; offset < len(patientIDs); offset += batchSize {
		end := offset + batchSize
		if end > len(patientIDs) {
			end = len(patientIDs)
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			doctorID := doctorIDs[gofakeit.Number(0, len(doctorIDs)-1)]

			_, err := tx.Exec(ctx, `
				INSERT INTO connections (doctor_id, patient_id, connected_at)
				VALUES ($1, $2, now())
				ON CONFLICT (doctor_id, patient_id) DO NOTHING
			`, doctorID, patientIDs[i])
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}
	}

	log.Println("connections seeded")
	return nil
}

var medicationNames = []string{
	"Amoxicillin", "Lisinopril", "Metformin", "Atorvastatin",
	"Omeprazole", "Amlodipine", "Levothyroxine", "Ibuprofen",
}

var frequencies = []string{"1x daily", "2x daily", "3x daily", "Every 8 hours", "As needed"}

// seedMedications gives roughly a third of the patients an active prescription.
func seedMedications(ctx context.Context, pool *pgxpool.Pool, doctorIDs, patientIDs []uuid.UUID) error {
	if len(doctorIDs) == 0 {
		return nil
	}

	count := len(patientIDs) / 3
	log.Printf("seeding %d medications", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		patientID := patientIDs[gofakeit.Number(0, len(patientIDs)-1)]
		doctorID := doctorIDs[gofakeit.Number(0, len(doctorIDs)-1)]
		startDate := time.Now().AddDate(0, 0, -gofakeit.Number(0, 60))

		_, err := tx.Exec(ctx, `
			INSERT INTO medications
				(id, patient_id, doctor_id, name, dosage_mg, frequency,
				 start_date, duration_days, status, issued_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'ACTIVE', now(), now())
		`,
			uuid.New(), patientID, doctorID,
			medicationNames[gofakeit.Number(0, len(medicationNames)-1)],
			gofakeit.Number(1, 100)*5,
			frequencies[gofakeit.Number(0, len(frequencies)-1)],
			startDate, gofakeit.Number(5, 90),
		)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("medications seeded")
	return nil
}

var reportTypes = []ehr.ReportType{
	ehr.ReportBloodTest,
	ehr.ReportXRay,
	ehr.ReportMRI,
	ehr.ReportECG,
	ehr.ReportOther,
}

// seedReports attaches report metadata to a sample of patients; the
// file blobs themselves are not part of seeding.
func seedReports(ctx context.Context, pool *pgxpool.Pool, doctorIDs, patientIDs []uuid.UUID) error {
	if len(doctorIDs) == 0 {
		return nil
	}

	count := len(patientIDs) / 5
	log.Printf("seeding %d reports", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		patientID := patientIDs[gofakeit.Number(0, len(patientIDs)-1)]
		doctorID := doctorIDs[gofakeit.Number(0, len(doctorIDs)-1)]
		rt := reportTypes[gofakeit.Number(0, len(reportTypes)-1)]
		reportDate := time.Now().AddDate(0, 0, -gofakeit.Number(1, 365))

		_, err := tx.Exec(ctx, `
			INSERT INTO reports
				(id, patient_id, uploaded_by, title, report_type, report_date,
				 description, lab_facility, file_name, file_size, content_type, uploaded_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'application/pdf', now())
		`,
			uuid.New(), patientID, doctorID,
			gofakeit.Sentence(4), rt, reportDate,
			gofakeit.Sentence(10), gofakeit.Company()+" Labs",
			uuid.NewString()+".pdf", int64(gofakeit.Number(20_000, 5_000_000)),
		)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("reports seeded")
	return nil
}
