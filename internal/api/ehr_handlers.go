package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/webdoctor/ehr-server/internal/ehr"
)

func registerDoctorHandler(svc *ehr.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterDoctorRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		d, err := svc.RegisterDoctor(r.Context(), &ehr.Doctor{
			FirstName:       req.FirstName,
			LastName:        req.LastName,
			Specialization:  ehr.Specialization(req.Specialization),
			LicenseNumber:   req.LicenseNumber,
			ExperienceYears: req.ExperienceYears,
			Education:       req.Education,
			ConsultationFee: req.ConsultationFee,
			Bio:             req.Bio,
		})
		if err != nil {
			handleEHRError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toDoctorResponse(d))
	}
}

func getDoctorHandler(svc *ehr.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		d, err := svc.GetDoctor(r.Context(), id)
		if err != nil {
			handleEHRError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toDoctorResponse(d))
	}
}

func listDoctorsHandler(svc *ehr.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var spec *ehr.Specialization
		if v := r.URL.Query().Get("specialization"); v != "" {
			s := ehr.Specialization(v)
			spec = &s
		}

		doctors, err := svc.ListDoctors(r.Context(), spec, 100, 0)
		if err != nil {
			handleEHRError(w, err)
			return
		}

		resp := make([]DoctorResponse, 0, len(doctors))
		for i := range doctors {
			resp = append(resp, toDoctorResponse(&doctors[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func registerPatientHandler(svc *ehr.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterPatientRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		p, err := svc.RegisterPatient(r.Context(), &ehr.Patient{
			FirstName:         req.FirstName,
			LastName:          req.LastName,
			DateOfBirth:       req.DateOfBirth,
			EmergencyContact:  req.EmergencyContact,
			BloodType:         req.BloodType,
			ChronicConditions: req.ChronicConditions,
		})
		if err != nil {
			handleEHRError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toPatientResponse(p))
	}
}

func getPatientHandler(svc *ehr.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		p, err := svc.GetPatient(r.Context(), id)
		if err != nil {
			handleEHRError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponse(p))
	}
}

func updateVitalsHandler(svc *ehr.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var req UpdateVitalsRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		p, err := svc.UpdateVitals(r.Context(), id, ehr.Vitals{
			HeightCM:        req.HeightCM,
			WeightKG:        req.WeightKG,
			BodyTemperature: req.BodyTemperature,
			HeartRate:       req.HeartRate,
			RespiratoryRate: req.RespiratoryRate,
		})
		if err != nil {
			handleEHRError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponse(p))
	}
}

func requestConnectionHandler(svc *ehr.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ConnectionRequestRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		patientID, _ := uuid.Parse(req.PatientID)
		doctorID, _ := uuid.Parse(req.DoctorID)

		cr, err := svc.RequestConnection(r.Context(), patientID, doctorID, req.Notes)
		if err != nil {
			handleEHRError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toConnectionRequestResponse(cr))
	}
}

func approveConnectionHandler(svc *ehr.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		cr, err := svc.ApproveConnection(r.Context(), id)
		if err != nil {
			handleEHRError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toConnectionRequestResponse(cr))
	}
}

func rejectConnectionHandler(svc *ehr.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		cr, err := svc.RejectConnection(r.Context(), id)
		if err != nil {
			handleEHRError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toConnectionRequestResponse(cr))
	}
}

func listConnectionRequestsHandler(svc *ehr.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var status *ehr.RequestStatus
		if v := r.URL.Query().Get("status"); v != "" {
			st := ehr.RequestStatus(v)
			status = &st
		}

		requests, err := svc.ListConnectionRequests(r.Context(), id, status)
		if err != nil {
			handleEHRError(w, err)
			return
		}

		resp := make([]ConnectionRequestResponse, 0, len(requests))
		for i := range requests {
			resp = append(resp, toConnectionRequestResponse(&requests[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func listDoctorPatientsHandler(svc *ehr.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		patients, err := svc.ListPatients(r.Context(), id)
		if err != nil {
			handleEHRError(w, err)
			return
		}

		resp := make([]PatientResponse, 0, len(patients))
		for i := range patients {
			resp = append(resp, toPatientResponse(&patients[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func prescribeHandler(svc *ehr.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var req PrescribeRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		doctorID, _ := uuid.Parse(req.DoctorID)

		m := &ehr.Medication{
			PatientID:    patientID,
			DoctorID:     doctorID,
			Name:         req.Name,
			DosageMG:     req.DosageMG,
			Frequency:    req.Frequency,
			DurationDays: req.DurationDays,
		}
		if req.StartDate != nil {
			m.StartDate = *req.StartDate
		}

		created, err := svc.Prescribe(r.Context(), m)
		if err != nil {
			handleEHRError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toMedicationResponse(created))
	}
}

func listMedicationsHandler(svc *ehr.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		meds, err := svc.ListMedications(r.Context(), patientID)
		if err != nil {
			handleEHRError(w, err)
			return
		}

		resp := make([]MedicationResponse, 0, len(meds))
		for i := range meds {
			resp = append(resp, toMedicationResponse(&meds[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func updateMedicationHandler(svc *ehr.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var req UpdateMedicationRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		m, err := svc.GetMedication(r.Context(), id)
		if err != nil {
			handleEHRError(w, err)
			return
		}

		m.Name = req.Name
		m.DosageMG = req.DosageMG
		m.Frequency = req.Frequency
		m.DurationDays = req.DurationDays
		if req.StartDate != nil {
			m.StartDate = *req.StartDate
		}
		if req.Status != "" {
			m.Status = ehr.MedicationStatus(req.Status)
		}

		updated, err := svc.UpdateMedication(r.Context(), m)
		if err != nil {
			handleEHRError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toMedicationResponse(updated))
	}
}

func discontinueMedicationHandler(svc *ehr.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		m, err := svc.DiscontinueMedication(r.Context(), id)
		if err != nil {
			handleEHRError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toMedicationResponse(m))
	}
}

func deleteMedicationHandler(svc *ehr.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		if err := svc.DeleteMedication(r.Context(), id); err != nil {
			handleEHRError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func addReportHandler(svc *ehr.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var req AddReportRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		uploadedBy, _ := uuid.Parse(req.UploadedBy)

		rep, err := svc.AddReport(r.Context(), &ehr.Report{
			PatientID:   patientID,
			UploadedBy:  uploadedBy,
			Title:       req.Title,
			Type:        ehr.ReportType(req.Type),
			ReportDate:  req.ReportDate,
			Description: req.Description,
			LabFacility: req.LabFacility,
			FileName:    req.FileName,
			FileSize:    req.FileSize,
			ContentType: req.ContentType,
		})
		if err != nil {
			handleEHRError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toReportResponse(rep))
	}
}

func listReportsHandler(svc *ehr.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var reportType *ehr.ReportType
		if v := r.URL.Query().Get("type"); v != "" {
			rt := ehr.ReportType(v)
			reportType = &rt
		}

		reports, err := svc.ListReports(r.Context(), patientID, reportType)
		if err != nil {
			handleEHRError(w, err)
			return
		}

		resp := make([]ReportResponse, 0, len(reports))
		for i := range reports {
			resp = append(resp, toReportResponse(&reports[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getReportHandler(svc *ehr.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		rep, err := svc.GetReport(r.Context(), id)
		if err != nil {
			handleEHRError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toReportResponse(rep))
	}
}

func updateReportHandler(svc *ehr.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var req UpdateReportRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		current, err := svc.GetReport(r.Context(), id)
		if err != nil {
			handleEHRError(w, err)
			return
		}

		current.Title = req.Title
		current.Type = ehr.ReportType(req.Type)
		current.ReportDate = req.ReportDate
		current.Description = req.Description
		current.LabFacility = req.LabFacility

		updated, err := svc.UpdateReport(r.Context(), current)
		if err != nil {
			handleEHRError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toReportResponse(updated))
	}
}

func deleteReportHandler(svc *ehr.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		if err := svc.DeleteReport(r.Context(), id); err != nil {
			handleEHRError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleEHRError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ehr.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, ehr.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, ehr.ErrRequestNotFound):
		writeError(w, http.StatusNotFound, "connection_request_not_found", err.Error())
	case errors.Is(err, ehr.ErrMedicationNotFound):
		writeError(w, http.StatusNotFound, "medication_not_found", err.Error())
	case errors.Is(err, ehr.ErrReportNotFound):
		writeError(w, http.StatusNotFound, "report_not_found", err.Error())
	case errors.Is(err, ehr.ErrDuplicateRequest):
		writeError(w, http.StatusConflict, "duplicate_request", err.Error())
	case errors.Is(err, ehr.ErrAlreadyConnected):
		writeError(w, http.StatusConflict, "already_connected", err.Error())
	case errors.Is(err, ehr.ErrInvalidMedication),
		errors.Is(err, ehr.ErrInvalidReport):
		writeError(w, http.StatusUnprocessableEntity, "invalid_payload", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
