package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"masumi-rag-agent/internal/domain"
	"masumi-rag-agent/internal/domain/model"
)

type startJobRequest struct {
	IdentifierFromPurchaser string            `json:"identifier_from_purchaser"`
	InputData               map[string]string `json:"input_data"`
}

type startJobResponse struct {
	Status                    string         `json:"status"`
	JobID                     string         `json:"job_id"`
	BlockchainIdentifier      string         `json:"blockchainIdentifier"`
	PayByTime                 string         `json:"payByTime"`
	SubmitResultTime          string         `json:"submitResultTime"`
	UnlockTime                string         `json:"unlockTime"`
	ExternalDisputeUnlockTime string         `json:"externalDisputeUnlockTime"`
	AgentIdentifier           string         `json:"agentIdentifier"`
	SellerVKey                string         `json:"sellerVKey"`
	IdentifierFromPurchaser   string         `json:"identifierFromPurchaser"`
	Amounts                   []model.Amount `json:"amounts"`
	InputHash                 string         `json:"input_hash"`
}

type statusResponse struct {
	JobID         string  `json:"job_id"`
	Status        string  `json:"status"`
	PaymentStatus string  `json:"payment_status"`
	Result        *string `json:"result"`
}

func (s *Server) startJobHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req startJobRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		job, err := s.jobUC.Submit(ctx, req.IdentifierFromPurchaser, req.InputData)
		if err != nil {
			s.respondUsecaseError(w, err)
			return
		}

		sess := job.Session
		respondJSON(w, http.StatusOK, startJobResponse{
			Status:                    "success",
			JobID:                     job.ID,
			BlockchainIdentifier:      sess.BlockchainID,
			PayByTime:                 sess.PayByTime.UTC().Format(time.RFC3339),
			SubmitResultTime:          sess.SubmitResultTime.UTC().Format(time.RFC3339),
			UnlockTime:                sess.UnlockTime.UTC().Format(time.RFC3339),
			ExternalDisputeUnlockTime: sess.ExternalDisputeUnlockTime.UTC().Format(time.RFC3339),
			AgentIdentifier:           s.payCfg.AgentIdentifier,
			SellerVKey:                s.payCfg.SellerVKey,
			IdentifierFromPurchaser:   job.PurchaserID,
			Amounts:                   []model.Amount{{Amount: s.payCfg.Amount, Unit: s.payCfg.Unit}},
			InputHash:                 sess.InputHash,
		})
	}
}

func (s *Server) statusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := r.URL.Query().Get("job_id")
		if jobID == "" {
			respondError(w, http.StatusBadRequest, "job_id is required")
			return
		}

		job, err := s.jobUC.Status(r.Context(), jobID)
		if err != nil {
			s.respondUsecaseError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, statusResponse{
			JobID:         job.ID,
			Status:        string(job.Status),
			PaymentStatus: job.PaymentStatus,
			Result:        job.Result,
		})
	}
}

func (s *Server) uploadHandler() http.HandlerFunc {
	const maxUpload = 32 << 20 // 32 MiB

	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxUpload); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid multipart form")
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			respondError(w, http.StatusBadRequest, "Missing file upload")
			return
		}
		defer file.Close()

		chunks, err := s.ingestUC.IngestDocument(r.Context(), header.Filename, file)
		if err != nil {
			s.log.Error().Err(err).Str("file", header.Filename).Msg("document ingestion failed")
			respondError(w, http.StatusInternalServerError, "Failed to process document")
			return
		}

		respondJSON(w, http.StatusOK, map[string]any{
			"message":          "PDF uploaded and indexed successfully",
			"chunks_processed": chunks,
		})
	}
}

func (s *Server) availabilityHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{
			"status":  "available",
			"type":    "masumi-agent",
			"message": "Server operational.",
		})
	}
}

func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}
}

func (s *Server) inputSchemaHandler() http.HandlerFunc {
	schema := map[string]any{
		"input_data": []map[string]any{
			{
				"id":   "question",
				"type": "string",
				"name": "Question",
				"data": map[string]string{
					"description": "The question to answer from the uploaded document",
					"placeholder": "What is the main topic of the document?",
				},
			},
		},
	}
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, schema)
	}
}

// respondUsecaseError maps domain errors onto status codes.
func (s *Server) respondUsecaseError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, "Job not found")
	case errors.Is(err, domain.ErrPaymentService):
		respondError(w, http.StatusBadGateway, "Payment service unavailable")
	default:
		s.log.Error().Err(err).Msg("unhandled request error")
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func respondJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, code int, msg string) {
	respondJSON(w, code, map[string]string{"error": msg})
}
