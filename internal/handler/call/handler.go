package call

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	speechModel "github.com/vishnusiva/callmate/backend/internal/model/speech"
	callsvc "github.com/vishnusiva/callmate/backend/internal/service/call"
	"github.com/vishnusiva/callmate/backend/pkg/utils"
)

// maxAudioUpload caps one spoken utterance at 32MB.
const maxAudioUpload = 32 << 20

// CallService abstracts the turn orchestrator for testing.
type CallService interface {
	StartCall(ctx context.Context, userID string) error
	EndCall(ctx context.Context, userID string) error
	ProcessTurn(ctx context.Context, userID string, audio io.Reader, filename string) (*speechModel.SynthesisResult, error)
	ActiveSessions() int
}

// Handler exposes the voice-call HTTP surface.
type Handler struct {
	svc CallService
}

// New creates the call handler.
func New(svc CallService) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the call endpoints on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/start_call", h.handleStartCall)
	r.Post("/end_call", h.handleEndCall)
	r.Post("/process_audio", h.handleProcessAudio)
	r.Get("/health", h.handleHealth)
}

func (h *Handler) handleStartCall(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.decodeUserID(w, r)
	if !ok {
		return
	}

	if err := h.svc.StartCall(r.Context(), userID); err != nil {
		h.respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Call started"})
}

func (h *Handler) handleEndCall(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.decodeUserID(w, r)
	if !ok {
		return
	}

	if err := h.svc.EndCall(r.Context(), userID); err != nil {
		h.respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Call ended and memory cleared"})
}

func (h *Handler) handleProcessAudio(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAudioUpload)
	if err := r.ParseMultipartForm(maxAudioUpload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to parse multipart form: "+err.Error())
		return
	}

	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	userID := r.FormValue("user_id")
	if userID == "" {
		utils.RespondError(w, http.StatusBadRequest, "Missing user_id")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	result, err := h.svc.ProcessTurn(r.Context(), userID, file, header.Filename)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(result.AudioData)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.AudioData); err != nil {
		log.Printf("[call] failed to write audio response: %v", err)
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"activeSessions": h.svc.ActiveSessions(),
	})
}

// decodeUserID reads the {user_id} JSON body shared by the call
// lifecycle endpoints.
func (h *Handler) decodeUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var payload struct {
		UserID string `json:"user_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return "", false
	}

	if payload.UserID == "" {
		utils.RespondError(w, http.StatusBadRequest, "Missing user_id")
		return "", false
	}

	return payload.UserID, true
}

// respondServiceError maps orchestrator errors onto HTTP statuses. The
// client owns retries, so upstream failures surface as-is.
func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, callsvc.ErrMissingIdentifier):
		utils.RespondError(w, http.StatusBadRequest, "Missing user_id")
	case errors.Is(err, callsvc.ErrSessionNotFound):
		utils.RespondError(w, http.StatusBadRequest, "Call not started for user")
	case errors.Is(err, callsvc.ErrServiceTimeout):
		utils.RespondError(w, http.StatusGatewayTimeout, "upstream service timed out")
	case errors.Is(err, callsvc.ErrTranscriptionFailed):
		log.Printf("[call] transcription error: %v", err)
		utils.RespondError(w, http.StatusBadGateway, "speech recognition failed")
	case errors.Is(err, callsvc.ErrGenerationFailed):
		log.Printf("[call] generation error: %v", err)
		utils.RespondError(w, http.StatusBadGateway, "reply generation failed")
	case errors.Is(err, callsvc.ErrSynthesisFailed):
		log.Printf("[call] synthesis error: %v", err)
		utils.RespondError(w, http.StatusBadGateway, "speech synthesis failed")
	default:
		log.Printf("[call] unexpected error: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}
