package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/marselbeijing/ispeech-helper/internal/domain"
	"github.com/marselbeijing/ispeech-helper/internal/domain/model"
	"github.com/marselbeijing/ispeech-helper/internal/infra/logging"
	"github.com/marselbeijing/ispeech-helper/internal/infra/metrics"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the domain taxonomy onto HTTP statuses. Every failure is a
// structured JSON body the client can render.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidTier):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrPurchaseInProgress):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, domain.ErrStorageUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// ---- auth ----

type authRequest struct {
	InitData string `json:"initData"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.InitData == "" {
		writeError(w, domain.ErrInvalidArgument)
		return
	}
	user, err := s.identity.Resolve(r.Context(), req.InitData)
	if err != nil {
		writeError(w, err)
		return
	}
	token, err := s.sessions.Mint(user)
	if err != nil {
		logging.With(r.Context(), s.log).Error().Err(err).Msg("session mint failed")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

// ---- stats ----

type statsResponse struct {
	TotalExercises int                       `json:"totalExercises"`
	ActivityDates  []string                  `json:"activityDates"`
	CurrentStreak  int                       `json:"currentStreak"`
	BestStreak     int                       `json:"bestStreak"`
	Achievements   []model.AchievementStatus `json:"achievements"`
}

func statsView(rec *model.ProgressRecord, achievements []model.AchievementStatus) statsResponse {
	dates := make([]string, 0, len(rec.ActivityDates))
	for _, d := range rec.ActivityDates {
		dates = append(dates, d.Format("2006-01-02"))
	}
	return statsResponse{
		TotalExercises: rec.TotalExercises,
		ActivityDates:  dates,
		CurrentStreak:  rec.CurrentStreak,
		BestStreak:     rec.BestStreak,
		Achievements:   achievements,
	}
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	rec, achievements, err := s.progressUC.GetStats(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statsView(rec, achievements))
}

// ---- exercises ----

type recordExerciseRequest struct {
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

func (s *Server) handleRecordExercise(w http.ResponseWriter, r *http.Request) {
	var req recordExerciseRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, domain.ErrInvalidArgument)
			return
		}
	}
	completedAt := time.Now()
	if req.CompletedAt != nil {
		completedAt = *req.CompletedAt
	}

	rec, err := s.progressUC.RecordExercise(r.Context(), userIDFrom(r.Context()), completedAt)
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.IncExerciseRecorded()
	writeJSON(w, http.StatusOK, statsView(rec, model.EvaluateAchievements(rec)))
}

// ---- subscription ----

func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	view, err := s.subUC.GetStatus(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type purchaseRequest struct {
	Tier string `json:"tier"`
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrInvalidArgument)
		return
	}
	tier, err := model.ParseTier(req.Tier)
	if err != nil {
		metrics.IncPurchase("rejected")
		writeError(w, err)
		return
	}

	result, err := s.purchaseUC.Purchase(r.Context(), userIDFrom(r.Context()), tier)
	if err != nil {
		metrics.IncPurchase(purchaseErrStatus(err))
		writeError(w, err)
		return
	}
	metrics.IncPurchase(string(result.Outcome))
	writeJSON(w, http.StatusOK, result)
}

func purchaseErrStatus(err error) string {
	switch {
	case errors.Is(err, domain.ErrPurchaseInProgress), errors.Is(err, domain.ErrInvalidTier):
		return "rejected"
	default:
		return "failed"
	}
}
