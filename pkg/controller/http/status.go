package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/crewpulse/pkg/domain/model"
	"github.com/secmon-lab/crewpulse/pkg/usecase"
	"github.com/secmon-lab/crewpulse/pkg/utils/errutil"
	"github.com/secmon-lab/crewpulse/pkg/utils/safe"
)

// The JSON below is the contract consumed by the dashboard client. Nullable
// fields use pointers so absence is encoded as null, not as a zero value.

type memberResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     *string `json:"email"`
	AvatarURL *string `json:"avatarUrl"`
}

type timerResponse struct {
	UserID   string  `json:"userId"`
	TaskID   *string `json:"taskId"`
	TaskName string  `json:"taskName"`
	Start    *int64  `json:"start"`
}

type manualResponse struct {
	Remaining  int   `json:"remaining"`
	ResetInMs  int64 `json:"resetInMs"`
	MaxPerHour int   `json:"maxPerHour"`
}

type statusResponse struct {
	LastUpdated    int64                    `json:"lastUpdated"`
	Members        []memberResponse         `json:"members"`
	WorkingUserIDs []string                 `json:"workingUserIds"`
	WorkingByUser  map[string]timerResponse `json:"workingByUserId"`
	Manual         manualResponse           `json:"manual"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toTimerResponse(t *model.ActiveTimer) timerResponse {
	resp := timerResponse{
		UserID:   t.UserID.String(),
		TaskID:   optional(t.TaskID.String()),
		TaskName: t.TaskName,
	}
	if t.Start != 0 {
		start := t.Start
		resp.Start = &start
	}
	return resp
}

func toStatusResponse(snap *model.Snapshot, manual manualResponse) statusResponse {
	resp := statusResponse{
		Members:        make([]memberResponse, len(snap.Members)),
		WorkingUserIDs: []string{},
		WorkingByUser:  map[string]timerResponse{},
		Manual:         manual,
	}
	if !snap.LastUpdated.IsZero() {
		resp.LastUpdated = snap.LastUpdated.UnixMilli()
	}

	for i, m := range snap.Members {
		resp.Members[i] = memberResponse{
			ID:        m.ID.String(),
			Name:      m.Name,
			Email:     optional(m.Email),
			AvatarURL: optional(m.AvatarURL),
		}
	}

	for _, id := range snap.WorkingUserIDs() {
		resp.WorkingUserIDs = append(resp.WorkingUserIDs, id.String())
		resp.WorkingByUser[id.String()] = toTimerResponse(snap.Working[id])
	}

	return resp
}

func manualState(uc *usecase.Status) manualResponse {
	limiter := uc.Limiter()
	return manualResponse{
		Remaining:  limiter.Remaining(),
		ResetInMs:  limiter.ResetIn().Milliseconds(),
		MaxPerHour: limiter.Max(),
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(r.Context(), w, data)
}

// statusHandler serves the current snapshot and limiter state.
func statusHandler(uc *usecase.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, toStatusResponse(uc.Snapshot(), manualState(uc)))
	}
}

// refreshHandler performs a quota-limited synchronous refresh.
func refreshHandler(uc *usecase.Status) http.HandlerFunc {
	type refreshResponse struct {
		OK          bool           `json:"ok"`
		LastUpdated int64          `json:"lastUpdated"`
		Manual      manualResponse `json:"manual"`
	}
	type rateLimitedResponse struct {
		Error      string `json:"error"`
		Remaining  int    `json:"remaining"`
		ResetInMs  int64  `json:"resetInMs"`
		MaxPerHour int    `json:"maxPerHour"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if err := uc.ManualRefresh(r.Context()); err != nil {
			if errors.Is(err, usecase.ErrManualQuotaExceeded) {
				limiter := uc.Limiter()
				writeJSON(w, r, http.StatusTooManyRequests, rateLimitedResponse{
					Error:      "rate_limited",
					Remaining:  0,
					ResetInMs:  limiter.ResetIn().Milliseconds(),
					MaxPerHour: limiter.Max(),
				})
				return
			}
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}

		writeJSON(w, r, http.StatusOK, refreshResponse{
			OK:          true,
			LastUpdated: uc.LastUpdated().UnixMilli(),
			Manual:      manualState(uc),
		})
	}
}

// healthHandler reports liveness and the age of the snapshot.
func healthHandler(uc *usecase.Status) http.HandlerFunc {
	type healthResponse struct {
		OK          bool  `json:"ok"`
		LastUpdated int64 `json:"lastUpdated"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		last := uc.LastUpdated()
		resp := healthResponse{OK: true}
		if !last.IsZero() {
			resp.LastUpdated = last.UnixMilli()
		}
		writeJSON(w, r, http.StatusOK, resp)
	}
}

// dashboardHandler serves presentation settings for the dashboard client.
func dashboardHandler(title string) http.HandlerFunc {
	type dashboardResponse struct {
		Title string `json:"title"`
	}

	if title == "" {
		title = model.DefaultDashboardTitle
	}

	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, dashboardResponse{Title: title})
	}
}
