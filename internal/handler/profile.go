package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/mentorship-platform/internal/model"
	"github.com/sakif/mentorship-platform/internal/repository"
	"github.com/sakif/mentorship-platform/internal/service"
)

// ProfileHandler serves the signed-in user's profile and profile discovery.
type ProfileHandler struct {
	profiles *service.ProfileService
	logger   *slog.Logger
}

func NewProfileHandler(profiles *service.ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: logger}
}

// upsertRequest distinguishes an absent field (nil pointer, left unchanged)
// from an empty one ("" or [], which clears it).
type upsertRequest struct {
	Bio       *string   `json:"bio"`
	Skills    *[]string `json:"skills"`
	Interests *[]string `json:"interests"`
}

// HandleMe returns the caller's user record, profile and connections.
//
// HTTP: GET /profile/me
func (h *ProfileHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	details, err := h.profiles.Me(r.Context(), user.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, details)
}

// HandleUpsert applies a partial update to the caller's profile.
//
// HTTP: POST /profile
// REQUEST BODY: {"bio"?: "...", "skills"?: [...], "interests"?: [...]}
func (h *ProfileHandler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	var req upsertRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	profile, err := h.profiles.Upsert(r.Context(), user.ID, service.ProfileUpdate{
		Bio:       req.Bio,
		Skills:    req.Skills,
		Interests: req.Interests,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, profile)
}

// HandleSearch lists profiles.
//
// HTTP: GET /profile?role=mentor&skills=go,sql&interests=ml
//
// skills and interests accept comma-separated values, repeated parameters,
// or both. A profile matches when it has ANY of the listed values.
func (h *ProfileHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r, h.logger); !ok {
		return
	}

	q := r.URL.Query()
	filter := repository.ProfileFilter{
		Role:      model.Role(strings.TrimSpace(q.Get("role"))),
		Skills:    splitQuery(q["skills"]),
		Interests: splitQuery(q["interests"]),
	}

	profiles, err := h.profiles.Search(r.Context(), filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, profiles)
}

// HandleGetByUserID returns another user's public profile.
//
// HTTP: GET /profile/user/{userID}
func (h *ProfileHandler) HandleGetByUserID(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r, h.logger); !ok {
		return
	}

	profile, err := h.profiles.GetByUserID(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, profile)
}

// HandleDelete deletes the caller's account, profile and connections.
//
// HTTP: DELETE /profile
func (h *ProfileHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.profiles.Delete(r.Context(), user.ID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeMessage(w, h.logger, http.StatusOK, "account deleted")
}

func splitQuery(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
