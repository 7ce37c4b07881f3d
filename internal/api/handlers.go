// Package api exposes HTTP handlers for the exercise log service.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"example.com/exerciselog/internal/domain"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
	logger  *zap.SugaredLogger
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/users", h.users)
	mux.HandleFunc("/api/users/", h.userSubresource)
	mux.HandleFunc("/healthz", healthz)
	mux.Handle("/public/", http.StripPrefix("/public/", http.FileServer(http.FS(publicFS))))
	mux.HandleFunc("/", h.index)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (h *Handler) users(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createUser(w, r)
	case http.MethodGet:
		h.listUsers(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) userSubresource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/users/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 {
		http.NotFound(w, r)
		return
	}

	switch {
	case parts[1] == "exercises" && r.Method == http.MethodPost:
		h.logExercise(w, r, parts[0])
	case parts[1] == "logs" && r.Method == http.MethodGet:
		h.getLogs(w, r, parts[0])
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if isFormEncoded(r) {
		if err := r.ParseForm(); err != nil {
			h.serverError(w, r, err)
			return
		}
		req.Username = r.PostFormValue("username")
	} else if err := decodeJSON(r, &req); err != nil {
		h.serverError(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		writeErrorBody(w, err.Error())
		return
	}

	user, err := h.service.RegisterUser(r.Context(), req.Username)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userView{ID: user.ID, Username: user.Username})
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	views := make([]userView, 0, len(users))
	for _, user := range users {
		views = append(views, userView{ID: user.ID, Username: user.Username})
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) logExercise(w http.ResponseWriter, r *http.Request, userID string) {
	req := logExerciseRequest{UserID: userID}
	if isFormEncoded(r) {
		if err := r.ParseForm(); err != nil {
			h.serverError(w, r, err)
			return
		}
		req.Description = r.PostFormValue("description")
		req.Duration = formValue(r.PostFormValue("duration"))
		req.Date = r.PostFormValue("date")
	} else if err := decodeJSON(r, &req); err != nil {
		h.serverError(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		writeErrorBody(w, err.Error())
		return
	}

	duration, err := strconv.Atoi(strings.TrimSpace(string(req.Duration)))
	if err != nil {
		writeErrorBody(w, "duration is not a number")
		return
	}

	// An unparseable date is passed through as zero; the service stamps the
	// record with the current time in that case.
	date, _ := domain.ParseDate(req.Date)

	record, err := h.service.LogExercise(r.Context(), domain.LogExerciseInput{
		UserID:      userID,
		Description: req.Description,
		Duration:    duration,
		Date:        date,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			writeErrorBody(w, "user not found")
			return
		}
		h.serverError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, exerciseView{
		ID:          record.UserID,
		Username:    record.Username,
		Description: record.Description,
		Duration:    record.Duration,
		Date:        record.CalendarDate(),
	})
}

func (h *Handler) getLogs(w http.ResponseWriter, r *http.Request, userID string) {
	if strings.TrimSpace(userID) == "" {
		writeErrorBody(w, "_id is required")
		return
	}

	query := r.URL.Query()
	filter := domain.BuildLogFilter(userID, query.Get("from"), query.Get("to"), query.Get("limit"))

	records, err := h.service.QueryLogs(r.Context(), filter)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	resp := logResponse{
		ID:    userID,
		Log:   make([]logEntry, 0, len(records)),
		Count: len(records),
	}
	if len(records) > 0 {
		resp.Username = &records[0].Username
	}
	for _, record := range records {
		resp.Log = append(resp.Log, logEntry{
			Description: record.Description,
			Duration:    record.Duration,
			Date:        record.CalendarDate(),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Errorw("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
}

func isFormEncoded(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded")
}

func decodeJSON(r *http.Request, dst interface{}) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	// An empty body decodes to the zero request; validation reports the
	// missing fields.
	return nil
}

// userView is the wire shape for a registered user.
type userView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// exerciseView echoes a logged exercise with the owning user's identity.
type exerciseView struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Date        string `json:"date"`
}

type logEntry struct {
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Date        string `json:"date"`
}

// logResponse packages a user's exercise log. Username is null when the log
// is empty, including queries for ids no user has ever held.
type logResponse struct {
	ID       string     `json:"id"`
	Username *string    `json:"username"`
	Log      []logEntry `json:"log"`
	Count    int        `json:"count"`
}

// writeErrorBody reports validation and lookup failures. The contract ships
// them as HTTP 200 with an error body rather than an error status code.
func writeErrorBody(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
