package web

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"streamgate/internal/domain"
	"streamgate/internal/infra/metrics"
	"streamgate/internal/infra/redis"
	"streamgate/internal/usecase"
)

type generateRequest struct {
	DurationMinutes int `json:"duration_minutes"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req generateRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	code, err := s.codeUC.Generate(ctx, req.DurationMinutes)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, "Failed to generate access code: "+err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to generate access code: "+err.Error())
		return
	}
	metrics.IncCodesGenerated()

	writeJSON(w, http.StatusCreated, struct {
		Code            string    `json:"code"`
		ExpiresAt       time.Time `json:"expires_at"`
		DurationMinutes int       `json:"duration_minutes"`
	}{
		Code:            code.Code,
		ExpiresAt:       code.ExpiresAt,
		DurationMinutes: code.DurationMinutes,
	})
}

type validateRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ip := clientIP(r)

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, redis.ValidationKey(ip), s.rlCfg.Limit, s.rlCfg.Window)
		if err != nil {
			// The limiter is advisory; fail open but leave a trace.
			s.log.Warn().Err(err).Msg("rate limiter unavailable")
		} else if !allowed {
			metrics.IncValidationThrottled()
			writeError(w, http.StatusTooManyRequests, "Too many attempts, try again later")
			return
		}
	}

	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Code is required")
		return
	}

	result, err := s.codeUC.Validate(ctx, req.Code, ip)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, "Code is required")
			return
		}
		// Never leak internals on the public surface.
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if !result.Valid {
		switch result.Message {
		case usecase.MsgCodeExpired:
			metrics.IncValidation("expired")
		default:
			metrics.IncValidation("invalid")
		}
		writeJSON(w, http.StatusBadRequest, struct {
			Valid bool   `json:"valid"`
			Error string `json:"error"`
		}{Valid: false, Error: result.Message})
		return
	}

	metrics.IncValidation("valid")
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	code := chi.URLParam(r, "code")
	if err := s.codeUC.Revoke(ctx, code); err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, "Code is required")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to revoke access code: "+err.Error())
		return
	}
	metrics.IncCodesRevoked()

	writeJSON(w, http.StatusOK, struct {
		Message string `json:"message"`
	}{Message: "Code revoked successfully"})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.codeUC.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load admin snapshot: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleForceCleanup(w http.ResponseWriter, r *http.Request) {
	count, err := s.cleanup.ForceCleanup(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to run cleanup: "+err.Error())
		return
	}
	metrics.IncCleanupSweep("forced")
	metrics.AddCodesSwept(count)

	writeJSON(w, http.StatusOK, struct {
		Success      bool   `json:"success"`
		CleanedCount int    `json:"cleaned_count"`
		Message      string `json:"message"`
	}{
		Success:      true,
		CleanedCount: count,
		Message:      "Cleanup completed",
	})
}

func (s *Server) handleCleanupStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status usecase.CleanupStatus `json:"status"`
	}{Status: s.cleanup.Status()})
}

type loginRequest struct {
	Token string `json:"token"`
}

// handleLogin exchanges the static admin token for a short-lived session JWT.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !s.auth.CheckAdminToken(req.Token) {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	signed, expiresAt, err := s.auth.Mint(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue session token")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}{Token: signed, ExpiresAt: expiresAt})
}

// clientIP prefers proxy headers over the socket address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "unknown"
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, struct {
		Error string `json:"error"`
	}{Error: msg})
}
