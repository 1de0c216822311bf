package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/matijazezelj/monbot/internal/compiler"
	"github.com/matijazezelj/monbot/internal/notify"
	"github.com/matijazezelj/monbot/internal/session"
	"github.com/matijazezelj/monbot/internal/topology"
)

// sessionHeader carries the session ID; an unknown or empty value creates a
// fresh session whose ID is echoed back on the response.
const sessionHeader = "X-Session-ID"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) *session.Session {
	sess := s.sessions.GetOrCreate(r.Header.Get(sessionHeader))
	w.Header().Set(sessionHeader, sess.ID)
	return sess
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// chatRequest is the JSON body for POST /api/v1/chat.
type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message required")
		return
	}

	sess := s.session(w, r)
	result, err := s.dispatcher.Handle(r.Context(), sess, req.Message)
	if err != nil {
		s.logger.Error("handling chat request", "session", sess.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session": sess.ID,
		"result":  result,
	})
}

func (s *Server) handleGetTopology(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	topo := sess.Topology.Current()
	writeJSON(w, http.StatusOK, map[string]any{
		"session":    sess.ID,
		"source":     sess.Topology.Source(),
		"updated_at": sess.Topology.UpdatedAt(),
		"devices":    topo.Devices,
	})
}

// documentFormat picks json or yaml from the format query parameter, falling
// back to the Content-Type.
func documentFormat(r *http.Request) string {
	if f := r.URL.Query().Get("format"); f != "" {
		return f
	}
	ct := r.Header.Get("Content-Type")
	if strings.Contains(ct, "yaml") || strings.Contains(ct, "yml") {
		return "yaml"
	}
	return "json"
}

func (s *Server) handlePutTopology(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading body")
		return
	}

	sess := s.session(w, r)
	if err := sess.Topology.ReplaceFromDocument(data, documentFormat(r)); err != nil {
		var verr *topology.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
				"error":  verr.Error(),
				"device": verr.Device,
			})
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// A replaced topology invalidates every result compiled from the old one.
	sess.Cache.Clear()

	if s.notifier != nil {
		event := notify.Event{
			Source:    "monbot",
			EventType: notify.EventTopologyReplaced,
			Session:   sess.ID,
			Message:   "Session topology replaced via API",
			Details:   map[string]string{"devices": strconv.Itoa(sess.Topology.Current().Len())},
			Timestamp: time.Now(),
		}
		if err := s.notifier.Send(r.Context(), event); err != nil {
			s.logger.Warn("sending topology notification", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session": sess.ID,
		"devices": sess.Topology.Current().Len(),
	})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	cfg, err := compiler.Compile(sess.Topology.Current())
	if err != nil {
		var verr *topology.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
				"error":  verr.Error(),
				"device": verr.Device,
			})
			return
		}
		s.logger.Error("compiling topology", "session", sess.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleHosts(w http.ResponseWriter, r *http.Request) {
	hosts, err := s.store.Hosts(r.Context())
	if err != nil {
		s.logger.Error("listing hosts", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, hosts)
}

func (s *Server) handleHostByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "host id required")
		return
	}

	host, err := s.store.GetHost(r.Context(), id)
	if err != nil {
		s.logger.Error("getting host", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if host == nil {
		writeError(w, http.StatusNotFound, "host not found")
		return
	}
	writeJSON(w, http.StatusOK, host)
}

func (s *Server) handleHostMetrics(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	host, err := s.store.GetHost(r.Context(), id)
	if err != nil {
		s.logger.Error("getting host", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if host == nil {
		writeError(w, http.StatusNotFound, "host not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"host":    host.ID,
		"metrics": host.Metrics,
	})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.store.Alerts(r.Context())
	if err != nil {
		s.logger.Error("listing alerts", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (s *Server) handleMaintenance(w http.ResponseWriter, r *http.Request) {
	windows, err := s.store.MaintenanceWindows(r.Context())
	if err != nil {
		s.logger.Error("listing maintenance windows", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, windows)
}

func (s *Server) handleCacheEntries(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	writeJSON(w, http.StatusOK, map[string]any{
		"session": sess.ID,
		"stats":   sess.Cache.Stats(),
		"entries": sess.Cache.Entries(),
	})
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.Cache.Clear()
	writeJSON(w, http.StatusOK, map[string]any{
		"session": sess.ID,
		"status":  "cache cleared",
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	hostCount, _ := s.store.HostCount(ctx)
	alertCount, _ := s.store.AlertCount(ctx)
	requestCount, _ := s.store.RequestCount(ctx)
	requestsByIntent, _ := s.store.RequestCountByIntent(ctx)

	writeJSON(w, http.StatusOK, map[string]any{
		"sessions":           s.sessions.Count(),
		"hosts_total":        hostCount,
		"alerts_total":       alertCount,
		"requests_total":     requestCount,
		"requests_by_intent": requestsByIntent,
	})
}
