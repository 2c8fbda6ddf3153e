package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/hyperjump/interleave/internal/errors"
	"github.com/hyperjump/interleave/internal/export"
	"github.com/hyperjump/interleave/internal/models"
	"github.com/hyperjump/interleave/internal/session"
)

type bookInfo struct {
	Dir      string `json:"dir"`
	Lang     string `json:"lang"`
	Chapters int    `json:"chapters"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	books := s.manager.Books()
	resp := map[string]interface{}{
		"namespace": s.manager.Namespace(),
		"src":       bookInfo{Dir: books.Src.Dir, Lang: books.Src.Lang, Chapters: len(books.Src.Chapters)},
		"dst":       bookInfo{Dir: books.Dst.Dir, Lang: books.Dst.Lang, Chapters: len(books.Dst.Chapters)},
		"watching":  s.watch != nil,
	}
	if s.watch != nil {
		resp["watched_dirs"] = s.watch.Dirs()
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChapters(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"chapters": s.manager.Chapters()})
}

type createSessionRequest struct {
	Src   int  `json:"src"`
	Dst   int  `json:"dst"`
	Force bool `json:"force"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	pair := models.ChapterPair{Src: req.Src, Dst: req.Dst}
	s.logger.Debug("compute alignment request", zap.Stringer("pair", pair), zap.Bool("force", req.Force))
	sess, err := s.manager.ComputeAlignment(r.Context(), pair, req.Force)
	if err != nil {
		s.respondErr(w, "compute alignment", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, sess.Status())
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.manager.Sessions()
	out := make([]session.Status, len(sessions))
	for i, sess := range sessions {
		out[i] = sess.Status()
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"sessions": out})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.manager.Lookup(chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, "lookup session", err)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  sess.Status(),
		"mapping": sess.ParagraphMapping(),
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.manager.Close(id); err != nil {
		s.respondErr(w, "close session", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "closed"})
}

func (s *Server) handleNextFixup(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	view, ok := s.manager.NextFixupPoint(sess)
	if !ok {
		s.respondJSON(w, http.StatusOK, map[string]interface{}{"done": true})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"done": false, "view": view})
}

type confirmRequest struct {
	Src *int `json:"src"`
	Dst *int `json:"dst"`
	// Override sets any position, not only the one awaiting a choice.
	Override bool `json:"override,omitempty"`
}

func (s *Server) handleConfirmFixup(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Src == nil || req.Dst == nil {
		s.respondError(w, http.StatusBadRequest, "src and dst are required")
		return
	}
	var err error
	if req.Override {
		err = s.manager.ConfirmFixupAt(r.Context(), sess, *req.Src, *req.Dst)
	} else {
		err = s.manager.ConfirmFixup(r.Context(), sess, *req.Src, *req.Dst)
	}
	if err != nil {
		s.respondErr(w, "confirm fix-up", err)
		return
	}
	s.respondJSON(w, http.StatusOK, sess.Status())
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	format := r.URL.Query().Get("format")
	if format == "json" {
		items, err := s.manager.MergeChapter(sess)
		if err != nil {
			s.respondErr(w, "merge chapter", err)
			return
		}
		s.respondJSON(w, http.StatusOK, map[string]interface{}{"items": items})
		return
	}
	var buf bytes.Buffer
	if err := s.manager.RenderChapter(&buf, sess, format); err != nil {
		s.respondErr(w, "render chapter", err)
		return
	}
	contentType := "text/plain; charset=utf-8"
	if format == session.FormatHTML {
		contentType = "text/html; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	opts := &session.SearchOptions{}
	for name, dst := range map[string]*bool{"fuzzy": &opts.Fuzzy, "semantic": &opts.Semantic} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid "+name)
			return
		}
		*dst = b
	}
	hits, err := s.manager.SearchDestination(r.Context(), sess, q.Get("q"), limit, opts)
	if err != nil {
		s.respondErr(w, "search destination", err)
		return
	}
	if hits == nil {
		hits = []session.SearchHit{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"hits": hits})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, s.manager.Review(sess)); err != nil {
		s.respondErr(w, "export review", err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "chapter_"+sess.Pair.String()+".xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	n, err := s.manager.ClearCache(r.Context())
	if err != nil {
		s.respondErr(w, "clear cache", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

// statusFor maps an error kind to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrInput):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrCacheCorruption):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondErr(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(op+" failed", zap.Error(err))
	} else {
		s.logger.Debug(op+" rejected", zap.Error(err))
	}
	s.respondError(w, status, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
