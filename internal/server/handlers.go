// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pdiddy/bom-reconcile/internal/duro"
	"github.com/pdiddy/bom-reconcile/internal/extract"
	"github.com/pdiddy/bom-reconcile/internal/metrics"
	"github.com/pdiddy/bom-reconcile/internal/reconcile"
	"github.com/pdiddy/bom-reconcile/internal/sheet"
	"github.com/pdiddy/bom-reconcile/pkg/types"
)

const maxProxyBody = 1 << 20

// CompareRequest is the body of POST /api/compare.
type CompareRequest struct {
	Primary   []types.BomLineEntry  `json:"primary"`
	Secondary []types.BomLineEntry  `json:"secondary"`
	Ignored   []types.AnnotationKey `json:"ignored,omitempty" validate:"dive"`

	// Search limits Categories to records matching the term.
	Search string `json:"search,omitempty"`
}

// CompareResponse is returned by both compare endpoints. Summary counts
// leave ignored issues out; Categories honour Search.
type CompareResponse struct {
	Summary    types.ComparisonSummary `json:"summary"`
	Duplicates []reconcile.Duplicate   `json:"duplicates,omitempty"`
	Categories reconcile.Categories    `json:"categories"`
}

// handleCompare reconciles two entry lists posted as JSON.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxUpload)).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validateCompare(req); err != nil {
		s.fail(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, s.compare(req.Primary, req.Secondary, req.Ignored, req.Search))
}

func (s *Server) validateCompare(req CompareRequest) error {
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &ValidationError{Field: verrs[0].Namespace(), Message: verrs[0].Tag()}
		}
		return &ValidationError{Message: err.Error()}
	}
	for i, k := range req.Ignored {
		if !k.Kind.Valid() {
			return &ValidationError{Field: fmt.Sprintf("ignored[%d].kind", i), Message: fmt.Sprintf("unknown issue kind %q", k.Kind)}
		}
	}
	return nil
}

// handleCompareUpload reconciles two uploaded files. The secondary side may
// instead name a DURO assembly in the "assembly" field.
func (s *Server) handleCompareUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.errorResponse(w, http.StatusRequestEntityTooLarge, "upload exceeds limit")
			return
		}
		s.fail(w, &ValidationError{Field: "form", Message: err.Error()})
		return
	}

	opts := s.sheetOpts
	if v := r.FormValue("sheet"); v != "" {
		opts.Sheet = v
	}

	primary, err := s.uploadedEntries(r, "primary", types.SourcePrimary, opts)
	if err != nil {
		s.fail(w, err)
		return
	}

	var secondary []types.BomLineEntry
	if cpn := strings.TrimSpace(r.FormValue("assembly")); cpn != "" {
		if s.duro == nil || !s.duro.Configured() {
			s.fail(w, duro.ErrNotConfigured)
			return
		}
		secondary, _, err = extract.Duro(r.Context(), s.duro, cpn)
		if err != nil {
			metrics.RecordExtractionError(string(types.SourceSecondary), extract.ErrorType(err))
		}
	} else {
		secondary, err = s.uploadedEntries(r, "secondary", types.SourceSecondary, opts)
	}
	if err != nil {
		s.fail(w, err)
		return
	}

	var ignored []types.AnnotationKey
	for _, v := range r.MultipartForm.Value["ignored"] {
		k, err := types.ParseAnnotationKey(v)
		if err != nil {
			s.fail(w, &ValidationError{Field: "ignored", Message: err.Error()})
			return
		}
		ignored = append(ignored, k)
	}

	s.jsonResponse(w, http.StatusOK, s.compare(primary, secondary, ignored, r.FormValue("search")))
}

func (s *Server) uploadedEntries(r *http.Request, field string, kind types.SourceKind, opts sheet.Options) ([]types.BomLineEntry, error) {
	f, hdr, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, &ValidationError{Field: field, Message: "file is required"}
		}
		return nil, &ValidationError{Field: field, Message: err.Error()}
	}
	defer f.Close()

	t, err := sheet.Read(f, hdr.Filename, opts)
	if err != nil {
		metrics.RecordExtractionError(string(kind), "read")
		return nil, err
	}
	entries, err := extract.Source(t, kind, hdr.Filename)
	if err != nil {
		metrics.RecordExtractionError(string(kind), extract.ErrorType(err))
		return nil, err
	}
	s.log.Debug("extracted upload",
		zap.String("source", string(kind)),
		zap.String("file", hdr.Filename),
		zap.Int("entries", len(entries)),
	)
	return entries, nil
}

func (s *Server) compare(primary, secondary []types.BomLineEntry, ignored []types.AnnotationKey, search string) CompareResponse {
	res := s.engine.Compare(primary, secondary)
	skip := ignoreSet(ignored)
	return CompareResponse{
		Summary:    reconcile.Summarize(res.Summary.Results, skip),
		Duplicates: res.Duplicates,
		Categories: reconcile.Categorize(reconcile.Filter(res.Summary.Results, search), skip),
	}
}

func ignoreSet(keys []types.AnnotationKey) reconcile.IgnoreFunc {
	if len(keys) == 0 {
		return nil
	}
	set := make(map[types.AnnotationKey]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return func(k types.AnnotationKey) bool { return set[k] }
}

type duroRequest struct {
	Query string `json:"query"`
}

// handleDuro forwards a GraphQL query to DURO with the server's token.
// Upstream error statuses are passed through with the upstream body as
// details.
func (s *Server) handleDuro(w http.ResponseWriter, r *http.Request) {
	if s.duro == nil || !s.duro.Configured() {
		s.log.Error("DURO proxy called without DURO_API_URL or DURO_API_TOKEN")
		s.jsonResponse(w, http.StatusInternalServerError, map[string]string{
			"error":   "Server Configuration Error",
			"message": "Missing API configuration",
		})
		return
	}

	var req duroRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxProxyBody)).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		s.errorResponse(w, http.StatusBadRequest, "Query is required")
		return
	}

	body, err := json.Marshal(duroRequest{Query: req.Query})
	if err != nil {
		s.fail(w, err)
		return
	}
	status, data, err := s.duro.Do(r.Context(), body)
	if err != nil {
		s.log.Error("DURO proxy request failed", zap.Error(err))
		s.jsonResponse(w, http.StatusInternalServerError, map[string]string{
			"error":   "Internal Server Error",
			"message": err.Error(),
		})
		return
	}

	if status < 200 || status > 299 {
		var details any = string(data)
		if json.Valid(data) {
			details = json.RawMessage(data)
		}
		s.jsonResponse(w, status, map[string]any{
			"error":   fmt.Sprintf("Upstream API Error: %d %s", status, http.StatusText(status)),
			"details": details,
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.log.Warn("writing DURO response", zap.Error(err))
	}
}
