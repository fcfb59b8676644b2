package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/matzehuels/flowsankey/pkg/balance"
	"github.com/matzehuels/flowsankey/pkg/buildinfo"
	ferrors "github.com/matzehuels/flowsankey/pkg/errors"
	"github.com/matzehuels/flowsankey/pkg/flow"
	rowio "github.com/matzehuels/flowsankey/pkg/io"
	"github.com/matzehuels/flowsankey/pkg/override"
	"github.com/matzehuels/flowsankey/pkg/pipeline"
)

// Response headers.
const (
	headerCache   = "X-Cache"
	headerBalance = "X-Balance"
)

var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
}

// renderRequest is the body of POST /v1/render. Settings are decoded
// like a stored document, so legacy orderY ranks are migrated.
type renderRequest struct {
	Rows       []flow.Row       `json:"rows"`
	Settings   json.RawMessage  `json:"settings,omitempty"`
	Vocabulary *flow.Vocabulary `json:"vocabulary,omitempty"`
	Language   string           `json:"language,omitempty"`
	Scale      float64          `json:"scale,omitempty"`
}

// ClassifiedRow is one entry of the classify response.
type ClassifiedRow struct {
	ID     string        `json:"id,omitempty"`
	Source string        `json:"source"`
	Target string        `json:"target"`
	Type   flow.FlowType `json:"type,omitempty"`
	Valid  bool          `json:"valid"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}

	var req renderRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	opts, err := s.renderOptions(r.Context(), req, format)
	if err != nil {
		s.respondError(w, err)
		return
	}
	hash, err := opts.InputHash()
	if err != nil {
		s.respondError(w, err)
		return
	}

	etag := fmt.Sprintf("%q", hash[:32]+"-"+format)
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	v, err, shared := s.flights.Do(hash+"/"+format, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.renderTimeout())
		defer cancel()
		return s.runner.Execute(ctx, opts)
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	result := v.(*pipeline.Result)

	cacheState := "miss"
	switch {
	case result.CacheInfo.RenderHit:
		cacheState = "hit"
	case shared:
		cacheState = "shared"
	}
	h := w.Header()
	h.Set("Content-Type", contentTypes[format])
	h.Set("ETag", etag)
	h.Set(headerCache, cacheState)
	h.Set(headerBalance, balanceState(result.Balance))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Artifacts[format]); err != nil {
		s.logger.Debug("write response", "error", err)
	}
}

// renderOptions turns a request into validated pipeline options for a
// single format.
func (s *Server) renderOptions(ctx context.Context, req renderRequest, format string) (pipeline.Options, error) {
	if err := pipeline.ValidateFormat(format); err != nil {
		return pipeline.Options{}, err
	}

	vocab := s.vocabulary(req.Vocabulary)
	settings := override.Defaults()
	if raw := bytes.TrimSpace(req.Settings); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		decoded, legacy, err := override.DecodeSettings(raw)
		if err != nil {
			return pipeline.Options{}, ferrors.Wrap(ferrors.ErrCodeInvalidSettings, err, "decode settings")
		}
		if len(legacy) > 0 {
			g := pipeline.BuildGraph(ctx, req.Rows, flow.NewClassifier(mergedVocabulary(vocab)))
			decoded = override.Migrate(decoded, legacy, g)
		}
		settings = decoded
	}

	lang := req.Language
	if lang == "" {
		lang = s.language
	}
	opts := pipeline.Options{
		Rows:       flow.EnsureIDs(req.Rows),
		Settings:   &settings,
		Vocabulary: vocab,
		Formats:    []string{format},
		Scale:      req.Scale,
		Language:   lang,
		Logger:     s.logger,
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return pipeline.Options{}, err
	}
	return opts, nil
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	rows, err := readRows(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	report := balance.Check(rows)
	w.Header().Set(headerBalance, balanceState(report))
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	rows, err := readRows(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	c := flow.NewClassifier(mergedVocabulary(s.vocab))
	out := make([]ClassifiedRow, len(rows))
	for i, row := range rows {
		out[i] = ClassifiedRow{
			ID:     row.ID,
			Source: row.SourceName(),
			Target: row.TargetName(),
			Valid:  row.Valid(),
		}
		if out[i].Source != "" && out[i].Target != "" {
			out[i].Type = c.Classify(out[i].Source, out[i].Target)
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"rows": out})
}

func balanceState(r balance.Report) string {
	if r.OK() {
		return "balanced"
	}
	return "imbalanced"
}

// vocabulary combines the configured terms with the request's.
func (s *Server) vocabulary(req *flow.Vocabulary) *flow.Vocabulary {
	switch {
	case s.vocab == nil:
		return req
	case req == nil:
		return s.vocab
	}
	v := s.vocab.Merge(*req)
	return &v
}

func mergedVocabulary(v *flow.Vocabulary) flow.Vocabulary {
	out := flow.DefaultVocabulary()
	if v != nil {
		out = out.Merge(*v)
	}
	return out
}

// readRows decodes a row list in the format named by the Content-Type:
// TSV for text bodies, YAML for yaml bodies and JSON otherwise.
func readRows(r *http.Request) ([]flow.Row, error) {
	format := rowio.FormatJSON
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil {
		switch {
		case mt == "text/tab-separated-values" || mt == "text/plain":
			format = rowio.FormatTSV
		case strings.HasSuffix(mt, "yaml"):
			format = rowio.FormatYAML
		}
	}
	rows, err := rowio.ReadRows(r.Body, format)
	if err != nil {
		return nil, bodyError(err)
	}
	return rows, nil
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return bodyError(err)
	}
	return nil
}

var errTooLarge = errors.New("request body too large")

func bodyError(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return fmt.Errorf("%w: limit %d bytes", errTooLarge, mbe.Limit)
	}
	return ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "invalid request body")
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Debug("encode response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := ferrors.HTTPStatus(err)
	if errors.Is(err, errTooLarge) {
		status = http.StatusRequestEntityTooLarge
	}
	if errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Code:    string(ferrors.GetCode(err)),
		Message: ferrors.UserMessage(err),
	})
}
