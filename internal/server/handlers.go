package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matzehuels/tierplan/pkg/buildinfo"
	errs "github.com/matzehuels/tierplan/pkg/errors"
	planio "github.com/matzehuels/tierplan/pkg/io"
	"github.com/matzehuels/tierplan/pkg/pipeline"
	"github.com/matzehuels/tierplan/pkg/planner"
	"github.com/matzehuels/tierplan/pkg/render/nodelink"
)

type healthResponse struct {
	Status  string         `json:"status"`
	Build   buildinfo.Info `json:"build"`
	Catalog string         `json:"catalog"`
	Goods   int            `json:"goods"`
	Recipes int            `json:"recipes"`
}

type planResponse struct {
	Key      string           `json:"key,omitzero"`
	CacheHit bool             `json:"cache_hit"`
	Duration string           `json:"duration,omitzero"`
	Version  uint64           `json:"version,omitzero"`
	Summary  pipeline.Summary `json:"summary"`
	Plan     json.RawMessage  `json:"plan"`
}

type jobResponse struct {
	ID       string        `json:"id"`
	Status   string        `json:"status"`
	Started  time.Time     `json:"started"`
	Duration string        `json:"duration"`
	Result   *planResponse `json:"result,omitempty"`
	Error    *errorBody    `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Build:   buildinfo.Get(),
		Catalog: s.catalog.Fingerprint(),
		Goods:   s.catalog.GoodCount(),
		Recipes: s.catalog.RecipeCount(),
	})
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	ticket := s.board.Reserve()
	res, err := s.runner.Solve(r.Context(), s.catalog, req, pipeline.Options{Refresh: refresh(r)})
	if err != nil {
		s.board.ApplyReserved(ticket, nil, err)
		writeError(w, err)
		return
	}
	s.board.ApplyReserved(ticket, res.Plan, nil)

	body, err := s.planBody(res.Plan)
	if err != nil {
		writeError(w, err)
		return
	}
	body.Key = res.Key
	body.CacheHit = res.CacheHit
	body.Duration = res.Duration.String()
	body.Version = s.board.Version()
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleStartJob(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	opts := pipeline.Options{Refresh: refresh(r)}
	ticket := s.board.Reserve()
	task := s.runner.Start(s.base, s.catalog, req, opts)
	s.jobs.add(task)
	go func() {
		p, err := task.Wait(context.Background())
		if published, _ := s.board.ApplyReserved(ticket, p, err); !published && err == nil {
			s.logger.Debug("dropping superseded job result", "job", task.ID())
		}
	}()

	w.Header().Set("Location", "/v1/jobs/"+task.ID().String())
	writeJSON(w, http.StatusAccepted, s.jobBody(task))
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, errs.New(errs.ErrCodeInvalidInput, "invalid job id"))
		return
	}
	task, ok := s.jobs.get(id)
	if !ok {
		writeError(w, errs.New(errs.ErrCodeNotFound, "job %s not found", id))
		return
	}
	writeJSON(w, http.StatusOK, s.jobBody(task))
}

func (s *Server) handleCurrentPlan(w http.ResponseWriter, r *http.Request) {
	p := s.board.Current()
	if p == nil {
		writeError(w, errs.New(errs.ErrCodeNotFound, "no plan published"))
		return
	}
	body, err := s.planBody(p)
	if err != nil {
		writeError(w, err)
		return
	}
	body.Version = s.board.Version()
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleRenderPlan(w http.ResponseWriter, r *http.Request) {
	p := s.board.Current()
	if p == nil {
		writeError(w, errs.New(errs.ErrCodeNotFound, "no plan published"))
		return
	}

	q := r.URL.Query()
	format := nodelink.FormatSVG
	if f := q.Get("format"); f != "" {
		var err error
		if format, err = nodelink.ParseFormat(f); err != nil {
			writeError(w, err)
			return
		}
	}
	detailed, _ := strconv.ParseBool(q.Get("detailed"))

	out, hit, err := s.runner.Render(r.Context(), s.catalog, p, pipeline.RenderOptions{
		Format:    format,
		Direction: q.Get("direction"),
		Detailed:  detailed,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType(format))
	w.Header().Set("X-Cache", cacheHeader(hit))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func (s *Server) planBody(p *planner.Plan) (*planResponse, error) {
	data, err := planio.MarshalPlan(s.catalog, p)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "encode plan")
	}
	return &planResponse{Summary: pipeline.Summarize(p), Plan: data}, nil
}

func (s *Server) jobBody(t *planner.Task) jobResponse {
	body := jobResponse{
		ID:       t.ID().String(),
		Status:   "running",
		Started:  t.Started(),
		Duration: t.Duration().Round(time.Millisecond).String(),
	}
	if !t.Finished() {
		return body
	}

	p, err := t.Wait(context.Background())
	if err != nil {
		body.Status = "failed"
		e := toErrorBody(err)
		body.Error = &e
		return body
	}
	body.Status = "done"
	if pb, err := s.planBody(p); err == nil {
		body.Result = pb
	}
	return body
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (*planio.Request, error) {
	body := http.MaxBytesReader(w, r.Body, MaxRequestBytes)
	defer body.Close()
	return planio.ReadRequest(body, planio.FormatJSON)
}

func refresh(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	return v
}

func contentType(f nodelink.Format) string {
	switch f {
	case nodelink.FormatSVG:
		return "image/svg+xml"
	case nodelink.FormatPNG:
		return "image/png"
	default:
		return "text/vnd.graphviz; charset=utf-8"
	}
}

func cacheHeader(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}
