package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"MarketWorkbook/internal/model"
	"MarketWorkbook/internal/pipeline"
	"MarketWorkbook/internal/tickerfile"
)

// Problem types following RFC 7807.
const (
	TypeValidation = "/errors/validation"
	TypeNoData     = "/errors/data/not-found"
	TypeExport     = "/errors/export"
	TypeInternal   = "/errors/internal"
	TypeNotFound   = "/errors/not-found"
)

// Problem is an RFC 7807 problem details body.
type Problem struct {
	Type       string
	Title      string
	Status     int
	Detail     string
	Instance   string
	Extensions map[string]interface{}
}

func newProblem(status int, typ, title, detail string, r *http.Request) *Problem {
	return &Problem{Type: typ, Title: title, Status: status, Detail: detail, Instance: r.URL.Path}
}

// With adds an extension member.
func (p *Problem) With(key string, value interface{}) *Problem {
	if p.Extensions == nil {
		p.Extensions = make(map[string]interface{})
	}
	p.Extensions[key] = value
	return p
}

func writeProblem(w http.ResponseWriter, _ *http.Request, p *Problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	json.NewEncoder(w).Encode(p)
}

// MarshalJSON flattens extensions next to the standard members.
func (p *Problem) MarshalJSON() ([]byte, error) {
	data := make(map[string]interface{}, len(p.Extensions)+5)
	for k, v := range p.Extensions {
		data[k] = v
	}
	data["type"] = p.Type
	data["title"] = p.Title
	data["status"] = p.Status
	if p.Detail != "" {
		data["detail"] = p.Detail
	}
	if p.Instance != "" {
		data["instance"] = p.Instance
	}
	return json.Marshal(data)
}

// problemFor maps a handler error to its problem response.
func problemFor(err error, r *http.Request) *Problem {
	var p *Problem
	switch {
	case errors.Is(err, tickerfile.ErrMissingColumn),
		errors.Is(err, tickerfile.ErrUnreadable),
		errors.Is(err, model.ErrInvalidPeriod),
		errors.Is(err, pipeline.ErrDestination),
		errors.Is(err, errBadRequest):
		p = newProblem(http.StatusBadRequest, TypeValidation, "Invalid Request", err.Error(), r)
	case errors.Is(err, pipeline.ErrExport):
		p = newProblem(http.StatusBadGateway, TypeExport, "Export Failed", err.Error(), r)
	default:
		p = newProblem(http.StatusInternalServerError, TypeInternal, "Internal Server Error", err.Error(), r)
	}
	if id := RequestIDFrom(r.Context()); id != "" {
		p.With("trace_id", id)
	}
	return p
}
