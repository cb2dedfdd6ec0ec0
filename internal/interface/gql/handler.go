package gql

import (
	"encoding/json"
	"net/http"

	"github.com/graph-gophers/graphql-go"
	gqlerrors "github.com/graph-gophers/graphql-go/errors"

	"table-reservation-service/internal/domain/entity"
	"table-reservation-service/internal/infrastructure/auth"
)

type request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// Handler serves the typed surface. The caller's bearer token is placed on
// the request context for staff mutations.
type Handler struct {
	schema *graphql.Schema
}

// NewHandler parses the schema against resolver and returns the HTTP endpoint
func NewHandler(resolver *Resolver) *Handler {
	return &Handler{
		schema: graphql.MustParseSchema(Schema, resolver, graphql.MaxDepth(8)),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		qe := &gqlerrors.QueryError{Message: "malformed JSON body"}
		classifyRequestError(qe)
		writeJSON(w, http.StatusBadRequest, &graphql.Response{Errors: []*gqlerrors.QueryError{qe}})
		return
	}

	ctx := auth.ContextWithToken(r.Context(), auth.BearerToken(r.Header.Get("Authorization")))
	resp := h.schema.Exec(ctx, req.Query, req.OperationName, req.Variables)
	for _, qe := range resp.Errors {
		classifyRequestError(qe)
	}
	writeJSON(w, http.StatusOK, resp)
}

// classifyRequestError tags errors raised before any resolver ran (syntax,
// unknown fields, variable coercion) as validation failures, the class REST
// reports for a body it cannot accept. Resolver errors already carry their code.
func classifyRequestError(qe *gqlerrors.QueryError) {
	if qe == nil || qe.ResolverError != nil || len(qe.Path) > 0 || qe.Extensions != nil {
		return
	}
	qe.Extensions = map[string]interface{}{
		"code":   string(entity.KindValidation),
		"status": http.StatusBadRequest,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
