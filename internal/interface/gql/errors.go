package gql

import (
	"table-reservation-service/internal/interface/rest"
)

// resolverError carries the same code, message and field list a REST client would see
type resolverError struct {
	status int
	body   rest.ErrorResponse
}

func (e *resolverError) Error() string {
	return e.body.Message
}

// Extensions is picked up by graphql-go and rendered under errors[].extensions
func (e *resolverError) Extensions() map[string]interface{} {
	ext := map[string]interface{}{
		"code":   string(e.body.Code),
		"status": e.status,
	}
	if len(e.body.Errors) > 0 {
		fields := make([]map[string]string, 0, len(e.body.Errors))
		for _, v := range e.body.Errors {
			fields = append(fields, map[string]string{"field": v.Field, "message": v.Message})
		}
		ext["fields"] = fields
	}
	if e.body.Error != "" {
		ext["error"] = e.body.Error
	}
	return ext
}
