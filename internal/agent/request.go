package agent

import (
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// QueryRequest is the payload accepted by the query endpoint
type QueryRequest struct {
	UserQuery string `json:"user_query"`
	SessionID string `json:"session_id"` // Opaque, used for log correlation only
	UserID    string `json:"user_id"`    // Opaque, used for log correlation only
}

// QueryResponse is returned on success
type QueryResponse struct {
	ResponseText string `json:"response_text"`
	AgentName    string `json:"agent_name"`
}

// FieldError describes one validation failure, reported in a 422 body
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// ValidationError is the body of a 422 response
type ValidationError struct {
	Detail []FieldError `json:"detail"`
}

// ErrorResponse is the body of a 500 response
type ErrorResponse struct {
	Detail string `json:"detail"`
}

var requiredFields = []string{"user_query", "session_id", "user_id"}

// ParseQueryRequest validates body and extracts a QueryRequest.
// Every required field must be present and a JSON string; all failures are reported.
func ParseQueryRequest(body []byte) (*QueryRequest, []FieldError) {
	if !utf8.Valid(body) {
		return nil, []FieldError{{Loc: []string{"body"}, Msg: "body is not valid utf-8", Type: "value_error.unicode"}}
	}
	if !gjson.ValidBytes(body) {
		return nil, []FieldError{{Loc: []string{"body"}, Msg: "invalid JSON body", Type: "value_error.jsondecode"}}
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, []FieldError{{Loc: []string{"body"}, Msg: "value is not a valid dict", Type: "type_error.dict"}}
	}

	// Later duplicates replace earlier ones, as encoding/json does
	members := make(map[string]gjson.Result)
	root.ForEach(func(key, value gjson.Result) bool {
		members[key.String()] = value
		return true
	})

	var errs []FieldError
	values := make(map[string]string, len(requiredFields))
	for _, field := range requiredFields {
		res, ok := members[field]
		switch {
		case !ok:
			errs = append(errs, FieldError{Loc: []string{"body", field}, Msg: "field required", Type: "value_error.missing"})
		case res.Type == gjson.Null:
			errs = append(errs, FieldError{Loc: []string{"body", field}, Msg: "none is not an allowed value", Type: "type_error.none.not_allowed"})
		case res.Type != gjson.String:
			errs = append(errs, FieldError{Loc: []string{"body", field}, Msg: "str type expected", Type: "type_error.str"})
		default:
			values[field] = res.String()
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	return &QueryRequest{
		UserQuery: values["user_query"],
		SessionID: values["session_id"],
		UserID:    values["user_id"],
	}, nil
}
