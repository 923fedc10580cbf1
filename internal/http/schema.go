package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/readify/storefront/internal/ledger"
)

var (
	addItemSchema = mustSchema(`{
		"type": "object",
		"required": ["book_id"],
		"properties": {
			"book_id": {"type": "integer", "minimum": 1}
		}
	}`)

	setQuantitySchema = mustSchema(fmt.Sprintf(`{
		"type": "object",
		"required": ["quantity"],
		"properties": {
			"quantity": {"type": "integer", "maximum": %d}
		}
	}`, ledger.MaxQuantity))

	startCheckoutSchema = mustSchema(`{
		"type": "object",
		"properties": {
			"book_id": {"type": ["integer", "null"], "minimum": 1}
		}
	}`)

	// Field rules live in checkout.Validate so the first failing field wins.
	customerSchema = mustSchema(`{
		"type": "object",
		"properties": {
			"fullName": {"type": "string"},
			"email":    {"type": "string"},
			"phone":    {"type": "string"},
			"address":  {"type": "string"},
			"city":     {"type": "string"},
			"state":    {"type": "string"},
			"pincode":  {"type": "string"}
		}
	}`)

	confirmSchema = mustSchema(`{
		"type": "object",
		"properties": {
			"transaction_id": {"type": "string"}
		}
	}`)

	loginSchema = mustSchema(`{
		"type": "object",
		"required": ["email", "password"],
		"properties": {
			"email":    {"type": "string", "minLength": 1},
			"password": {"type": "string", "minLength": 1}
		}
	}`)

	orderStatusSchema = mustSchema(`{
		"type": "object",
		"required": ["status"],
		"properties": {
			"status": {"type": "string", "minLength": 1}
		}
	}`)
)

var errEmptyBody = errors.New("request body is empty")

func mustSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("invalid request schema: %v", err))
	}
	return schema
}

// decodeBody validates the JSON body against schema and decodes it into dst.
// An empty body is treated as {} when allowEmpty is set.
func decodeBody(r *http.Request, schema *gojsonschema.Schema, dst any, allowEmpty bool) error {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		if !allowEmpty {
			return errEmptyBody
		}
		raw = []byte("{}")
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("invalid request: %s", strings.Join(msgs, "; "))
	}

	return json.Unmarshal(raw, dst)
}

func respondBadBody(w http.ResponseWriter, err error) {
	respondJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   "invalid request body",
		Code:    "invalid_request",
		Details: err.Error(),
	})
}
