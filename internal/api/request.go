package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"kiosk-sections-backend/internal/parse"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if id, ok := field.Interface().(parse.FlexibleID); ok {
			return id.String()
		}
		return nil
	}, parse.FlexibleID{})
	return v
}

// rpcEnvelope is the JSON-RPC style wrapper some clients send.
type rpcEnvelope struct {
	Params json.RawMessage `json:"params"`
}

// bindBody decodes the request body into dst and runs its validate tags. The
// body may be the payload itself or {"params": payload}.
func bindBody(c *gin.Context, dst any) error {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return badRequest("Request body must be JSON")
	}

	var env rpcEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return badRequest("Invalid JSON format: " + err.Error())
	}
	payload := raw
	if p := bytes.TrimSpace(env.Params); len(p) > 0 && !bytes.Equal(p, []byte("null")) {
		payload = p
	}

	if err := json.Unmarshal(payload, dst); err != nil {
		return badRequest("Invalid JSON format: " + err.Error())
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return badRequest(verrs[0].Field() + " is required")
		}
		return fmt.Errorf("validate body: %w", err)
	}
	return nil
}

// pathID parses the named path parameter, reporting failures as invalidMsg.
func pathID(c *gin.Context, name, invalidMsg string) (int64, error) {
	id, err := parse.ID(c.Param(name))
	if err != nil {
		return 0, badRequest(invalidMsg)
	}
	return id, nil
}
