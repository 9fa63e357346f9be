package shared

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// maxRequestBody caps request bodies at 1 MiB. Task payloads are tiny; the
// limit only exists to stop a hostile client from streaming forever.
const maxRequestBody = 1 << 20

var validate = validator.New()

// DecodeJSON reads the request body into v, enforcing the body size cap.
func DecodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBody)).Decode(v)
}

// ValidateRequest checks v against its validator struct tags. A type that
// implements its own Validate method is validated through that instead.
func ValidateRequest(v interface{}) error {
	if custom, ok := v.(interface{ Validate() error }); ok {
		return custom.Validate()
	}
	return validate.Struct(v)
}
