package helpers

import (
	"net/http"

	"github.com/isometry/recaptcha-form-app/internal/models"
)

// RespondHTTP writes a handler response to rw. The body is expected to already be JSON encoded.
func RespondHTTP(response models.Response, rw http.ResponseWriter) {
	for k, v := range response.Headers {
		rw.Header().Set(k, v)
	}
	statusCode := response.StatusCode
	if statusCode == 0 {
		statusCode = http.StatusOK
	}
	rw.WriteHeader(statusCode)
	_, _ = rw.Write([]byte(response.Body))
}
