package handlers

import (
	"mime"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func checkContentType(r *http.Request, target string) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == target
}

// validateRequest прогоняет структуру через теги validate и возвращает
// имя первого невалидного поля
func validateRequest(req any) (string, bool) {
	err := validate.Struct(req)
	if err == nil {
		return "", true
	}
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		return errs[0].Field(), false
	}
	return "", false
}
