package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// page: параметры limit/offset из query.
type page struct {
	limit  int
	offset int
}

// parsePage читает limit и offset. Пустые значения дают значения по умолчанию.
func parsePage(r *http.Request) (page, error) {
	p := page{limit: defaultLimit}

	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxLimit {
			return p, fmt.Errorf("limit must be between 1 and %d", maxLimit)
		}
		p.limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return p, fmt.Errorf("offset must be a non-negative integer")
		}
		p.offset = n
	}
	return p, nil
}

// decodeJSON читает тело запроса, запрещая неизвестные поля.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
