package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

const maxBody = 1 << 20

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		return Invalid("decode body: %v", err)
	}
	return nil
}

func PathInt64(params map[string]string, name string) (int64, error) {
	raw, ok := params[name]
	if !ok {
		return 0, Invalid("missing path parameter %q", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, Invalid("path parameter %q must be a positive integer", name)
	}
	return id, nil
}

// QueryInt64 returns def when the parameter is absent.
func QueryInt64(r *http.Request, name string, def int64) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, Invalid("query parameter %q must be a positive integer", name)
	}
	return id, nil
}

// QueryDate parses a YYYY-MM-DD parameter; an absent parameter yields the zero time.
func QueryDate(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, Invalid("query parameter %q must be YYYY-MM-DD", name)
	}
	return t, nil
}
