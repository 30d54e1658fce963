package generation

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// Validator checks artifact download links with a HEAD request. Any
// failure (timeout, DNS error, malformed URL, non-200 status) maps to
// false; validation never raises to its caller.
type Validator struct {
	http *resty.Client
}

// NewValidator creates a link validator with a short per-check timeout
func NewValidator() *Validator {
	return &Validator{
		http: resty.New().SetTimeout(10 * time.Second),
	}
}

// Validate reports whether the URL answers a HEAD request with status 200
func (v *Validator) Validate(url string) bool {
	resp, err := v.http.R().Head(url)
	if err != nil {
		return false
	}
	return resp.StatusCode() == 200
}
