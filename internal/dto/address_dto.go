package dto

import "time"

type AddressRequest struct {
	Street    string `json:"street"     validate:"required,max=255"`
	City      string `json:"city"       validate:"required,max=100"`
	State     string `json:"state"      validate:"required,max=100"`
	ZipCode   string `json:"zip_code"   validate:"required,max=20"`
	IsDefault bool   `json:"is_default"`
}

type AddressResponse struct {
	ID        uint      `json:"id"`
	Street    string    `json:"street"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	ZipCode   string    `json:"zip_code"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
}
