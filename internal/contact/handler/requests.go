package handler

import (
	"bytes"
	"encoding/json"
	"fmt"

	"id-recon/internal/contact/models"
)

// IdentifyRequest is the POST /identify body. Both fields are optional and
// may be null; phoneNumber may also be sent as a JSON number.
type IdentifyRequest struct {
	Email       *string       `json:"email"`
	PhoneNumber identifierStr `json:"phoneNumber"`
}

func (r *IdentifyRequest) Model() models.IdentifyRequest {
	var email string
	if r.Email != nil {
		email = *r.Email
	}
	return models.IdentifyRequest{Email: email, PhoneNumber: string(r.PhoneNumber)}
}

func (r *IdentifyRequest) Validate() error {
	return r.Model().Validate()
}

// identifierStr accepts a JSON string, number, or null. Numbers keep their
// literal decimal text.
type identifierStr string

func (s *identifierStr) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = identifierStr(v)
		return nil
	default:
		var n json.Number
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("phoneNumber must be a string or number")
		}
		*s = identifierStr(n.String())
		return nil
	}
}
