package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Ident is an identifier the backend may send as a string, a number, or a
// populated document ({"_id": ...}).
type Ident string

// UnmarshalJSON accepts strings, numbers, null, and objects carrying _id.
func (id *Ident) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}

	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = Ident(s)
	case '{':
		var doc struct {
			ID Ident `json:"_id"`
		}
		if err := json.Unmarshal(b, &doc); err != nil {
			return err
		}
		*id = doc.ID
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("identifier must be a string, number, or object: %s", string(b))
		}
		*id = Ident(n.String())
	}
	return nil
}

// String returns the identifier as text.
func (id Ident) String() string {
	return string(id)
}

// TelevisorRecord is the primary EF1 snapshot shown on the display.
type TelevisorRecord struct {
	ENF          Ident  `json:"enf"`
	NombrePredio string `json:"nombrePredio"`
	Predio       Ident  `json:"predio"`
	TipoFruta    string `json:"tipoFruta"`
}

// Site is the predio document joined into a lot.
type Site struct {
	ID   Ident  `json:"_id"`
	Name string `json:"PREDIO"`
	ICA  Ident  `json:"ICA"`
}

// UnmarshalJSON accepts either a populated document or a bare identifier.
func (s *Site) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		type plain Site
		var p plain
		if err := json.Unmarshal(b, &p); err != nil {
			return err
		}
		*s = Site(p)
		return nil
	}
	*s = Site{}
	return s.ID.UnmarshalJSON(b)
}

// Lot is one entry of the getLotes reply; the one matching the primary
// record's site is the SiteRecord.
type Lot struct {
	ID          Ident    `json:"_id"`
	ENF         Ident    `json:"enf"`
	Site        Site     `json:"predio"`
	Rendimiento *float64 `json:"rendimiento"`
}

// Yield returns the lot's yield percentage, zero when unset.
func (l *Lot) Yield() float64 {
	if l == nil || l.Rendimiento == nil {
		return 0
	}
	return *l.Rendimiento
}

// FindSite returns the first lot whose site matches predio, or nil.
func FindSite(lots []Lot, predio Ident) *Lot {
	if predio == "" {
		return nil
	}
	for i := range lots {
		if lots[i].Site.ID == predio {
			lot := lots[i]
			return &lot
		}
	}
	return nil
}

// decodePrimary validates an obtenerEF1Sistema reply.
func decodePrimary(reply json.RawMessage) (TelevisorRecord, error) {
	var rec TelevisorRecord
	if !isObject(reply) {
		return rec, fmt.Errorf("expected an object, got %s", preview(reply))
	}
	if err := json.Unmarshal(reply, &rec); err != nil {
		return rec, err
	}
	return rec, nil
}

// decodeLots validates a getLotes reply: { data: [lot...] }.
func decodeLots(reply json.RawMessage) ([]Lot, error) {
	if !isObject(reply) {
		return nil, fmt.Errorf("expected an object, got %s", preview(reply))
	}
	var body struct {
		Data *[]Lot `json:"data"`
	}
	if err := json.Unmarshal(reply, &body); err != nil {
		return nil, err
	}
	if body.Data == nil {
		return nil, fmt.Errorf("reply has no data list: %s", preview(reply))
	}
	return *body.Data, nil
}

func isObject(b json.RawMessage) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == '{'
}

func preview(b json.RawMessage) string {
	const max = 80
	s := string(b)
	if s == "" {
		return "nothing"
	}
	if len(s) > max {
		return strconv.Quote(s[:max] + "...")
	}
	return s
}
