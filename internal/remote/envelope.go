package remote

import (
	"encoding/json"
	"time"
)

// Known actions on the Desktop channel.
const (
	ActionPrimaryRecord = "obtenerEF1Sistema"
	ActionLots          = "getLotes"
	ActionProcessStart  = "fechaInicioProceso"
	ActionProcessEnd    = "fechaFinProceso"
)

// Collections the actions operate on.
const (
	CollectionDesktop = "variablesDesktop"
	CollectionLots    = "lotes"
)

// LotsQueryStage scopes getLotes to lots that are in process.
const LotsQueryStage = "proceso"

// TimestampLayout matches JavaScript's Date.toISOString.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t as an ISO-8601 UTC timestamp with milliseconds.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Message is the action payload. Fields are merged alongside action and collection.
type Message struct {
	Action     string
	Collection string
	Fields     map[string]any
}

// MarshalJSON flattens Fields next to action and collection.
func (m Message) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Fields)+2)
	for k, v := range m.Fields {
		out[k] = v
	}
	out["action"] = m.Action
	out["collection"] = m.Collection
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (m *Message) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	m.Action, _ = raw["action"].(string)
	m.Collection, _ = raw["collection"].(string)
	delete(raw, "action")
	delete(raw, "collection")
	m.Fields = raw
	return nil
}

// Envelope is what goes on the wire: { data: Message }.
type Envelope struct {
	Data Message `json:"data"`
}

// PrimaryRecordRequest asks for the current EF1 record.
func PrimaryRecordRequest() Envelope {
	return Envelope{Data: Message{Action: ActionPrimaryRecord, Collection: CollectionDesktop}}
}

// ProcessStartRequest notifies the backend that the display started.
func ProcessStartRequest(at time.Time) Envelope {
	return Envelope{Data: Message{
		Action:     ActionProcessStart,
		Collection: CollectionDesktop,
		Fields:     map[string]any{"fechaInicio": FormatTimestamp(at)},
	}}
}

// ProcessEndRequest notifies the backend that the display went to the background.
func ProcessEndRequest(at time.Time) Envelope {
	return Envelope{Data: Message{
		Action:     ActionProcessEnd,
		Collection: CollectionDesktop,
		Fields:     map[string]any{"fechaFin": FormatTimestamp(at)},
	}}
}

// LotsQuery is the nested query of a getLotes request.
type LotsQuery struct {
	Select   map[string]any `json:"select"`
	Populate Populate       `json:"populate"`
	Sort     map[string]int `json:"sort"`
}

// Populate asks the backend to join a related collection.
type Populate struct {
	Path   string `json:"path"`
	Select string `json:"select"`
}

// LotsRequest queries in-process lots, newest first, with their site joined in.
func LotsRequest() Envelope {
	return Envelope{Data: Message{
		Action:     ActionLots,
		Collection: CollectionLots,
		Fields: map[string]any{
			"query": LotsQueryStage,
			"data": LotsQuery{
				Select:   map[string]any{},
				Populate: Populate{Path: "predio", Select: "PREDIO ICA"},
				Sort:     map[string]int{"fechaIngreso": -1},
			},
		},
	}}
}
