// Package export joins the Trips, Profile, Contacts and Payments tables into
// one normalized export document per trip.
package export

import (
	"encoding/json"

	"github.com/sells-group/trip-export/internal/sheet"
)

// FormatVersion is stamped into Meta.Version.
const FormatVersion = "1.0"

// DefaultSource is the Meta.Source label used unless overridden.
const DefaultSource = "google-sheets"

// Table names read by the Builder.
const (
	TableTrips    = "Trips"
	TableProfile  = "Profile"
	TableContacts = "Contacts"
	TablePayments = "Payments"
)

// Tables holds the records of every table the aggregator reads. Any of them
// may be empty.
type Tables struct {
	Trips    []sheet.Record
	Profile  []sheet.Record
	Contacts []sheet.Record
	Payments []sheet.Record
}

// Export is the document produced for one trip.
type Export struct {
	Meta     Meta          `json:"meta"`
	Clients  []ClientEntry `json:"clients"`
	Contacts []Contact     `json:"contacts"`
	Trips    []Trip        `json:"trips"`
	Payments []Payment     `json:"payments"`
}

// Meta describes how and when the export was produced.
type Meta struct {
	Version     string `json:"version"`
	GeneratedAt string `json:"generated_at"`
	Source      string `json:"source"`
}

// Client is a traveller profile projected from the Profile table.
type Client struct {
	ClientID     string `json:"client_id"`
	Gender       string `json:"gender"`
	BirthDate    string `json:"birth_date"`
	RULastName   string `json:"ru_last_name"`
	RUFirstName  string `json:"ru_first_name"`
	RUMiddleName string `json:"ru_middle_name"`
	RUIDSeries   string `json:"ru_id_series"`
	RUIDNumber   string `json:"ru_id_number"`
	IntLastName  string `json:"int_last_name"`
	IntFirstName string `json:"int_first_name"`
	IntIDNumber  string `json:"int_id_number"`
	IntIDExpiry  string `json:"int_id_expiry"`
}

// Contact holds the phone and email of a client.
type Contact struct {
	ClientID string `json:"client_id"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

// ClientEntry is one element of Export.Clients. Profile is nil for a
// passenger that has no Profile row, in which case only the id is emitted.
type ClientEntry struct {
	ClientID string
	Profile  *Client
	Contact  *Contact
}

type clientJSON struct {
	Client
	Phone *string `json:"phone,omitempty"`
	Email *string `json:"email,omitempty"`
}

type clientStubJSON struct {
	ClientID string `json:"client_id"`
}

// MarshalJSON emits the full profile merged with the contact, or a stub.
func (e ClientEntry) MarshalJSON() ([]byte, error) {
	if e.Profile == nil {
		return json.Marshal(clientStubJSON{ClientID: e.ClientID})
	}
	out := clientJSON{Client: *e.Profile}
	if e.Contact != nil {
		out.Phone = &e.Contact.Phone
		out.Email = &e.Contact.Email
	}
	return json.Marshal(out)
}

// Passenger is one traveller on a trip.
type Passenger struct {
	ClientID    string `json:"client_id"`
	MainTourist bool   `json:"mainTourist"`
}

// MainTourist carries the Russian-locale identity of the main tourist.
type MainTourist struct {
	ClientID     string  `json:"client_id"`
	RULastName   string  `json:"ru_last_name"`
	RUFirstName  string  `json:"ru_first_name"`
	RUMiddleName string  `json:"ru_middle_name"`
	RUIDSeries   string  `json:"ru_id_series"`
	RUIDNumber   string  `json:"ru_id_number"`
	Phone        *string `json:"phone,omitempty"`
	Email        *string `json:"email,omitempty"`
}

// MainTouristBlock marshals to {} when the main tourist has no profile.
type MainTouristBlock struct {
	Detail *MainTourist
}

// MarshalJSON implements json.Marshaler.
func (b MainTouristBlock) MarshalJSON() ([]byte, error) {
	if b.Detail == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(b.Detail)
}

// Trip is the normalized view of a trip row group.
type Trip struct {
	TripID              string           `json:"trip_id"`
	Russia              bool             `json:"russia"`
	Operator            string           `json:"operator"`
	OperatorBookingID   string           `json:"operator_booking_id"`
	From                string           `json:"from"`
	Destination         string           `json:"destination"`
	StartDate           string           `json:"start_date"`
	EndDate             string           `json:"end_date"`
	Accommodation       bool             `json:"accommodation"`
	Flights             bool             `json:"flights"`
	Transfer            bool             `json:"transfer"`
	AdditionalServices  bool             `json:"additional_services"`
	Insurance           bool             `json:"insurance"`
	MainTouristClientID string           `json:"main_tourist_client_id,omitempty"`
	MainTourist         MainTouristBlock `json:"main_tourist"`
	Passengers          []Passenger      `json:"passengers"`
}

// Payment aggregates the Payments rows of one trip.
type Payment struct {
	TripID        string         `json:"trip_id"`
	PrepayPercent *float64       `json:"Prepay_percent"`
	PaymentLink   string         `json:"Payment_Link"`
	PerClient     []PaymentEntry `json:"per_client"`
}

// PaymentEntry is one client's share of a trip payment.
type PaymentEntry struct {
	ClientID     string  `json:"client_id"`
	PrepayAmount float64 `json:"prepay_amount"`
	TotalAmount  float64 `json:"total_amount"`
	PaidAmount   float64 `json:"paid_amount"`
	DueDate      string  `json:"due_date"`
}
