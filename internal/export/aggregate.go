package export

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/trip-export/internal/sheet"
)

// Header variants, tried in order; the first non-blank cell wins.
var (
	hTripID      = []string{"Trip_ID", "trip_id"}
	hClientID    = []string{"Client_ID", "client_id"}
	hRussia      = []string{"Russia", "russia"}
	hMainTourist = []string{"mainTourist", "main_tourist", "MainTourist"}

	hOperator          = []string{"Operator", "operator"}
	hOperatorBookingID = []string{"Operator_Booking_ID", "operator_booking_id"}
	hFrom              = []string{"From", "from"}
	hDestination       = []string{"Destination", "destination"}
	hStartDate         = []string{"Start_Date", "start_date"}
	hEndDate           = []string{"End_Date", "end_date"}
	hAccommodation     = []string{"Accommodation", "accommodation"}
	hFlights           = []string{"Flights", "flights"}
	hTransfer          = []string{"Transfer", "transfer"}
	hAdditional        = []string{"Additional_Services", "additional_services"}
	hInsurance         = []string{"Insurance", "insurance"}

	hGender       = []string{"Gender", "gender", "Sex"}
	hBirthDate    = []string{"Birth_Date", "birth_date", "DOB", "Date_of_Birth"}
	hRULastName   = []string{"RU_Last_Name", "ru_last_name", "Last_Name_RU"}
	hRUFirstName  = []string{"RU_First_Name", "ru_first_name", "First_Name_RU"}
	hRUMiddleName = []string{"RU_Middle_Name", "ru_middle_name", "Middle_Name_RU"}
	hRUIDSeries   = []string{"RU_ID_Series", "ru_id_series", "Passport_Series"}
	hRUIDNumber   = []string{"RU_ID_Number", "ru_id_number", "Passport_Number"}
	hIntLastName  = []string{"INT_Last_Name", "int_last_name", "Last_Name_EN"}
	hIntFirstName = []string{"INT_First_Name", "int_first_name", "First_Name_EN"}
	hIntIDNumber  = []string{"INT_ID_Number", "int_id_number", "Intl_Passport_Number"}
	hIntIDExpiry  = []string{"INT_ID_Expiry", "int_id_expiry", "Intl_Passport_Expiry"}

	hPhone = []string{"Phone", "Telephone", "Mobile"}
	hEmail = []string{"Email", "E-mail", "Mail"}

	hPrepayPercent = []string{"Prepay_percent", "prepay_percent", "Prepay_Percent"}
	hPaymentLink   = []string{"Payment_Link", "payment_link"}
	hPrepayAmount  = []string{"Prepay_Amount", "prepay_amount"}
	hTotalAmount   = []string{"Total_Amount", "total_amount"}
	hPaidAmount    = []string{"Paid_Amount", "paid_amount"}
	hDueDate       = []string{"Due_Date", "due_date"}
)

// Option configures Aggregate.
type Option func(*options)

type options struct {
	now    func() time.Time
	source string
}

// WithClock overrides the clock used for Meta.GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithSource overrides the Meta.Source label.
func WithSource(label string) Option {
	return func(o *options) {
		if label != "" {
			o.source = label
		}
	}
}

// Aggregate builds the export for tripID from already loaded tables. It
// fails only when no Trips row matches tripID; every other gap in the data
// degrades to empty or default values.
func Aggregate(tripID string, t Tables, opts ...Option) (*Export, error) {
	o := options{now: time.Now, source: DefaultSource}
	for _, opt := range opts {
		opt(&o)
	}

	tripID = strings.TrimSpace(tripID)
	group := TripRows(t.Trips, tripID)
	if len(group) == 0 {
		return nil, &NotFoundError{TripID: tripID}
	}

	clients := indexClients(t.Profile)
	contacts := indexContacts(t.Contacts)

	passengers := collectPassengers(group)
	mainID := resolveMainTourist(group, passengers)

	trip := buildTrip(tripID, group[0])
	trip.Russia = resolveRussia(group)
	trip.Passengers = passengers
	trip.MainTouristClientID = mainID
	trip.MainTourist = mainTouristBlock(mainID, clients, contacts)

	exp := &Export{
		Meta: Meta{
			Version:     FormatVersion,
			GeneratedAt: FormatTimestamp(o.now()),
			Source:      o.source,
		},
		Clients:  make([]ClientEntry, 0, len(passengers)),
		Contacts: []Contact{},
		Trips:    []Trip{trip},
		Payments: []Payment{},
	}

	for _, p := range passengers {
		entry := ClientEntry{ClientID: p.ClientID}
		if c, ok := clients[p.ClientID]; ok {
			entry.Profile = &c
		} else {
			zap.L().Debug("export: passenger has no profile",
				zap.String("trip_id", tripID),
				zap.String("client_id", p.ClientID),
			)
		}
		if ct, ok := contacts[p.ClientID]; ok {
			entry.Contact = &ct
			exp.Contacts = append(exp.Contacts, ct)
		}
		exp.Clients = append(exp.Clients, entry)
	}

	if p, ok := aggregatePayments(tripID, t.Payments); ok {
		exp.Payments = append(exp.Payments, p)
	}

	return exp, nil
}

// FormatTimestamp renders t in UTC with second precision and a trailing Z.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format("2006-01-02T15:04:05Z")
}

// TripRows returns the records whose trimmed trip id equals tripID, in
// source order. An empty id never matches.
func TripRows(records []sheet.Record, tripID string) []sheet.Record {
	tripID = strings.TrimSpace(tripID)
	if tripID == "" {
		return nil
	}
	var out []sheet.Record
	for _, r := range records {
		if r.First(hTripID...) == tripID {
			out = append(out, r)
		}
	}
	return out
}

func indexClients(records []sheet.Record) map[string]Client {
	idx := make(map[string]Client, len(records))
	for _, r := range records {
		id := r.First(hClientID...)
		if id == "" {
			continue
		}
		idx[id] = Client{
			ClientID:     id,
			Gender:       r.First(hGender...),
			BirthDate:    r.First(hBirthDate...),
			RULastName:   r.First(hRULastName...),
			RUFirstName:  r.First(hRUFirstName...),
			RUMiddleName: r.First(hRUMiddleName...),
			RUIDSeries:   r.First(hRUIDSeries...),
			RUIDNumber:   r.First(hRUIDNumber...),
			IntLastName:  r.First(hIntLastName...),
			IntFirstName: r.First(hIntFirstName...),
			IntIDNumber:  r.First(hIntIDNumber...),
			IntIDExpiry:  r.First(hIntIDExpiry...),
		}
	}
	return idx
}

func indexContacts(records []sheet.Record) map[string]Contact {
	idx := make(map[string]Contact, len(records))
	for _, r := range records {
		id := r.Fold(hClientID...)
		if id == "" {
			continue
		}
		idx[id] = Contact{
			ClientID: id,
			Phone:    r.Fold(hPhone...),
			Email:    r.Fold(hEmail...),
		}
	}
	return idx
}

// resolveRussia takes the first row with a non-blank Russia cell.
func resolveRussia(group []sheet.Record) bool {
	for _, r := range group {
		if v := r.First(hRussia...); v != "" {
			return ParseTruthy(v)
		}
	}
	return false
}

// collectPassengers keeps the first row per client id.
func collectPassengers(group []sheet.Record) []Passenger {
	seen := make(map[string]bool, len(group))
	out := make([]Passenger, 0, len(group))
	for _, r := range group {
		id := r.First(hClientID...)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, Passenger{
			ClientID:    id,
			MainTourist: ParseTruthy(r.First(hMainTourist...)),
		})
	}
	return out
}

// resolveMainTourist picks, in order: a flagged passenger, any flagged row
// in the group, then the first passenger. It returns "" without passengers.
func resolveMainTourist(group []sheet.Record, passengers []Passenger) string {
	if len(passengers) == 0 {
		return ""
	}
	for _, p := range passengers {
		if p.MainTourist {
			return p.ClientID
		}
	}
	for _, r := range group {
		if !ParseTruthy(r.First(hMainTourist...)) {
			continue
		}
		if id := r.First(hClientID...); id != "" {
			return id
		}
	}
	return passengers[0].ClientID
}

// buildTrip reads scalar fields from the first row of the group only.
func buildTrip(tripID string, first sheet.Record) Trip {
	return Trip{
		TripID:             tripID,
		Operator:           first.First(hOperator...),
		OperatorBookingID:  first.First(hOperatorBookingID...),
		From:               first.First(hFrom...),
		Destination:        first.First(hDestination...),
		StartDate:          first.First(hStartDate...),
		EndDate:            first.First(hEndDate...),
		Accommodation:      ParseTruthy(first.First(hAccommodation...)),
		Flights:            ParseTruthy(first.First(hFlights...)),
		Transfer:           ParseTruthy(first.First(hTransfer...)),
		AdditionalServices: ParseTruthy(first.First(hAdditional...)),
		Insurance:          ParseTruthy(first.First(hInsurance...)),
	}
}

func mainTouristBlock(id string, clients map[string]Client, contacts map[string]Contact) MainTouristBlock {
	c, ok := clients[id]
	if id == "" || !ok {
		return MainTouristBlock{}
	}
	d := &MainTourist{
		ClientID:     c.ClientID,
		RULastName:   c.RULastName,
		RUFirstName:  c.RUFirstName,
		RUMiddleName: c.RUMiddleName,
		RUIDSeries:   c.RUIDSeries,
		RUIDNumber:   c.RUIDNumber,
	}
	if ct, ok := contacts[id]; ok {
		d.Phone = &ct.Phone
		d.Email = &ct.Email
	}
	return MainTouristBlock{Detail: d}
}

// aggregatePayments folds the Payments rows of tripID. ok is false when no
// row matches.
func aggregatePayments(tripID string, records []sheet.Record) (Payment, bool) {
	rows := TripRows(records, tripID)
	if len(rows) == 0 {
		return Payment{}, false
	}

	p := Payment{TripID: tripID, PerClient: []PaymentEntry{}}
	percentSeen := false
	for _, r := range rows {
		if !percentSeen {
			if raw := r.First(hPrepayPercent...); raw != "" {
				percentSeen = true
				if v, ok := parseAmount(raw); ok {
					p.PrepayPercent = &v
				}
			}
		}
		if p.PaymentLink == "" {
			p.PaymentLink = r.First(hPaymentLink...)
		}

		id := r.First(hClientID...)
		if id == "" {
			continue
		}
		prepay, _ := parseAmount(r.First(hPrepayAmount...))
		total, _ := parseAmount(r.First(hTotalAmount...))
		paid, _ := parseAmount(r.First(hPaidAmount...))
		p.PerClient = append(p.PerClient, PaymentEntry{
			ClientID:     id,
			PrepayAmount: prepay,
			TotalAmount:  total,
			PaidAmount:   paid,
			DueDate:      r.First(hDueDate...),
		})
	}
	return p, true
}
