package domain

import "time"

// CompanyEventType tags a company lifecycle event.
type CompanyEventType string

const (
	CompanyEventPurchased   CompanyEventType = "purchased"
	CompanyEventProvisioned CompanyEventType = "provisioned"
)

// CompanyEvent is one purchase or provisioning event. Purchased events carry a
// quantity; provisioned events carry unit quantity 1 plus a serial number and
// box name.
type CompanyEvent struct {
	Timestamp    time.Time
	Type         CompanyEventType
	Company      string
	Purchased    int
	Provisioned  int
	SerialNumber string
	BoxName      string
}

// Row renders the event as an analytics table row; variant-irrelevant fields
// are nil.
func (e CompanyEvent) Row() map[string]any {
	row := map[string]any{
		"ts":      e.Timestamp,
		"type":    string(e.Type),
		"company": e.Company,
	}
	switch e.Type {
	case CompanyEventPurchased:
		row["purchased"] = e.Purchased
	case CompanyEventProvisioned:
		row["provisioned"] = e.Provisioned
		row["serial_number"] = e.SerialNumber
		row["box_name"] = e.BoxName
	}
	return row
}

// UserEventType tags a user activity event.
type UserEventType string

const (
	UserEventRegister UserEventType = "register"
	UserEventTicket   UserEventType = "support_ticket"
	UserEventCall     UserEventType = "call"
	UserEventLoad     UserEventType = "load"
	UserEventRating   UserEventType = "rating"
	UserEventComment  UserEventType = "comment"
	UserEventDialin   UserEventType = "dialin"
)

// UserEvent is one user activity event. Calls are the root events;
// rating/comment/dialin share the call's session id and timestamp, and load
// precedes the call by one minute. Pointer fields are absent for variants they
// do not apply to.
type UserEvent struct {
	Timestamp      time.Time
	Type           UserEventType
	User           string
	Company        string
	CallDuration   *int
	CallType       *string
	CallNumUsers   *int
	CallOS         *string
	Rating         *int
	Comment        *string
	SessionID      *string
	DialinDuration *int
	TicketNumber   *string
	TicketDriver   *string
}

// Row renders the event as an analytics table row; absent fields are nil.
func (e UserEvent) Row() map[string]any {
	return map[string]any{
		"ts":              e.Timestamp,
		"type":            string(e.Type),
		"user":            e.User,
		"company":         e.Company,
		"call_duration":   intOrNil(e.CallDuration),
		"call_type":       strOrNil(e.CallType),
		"call_num_users":  intOrNil(e.CallNumUsers),
		"call_os":         strOrNil(e.CallOS),
		"rating":          intOrNil(e.Rating),
		"comment":         strOrNil(e.Comment),
		"session_id":      strOrNil(e.SessionID),
		"dialin_duration": intOrNil(e.DialinDuration),
		"ticket_number":   strOrNil(e.TicketNumber),
		"ticket_driver":   strOrNil(e.TicketDriver),
	}
}

func intOrNil(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func strOrNil(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
