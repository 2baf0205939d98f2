package synth

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"success-hq/backend/internal/demodata/domain"
)

// UserEvents generates the full activity stream for one user: a registration
// event, then support tickets, then calls with their derived sub-events. The
// ticket and call streams each advance monotonically from the registration
// date.
func UserEvents(rng *rand.Rand, now time.Time, user domain.User) []domain.UserEvent {
	events := []domain.UserEvent{registrationEvent(user)}
	events = append(events, ticketEvents(rng, now, user)...)
	events = append(events, callEvents(rng, now, user)...)
	return events
}

func registrationEvent(user domain.User) domain.UserEvent {
	return domain.UserEvent{
		Timestamp: user.RegDate,
		Type:      domain.UserEventRegister,
		User:      user.Email,
		Company:   user.Company,
	}
}

// ticketEvents spreads support tickets over the user's lifetime. A per-user
// trouble factor decides the volume: between days/8 and days/2 tickets.
func ticketEvents(rng *rand.Rand, now time.Time, user domain.User) []domain.UserEvent {
	seconds := now.Sub(user.RegDate).Seconds()
	days := int(seconds / 86400)
	troubley := Between(rng, 0, 3)
	tickets := days / (4 - troubley) / 2
	if tickets <= 0 {
		return nil
	}

	events := make([]domain.UserEvent, 0, tickets)
	spacing := int(seconds / float64(tickets) / 1.1)
	cursor := user.RegDate
	for i := 0; i < tickets; i++ {
		ts := user.RegDate.Add(time.Duration(spacing*i) * time.Second)
		if ts.Before(cursor) {
			ts = cursor
		}
		cursor = ts

		number := fmt.Sprintf("%s-%d", user.Email, i)
		driver := Choice(rng, Drivers)
		events = append(events, domain.UserEvent{
			Timestamp:    ts,
			Type:         domain.UserEventTicket,
			User:         user.Email,
			Company:      user.Company,
			TicketNumber: &number,
			TicketDriver: &driver,
		})
	}
	return events
}

// callEvents generates the user's calls plus derived sub-events. Per-user
// propensities drawn once up front shape the whole stream: call frequency,
// happiness, willingness to rate and comment, and talkativeness. Each call
// carries a fresh session id shared by its load, rating, comment, and dialin
// events.
func callEvents(rng *rand.Rand, now time.Time, user domain.User) []domain.UserEvent {
	os := Choice(rng, OperatingSystems)
	seconds := now.Sub(user.RegDate).Seconds()
	days := int(seconds / 86400)
	freq := Between(rng, 1, 10)
	calls := int(float64(days) / float64(11-freq) * 10)
	if calls <= 0 {
		return nil
	}

	happy := Between(rng, 0, 2)
	ratey := Between(rng, 0, 2)
	commenty := Between(rng, 0, 2)
	chatty := Between(rng, 0, 4)

	var events []domain.UserEvent
	cursor := user.RegDate
	for call := 0; call < calls; call++ {
		callNum := call + 1

		callHappy := Between(rng, 0, 99) >= happy*25

		var rating *int
		if Between(rng, 0, 99) <= ratey*40 {
			var r int
			if callHappy {
				r = Between(rng, 4, 5)
			} else {
				r = Between(rng, 1, 3)
			}
			rating = &r
		}

		var comment *string
		if float64(Between(rng, 0, 99)) <= float64(commenty)*33*float64(ratey)/3 {
			var c string
			if rating != nil && *rating >= 3 {
				c = Choice(rng, GoodComments)
			} else {
				c = Choice(rng, BadComments)
			}
			comment = &c
		}

		length := chatty * Between(rng, 5, 20)

		var dialin *int
		if Between(rng, 0, 99) < 40 && length > 0 {
			d := length
			dialin = &d
		}

		callType := pickBand(Between(rng, 0, 99), 35, 70, 90, CallTypes)

		var participants int
		sizeScore := Between(rng, 0, 99)
		switch {
		case sizeScore < 35:
			participants = 2
		case sizeScore < 70:
			participants = 3
		case sizeScore < 95:
			participants = 4
		default:
			participants = sizeScore - 90 + 5
		}

		shift := int(seconds/float64(calls)+float64(Between(rng, -1000, 1000))) * callNum
		ts := user.RegDate.Add(time.Duration(shift) * time.Second)
		if ts.After(now) {
			ts = now
		}
		if ts.Before(cursor) {
			ts = cursor
		}
		cursor = ts

		sessionID := uuid.NewString()
		callOS := os

		events = append(events, domain.UserEvent{
			Timestamp: ts.Add(-time.Minute),
			Type:      domain.UserEventLoad,
			User:      user.Email,
			Company:   user.Company,
			SessionID: &sessionID,
		})
		events = append(events, domain.UserEvent{
			Timestamp:    ts,
			Type:         domain.UserEventCall,
			User:         user.Email,
			Company:      user.Company,
			CallDuration: &length,
			CallType:     &callType,
			CallNumUsers: &participants,
			CallOS:       &callOS,
			SessionID:    &sessionID,
		})
		if rating != nil {
			events = append(events, domain.UserEvent{
				Timestamp: ts,
				Type:      domain.UserEventRating,
				User:      user.Email,
				Company:   user.Company,
				Rating:    rating,
				SessionID: &sessionID,
			})
		}
		if comment != nil {
			events = append(events, domain.UserEvent{
				Timestamp: ts,
				Type:      domain.UserEventComment,
				User:      user.Email,
				Company:   user.Company,
				Comment:   comment,
				SessionID: &sessionID,
			})
		}
		if dialin != nil {
			events = append(events, domain.UserEvent{
				Timestamp:      ts,
				Type:           domain.UserEventDialin,
				User:           user.Email,
				Company:        user.Company,
				DialinDuration: dialin,
				SessionID:      &sessionID,
			})
		}
	}
	return events
}

// pickBand maps a score in [0,100) onto one of four options using three
// ascending cutoffs.
func pickBand(score, c1, c2, c3 int, options []string) string {
	switch {
	case score < c1:
		return options[0]
	case score < c2:
		return options[1]
	case score < c3:
		return options[2]
	default:
		return options[3]
	}
}
