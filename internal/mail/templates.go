package mail

import (
	"fmt"
	"strings"

	"shoecare/internal/events"
	"shoecare/internal/models"
)

const dateLayout = "Monday, 2 January 2006"

// BookingReceipt is sent to the customer after a booking is created.
func BookingReceipt(brand string, p events.BookingEventPayload) models.Email {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", p.CustomerName)
	fmt.Fprintf(&b, "Thanks for booking with %s. We received your request.\n\n", brand)
	fmt.Fprintf(&b, "Booking #%d\n", p.BookingID)
	fmt.Fprintf(&b, "Shoes: %s\n", p.ShoeType)
	fmt.Fprintf(&b, "Service: %s\n", p.ServiceType)
	fmt.Fprintf(&b, "Date: %s\n", p.ScheduledDate.Format(dateLayout))
	if p.CollectionRequired {
		b.WriteString("Collection: we will collect the shoes from your address.\n")
	}
	fmt.Fprintf(&b, "Status: %s\n", models.StatusInfo(p.Status).Label)

	return models.Email{
		To:      p.CustomerEmail,
		Subject: fmt.Sprintf("%s: booking #%d received", brand, p.BookingID),
		Body:    b.String(),
	}
}

// StatusNotice tells the customer that their booking moved to a new status.
func StatusNotice(brand string, p events.BookingEventPayload) models.Email {
	label := models.StatusInfo(p.Status).Label

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", p.CustomerName)
	fmt.Fprintf(&b, "Your booking #%d is now: %s.\n", p.BookingID, label)
	fmt.Fprintf(&b, "Previously: %s.\n\n", models.StatusInfo(p.PreviousStatus).Label)
	fmt.Fprintf(&b, "%s\n", brand)

	return models.Email{
		To:      p.CustomerEmail,
		Subject: fmt.Sprintf("%s: booking #%d is %s", brand, p.BookingID, label),
		Body:    b.String(),
	}
}

// DeletionNotice confirms that a booking was withdrawn and will not go ahead.
func DeletionNotice(brand string, p events.BookingEventPayload) models.Email {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", p.CustomerName)
	fmt.Fprintf(&b, "Your booking #%d for %s has been removed.\n", p.BookingID, p.ScheduledDate.Format(dateLayout))
	b.WriteString("If this was a mistake, you are welcome to book again.\n\n")
	fmt.Fprintf(&b, "%s\n", brand)

	return models.Email{
		To:      p.CustomerEmail,
		Subject: fmt.Sprintf("%s: booking #%d removed", brand, p.BookingID),
		Body:    b.String(),
	}
}
