package notify

import (
	"fmt"
	"log/slog"
	"time"
)

// BookingEmail carries everything a client-facing booking message needs.
type BookingEmail struct {
	To           string
	ClientName   string
	ServiceName  string
	ProviderName string
	StartTime    time.Time
	EndTime      time.Time
	Timezone     string
}

// Service renders and sends the client-facing booking notifications.
// Every send is best-effort: failures are logged, never returned, and never
// affect the booking they describe.
type Service struct {
	mailer Mailer
	logger *slog.Logger
}

func NewService(mailer Mailer, logger *slog.Logger) *Service {
	return &Service{
		mailer: mailer,
		logger: logger,
	}
}

func (s *Service) BookingConfirmed(e BookingEmail) {
	subject := fmt.Sprintf("Booking confirmed: %s with %s", e.ServiceName, e.ProviderName)
	body := fmt.Sprintf(
		"Hi %s,\n\nYour booking for %s with %s is confirmed.\n\nWhen: %s\n\nSee you then!\n",
		orDefault(e.ClientName, "there"), e.ServiceName, e.ProviderName, formatWindow(e),
	)
	s.send("confirmation", e.To, subject, body)
}

func (s *Service) BookingRescheduled(e BookingEmail) {
	subject := fmt.Sprintf("Booking rescheduled: %s with %s", e.ServiceName, e.ProviderName)
	body := fmt.Sprintf(
		"Hi %s,\n\nYour booking for %s with %s has been moved.\n\nNew time: %s\n",
		orDefault(e.ClientName, "there"), e.ServiceName, e.ProviderName, formatWindow(e),
	)
	s.send("reschedule", e.To, subject, body)
}

func (s *Service) BookingCancelled(e BookingEmail) {
	subject := fmt.Sprintf("Booking cancelled: %s with %s", e.ServiceName, e.ProviderName)
	body := fmt.Sprintf(
		"Hi %s,\n\nYour booking for %s with %s has been cancelled.\n",
		orDefault(e.ClientName, "there"), e.ServiceName, e.ProviderName,
	)
	s.send("cancellation", e.To, subject, body)
}

func (s *Service) send(kind, to, subject, body string) {
	if to == "" {
		return
	}
	if err := s.mailer.Send(to, subject, body); err != nil {
		s.logger.Warn("failed to send booking email",
			"kind", kind,
			"to", to,
			"error", err,
		)
	}
}

// formatWindow renders the booking window in the client's display timezone,
// falling back to UTC when the zone cannot be loaded.
func formatWindow(e BookingEmail) string {
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil || e.Timezone == "" {
		loc = time.UTC
	}
	start := e.StartTime.In(loc)
	end := e.EndTime.In(loc)
	return fmt.Sprintf("%s - %s (%s)",
		start.Format("Mon, 02 Jan 2006 15:04"),
		end.Format("15:04"),
		loc.String(),
	)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
