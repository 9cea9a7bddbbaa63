package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"taxibackend/internal/config"
	"taxibackend/internal/domain"
)

var confirmationTmpl = template.Must(template.New("booking_confirmation").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>{{.ProjectName}} - Booking Confirmed</h2>
  <p>Hello {{.Name}},</p>
  <p>Your ride has been paid and confirmed. Booking reference: <strong>#{{.BookingID}}</strong></p>
  <table cellpadding="6">
    <tr><td>Pickup</td><td>{{.Pickup}}</td></tr>
    <tr><td>Destination</td><td>{{.Destination}}</td></tr>
    <tr><td>Date</td><td>{{.Date}}</td></tr>
    <tr><td>Time</td><td>{{.Time}}</td></tr>
    <tr><td>Vehicle</td><td>{{.Vehicle}}</td></tr>
    <tr><td>Passengers</td><td>{{.Passengers}}</td></tr>
    <tr><td>Phone</td><td>{{.Phone}}</td></tr>
    <tr><td>Fare</td><td>&euro;{{.Fare}}</td></tr>
  </table>
  <p><a href="{{.FrontendHost}}">{{.FrontendHost}}</a></p>
</body>
</html>`))

type confirmationData struct {
	ProjectName  string
	FrontendHost string
	BookingID    string
	Name         string
	Phone        string
	Pickup       string
	Destination  string
	Date         string
	Time         string
	Vehicle      string
	Fare         string
	Passengers   string
}

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Mailer struct {
	Host         string
	Port         int
	User         string
	Password     string
	From         string
	ProjectName  string
	FrontendHost string
	Send         SendFunc
}

func NewMailer(env config.Env) *Mailer {
	return &Mailer{
		Host:         env.SMTPHost,
		Port:         env.SMTPPort,
		User:         env.SMTPUser,
		Password:     env.SMTPPassword,
		From:         env.EmailsFrom,
		ProjectName:  env.ProjectName,
		FrontendHost: env.FrontendHost,
		Send:         smtp.SendMail,
	}
}

func (m *Mailer) BookingConfirmed(_ context.Context, email string, meta map[string]string) error {
	if m.Host == "" {
		return domain.ExternalServiceError{Service: "email", Err: fmt.Errorf("smtp host not configured")}
	}
	subject, body, err := m.renderConfirmation(meta)
	if err != nil {
		return err
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", m.From)
	fmt.Fprintf(&msg, "To: %s\r\n", email)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	msg.Write(body)

	var auth smtp.Auth
	if m.User != "" {
		auth = smtp.PlainAuth("", m.User, m.Password, m.Host)
	}
	addr := net.JoinHostPort(m.Host, strconv.Itoa(m.Port))
	if err := m.Send(addr, auth, m.From, []string{email}, msg.Bytes()); err != nil {
		return domain.ExternalServiceError{Service: "email", Err: err}
	}
	return nil
}

func (m *Mailer) renderConfirmation(meta map[string]string) (string, []byte, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(meta[key]); v != "" {
			return v
		}
		return def
	}
	date := get("date", "Not specified")
	if d, err := time.Parse("2006-01-02", date); err == nil {
		date = d.Format("02 January 2006")
	}
	data := confirmationData{
		ProjectName:  m.ProjectName,
		FrontendHost: m.FrontendHost,
		BookingID:    get("booking_id", "Unknown"),
		Name:         get("name", "Not specified"),
		Phone:        get("phone", "Not specified"),
		Pickup:       get("pickup", "Not specified"),
		Destination:  get("destination", "Not specified"),
		Date:         date,
		Time:         get("time", "Not specified"),
		Vehicle:      get("vehicle", "Not specified"),
		Fare:         get("fare", "Not specified"),
		Passengers:   get("passengers", "Not specified"),
	}

	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, data); err != nil {
		return "", nil, fmt.Errorf("render confirmation email: %w", err)
	}
	return m.ProjectName + " - Booking Confirmed", buf.Bytes(), nil
}
