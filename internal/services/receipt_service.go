package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"taxibackend/internal/domain"
	"taxibackend/internal/domain/models"
	"taxibackend/internal/repositories"
	"taxibackend/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// ReceiptService renders a PDF receipt for one booking.
type ReceiptService struct {
	Store       repositories.Store
	Loc         *time.Location
	ProjectName string
	Now         func() time.Time
	Loader      func(ctx context.Context, bookingID int64) (models.BookingFull, error)
}

func (s ReceiptService) load(ctx context.Context, bookingID int64) (models.BookingFull, error) {
	if s.Loader != nil {
		return s.Loader(ctx, bookingID)
	}
	return s.Store.Repos().Bookings.GetFullByID(ctx, bookingID)
}

// Generate returns the PDF bytes and a download filename. Only the booking
// owner or an admin may fetch it.
func (s ReceiptService) Generate(ctx context.Context, rc domain.RequestContext, bookingID int64) ([]byte, string, error) {
	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, "", err
	}
	if !rc.IsAdmin() && b.UserID != rc.UserID {
		return nil, "", domain.ForbiddenError{Msg: "not authorized"}
	}

	loc := s.Loc
	if loc == nil {
		loc = time.UTC
	}
	issued := time.Now()
	if s.Now != nil {
		issued = s.Now()
	}
	out, name, err := buildReceiptPDF(b, safe(s.ProjectName, "Taxi Booking"), loc, issued)
	if err != nil {
		return nil, "", domain.InternalError{Msg: "could not render receipt", Err: err}
	}
	utils.LogEventCtx(ctx, "RECEIPT", "generate", fmt.Sprintf("booking_id=%d", bookingID))
	return out, name, nil
}

func buildReceiptPDF(b models.BookingFull, project string, loc *time.Location, issued time.Time) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Receipt", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, strings.ToUpper(project)+" RECEIPT")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, fmt.Sprintf("Receipt No  : RCP-%d", b.ID))
	pdf.Ln(7)
	pdf.Cell(0, 7, "Issued      : "+issued.In(loc).Format("2006-01-02 15:04"))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Passenger:")
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 12)
	name := ""
	if b.UserFullName != nil {
		name = *b.UserFullName
	}
	pdf.Cell(0, 7, "Name   : "+safe(name, "-"))
	pdf.Ln(7)
	pdf.Cell(0, 7, "Email  : "+safe(b.UserEmail, "-"))
	pdf.Ln(10)

	lines := []string{
		"Pickup      : " + safe(b.PickupLocation, "-"),
		"Destination : " + safe(b.DropoffLocation, "-"),
		"Date/Time   : " + utils.FormatDate(b.ScheduledTime, loc) + " " + utils.FormatClock(b.ScheduledTime, loc),
		"Vehicle     : " + utils.Capitalize(string(b.VehicleCategory)),
		fmt.Sprintf("Passengers  : %d", b.PassengerCount),
		"Status      : " + string(b.Status),
	}
	if b.DistanceKM != nil {
		lines = append(lines, fmt.Sprintf("Distance    : %.1f km", *b.DistanceKM))
	}
	if b.PaymentMethod != nil {
		lines = append(lines, "Payment     : "+string(*b.PaymentMethod)+" ("+paymentStatusLabel(b.PaymentStatus)+")")
	}
	pdf.SetFont("Helvetica", "", 11)
	for _, l := range lines {
		pdf.Cell(0, 6, l)
		pdf.Ln(6)
	}
	pdf.Ln(4)

	fare := 0.0
	if b.Fare != nil {
		fare = *b.Fare
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Total: "+utils.FormatMoney(fare))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Please keep this receipt. Show it to your driver if asked.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("RECEIPT_%d_%s.pdf", b.ID, safeFilenamePart(name))
	return buf.Bytes(), filename, nil
}

func paymentStatusLabel(s *models.PaymentStatus) string {
	if s == nil {
		return "unknown"
	}
	return string(*s)
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
