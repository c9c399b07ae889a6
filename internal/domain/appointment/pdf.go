package appointment

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
)

type PrescriptionDocument struct {
	Appointment  *Appointment
	Prescription *Prescription
	DoctorName   string
	Specialty    string
	Location     *time.Location
}

// RenderPrescriptionPDF writes a one page A4 prescription.
func RenderPrescriptionPDF(w io.Writer, doc PrescriptionDocument) error {
	a, p := doc.Appointment, doc.Prescription
	loc := doc.Location
	if loc == nil {
		loc = time.UTC
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetTitle("Prescription", false)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "Prescription", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("%s - %s", doc.DoctorName, doc.Specialty)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	detail := func(label, value string) {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(45, 8, label, "1", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 8, tr(value), "1", 1, "", false, 0, "")
	}
	detail("Patient", a.Patient.FullName)
	if a.Patient.Age != nil {
		detail("Age", fmt.Sprintf("%d", *a.Patient.Age))
	}
	if a.Patient.Gender != nil {
		detail("Gender", *a.Patient.Gender)
	}
	detail("Appointment", fmt.Sprintf("%s %s", a.DateString(), a.Time))
	detail("Reference", a.ID.String())
	detail("Issued", p.CreatedAt.In(loc).Format("2006-01-02 15:04 MST"))
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Problem", "", 1, "", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.MultiCell(0, 6, tr(p.Problem), "1", "L", false)

	pdf.Ln(10)
	pdf.SetFont("Arial", "I", 9)
	pdf.CellFormat(0, 6, "This is a computer generated prescription.", "", 1, "R", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render prescription pdf: %w", err)
	}
	return nil
}
