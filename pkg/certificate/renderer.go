package certificate

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Data carries the printable fields of a course completion certificate.
type Data struct {
	CertificateID   string
	StudentName     string
	RollNo          int
	AadharCard      string
	Course          string
	CourseStartDate time.Time
	CourseEndDate   time.Time
	Marks           string
	Grade           string
	Attendance      string
	IssuedAt        time.Time
}

// Renderer draws certificates as single page landscape PDFs.
type Renderer struct {
	institute string
}

// NewRenderer constructs a renderer printing the given institute name in the heading.
func NewRenderer(institute string) *Renderer {
	if strings.TrimSpace(institute) == "" {
		institute = "School Administration"
	}
	return &Renderer{institute: institute}
}

// Render produces the PDF bytes for a certificate.
func (r *Renderer) Render(data Data) ([]byte, error) {
	if data.StudentName == "" || data.Course == "" {
		return nil, fmt.Errorf("certificate requires a student name and course")
	}
	if data.IssuedAt.IsZero() {
		data.IssuedAt = time.Now()
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	pdf.SetLineWidth(1.2)
	pdf.Rect(10, 10, pageW-20, pageH-20, "D")
	pdf.SetLineWidth(0.3)
	pdf.Rect(14, 14, pageW-28, pageH-28, "D")

	pdf.SetY(30)
	pdf.SetFont("Arial", "B", 22)
	pdf.CellFormat(0, 12, strings.ToUpper(r.institute), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 16)
	pdf.CellFormat(0, 10, "Certificate of Completion", "", 1, "C", false, 0, "")
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 13)
	pdf.CellFormat(0, 8, "This is to certify that", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 12, data.StudentName, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 13)
	pdf.CellFormat(0, 8, fmt.Sprintf("has successfully completed the course %s", data.Course), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 8, fmt.Sprintf("held from %s to %s", formatDate(data.CourseStartDate), formatDate(data.CourseEndDate)), "", 1, "C", false, 0, "")
	pdf.Ln(8)

	rows := [][2]string{
		{"Roll Number", fmt.Sprintf("%d", data.RollNo)},
		{"Aadhar Card", data.AadharCard},
		{"Marks", data.Marks},
		{"Grade", data.Grade},
		{"Attendance", data.Attendance},
	}
	left := (pageW - 140) / 2
	pdf.SetFont("Arial", "", 11)
	for _, row := range rows {
		pdf.SetX(left)
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(60, 7, row[0], "1", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(80, 7, row[1], "1", 1, "L", false, 0, "")
	}

	pdf.SetY(pageH - 35)
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Certificate ID: %s", data.CertificateID), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Issued on %s", formatDate(data.IssuedAt)), "", 1, "L", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return buf.Bytes(), nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02 Jan 2006")
}
