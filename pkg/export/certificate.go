package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// CertificateData carries everything rendered onto a round-completion certificate.
type CertificateData struct {
	SchoolName  string
	Round       int
	CompletedAt time.Time
	Stages      []string
}

// CertificateRenderer produces PDF certificates for completed rounds.
type CertificateRenderer struct{}

// NewCertificateRenderer constructs a certificate renderer.
func NewCertificateRenderer() *CertificateRenderer {
	return &CertificateRenderer{}
}

// Render creates a landscape A4 certificate document.
func (r *CertificateRenderer) Render(data CertificateData) ([]byte, error) {
	if data.SchoolName == "" {
		return nil, fmt.Errorf("certificate requires a school name")
	}
	if data.Round < 1 {
		return nil, fmt.Errorf("certificate requires a round number >= 1")
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(20, 25, 20)
	pdf.AddPage()

	pdf.SetDrawColor(46, 125, 50)
	pdf.SetLineWidth(1.2)
	pdf.Rect(10, 10, 277, 190, "D")

	pdf.SetFont("Arial", "B", 26)
	pdf.CellFormat(0, 18, "CERTIFICATE OF ACHIEVEMENT", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 13)
	pdf.CellFormat(0, 8, "This certifies that", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 12, data.SchoolName, "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 13)
	pdf.CellFormat(0, 8, fmt.Sprintf("has completed round %d of the sustainability program", data.Round), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	if len(data.Stages) > 0 {
		pdf.SetFont("Arial", "I", 11)
		pdf.CellFormat(0, 7, "Stages completed: "+strings.Join(data.Stages, ", "), "", 1, "C", false, 0, "")
		pdf.Ln(4)
	}

	completed := data.CompletedAt
	if completed.IsZero() {
		completed = time.Now().UTC()
	}
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 7, completed.Format("2 January 2006"), "", 1, "C", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return buf.Bytes(), nil
}
