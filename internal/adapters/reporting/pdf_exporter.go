package reporting

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/lcalzada-xor/airstrike/internal/core/domain"
)

const maxProbeRows = 200

// ProbeReport is the input of a probe observation export.
type ProbeReport struct {
	ID          string
	Title       string
	GeneratedAt time.Time
	GeneratedBy string
	Attack      domain.AttackType
	Stats       domain.AttackStats
	Probes      []domain.ProbeRecord
	Credentials int64
}

// SSIDCount is a probed network name and how many clients asked for it.
type SSIDCount struct {
	SSID    string
	Clients int
}

// TopSSIDs ranks probed SSIDs by distinct client count, ties by name.
func TopSSIDs(probes []domain.ProbeRecord, n int) []SSIDCount {
	counts := make(map[string]int)
	for _, p := range probes {
		seen := make(map[string]bool, len(p.SSIDs))
		for _, s := range p.SSIDs {
			if !seen[s] {
				seen[s] = true
				counts[s]++
			}
		}
	}
	out := make([]SSIDCount, 0, len(counts))
	for s, c := range counts {
		out = append(out, SSIDCount{SSID: s, Clients: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Clients != out[j].Clients {
			return out[i].Clients > out[j].Clients
		}
		return out[i].SSID < out[j].SSID
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// PDFExporter exports reports to PDF format
type PDFExporter struct{}

func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// ExportProbeReport renders the observation table and session statistics.
func (e *PDFExporter) ExportProbeReport(report *ProbeReport) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("nil report")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	e.addHeader(pdf, report)
	e.addStatistics(pdf, report)
	e.addTopSSIDs(pdf, report)
	e.addProbeTable(pdf, report)
	e.addFooter(pdf, report)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFExporter) addHeader(pdf *gofpdf.Fpdf, report *ProbeReport) {
	title := report.Title
	if title == "" {
		title = "Probe Request Report"
	}
	pdf.SetFont("Arial", "B", 24)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 15, title, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated: %s", report.GeneratedAt.Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	if report.Attack != domain.AttackNone {
		pdf.CellFormat(0, 6, fmt.Sprintf("Last attack: %s (%s)", report.Attack, report.Stats.Duration.Round(time.Second)), "", 1, "L", false, 0, "")
	}
	pdf.Ln(8)
}

func (e *PDFExporter) addStatistics(pdf *gofpdf.Fpdf, report *ProbeReport) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, "Overview", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	randomized := 0
	for _, p := range report.Probes {
		if p.Random {
			randomized++
		}
	}

	stats := []struct {
		label string
		value string
		color []int
	}{
		{"Clients", fmt.Sprintf("%d", len(report.Probes)), []int{0, 102, 204}},
		{"Randomized MACs", fmt.Sprintf("%d", randomized), []int{150, 150, 150}},
		{"Packets Sent", fmt.Sprintf("%d", report.Stats.PacketsTotal), []int{0, 102, 204}},
		{"Probes Collected", fmt.Sprintf("%d", report.Stats.ProbesCollected), []int{0, 102, 204}},
		{"Clients Affected", fmt.Sprintf("%d", report.Stats.ClientsAffected), []int{255, 149, 0}},
		{"Credentials Stored", fmt.Sprintf("%d", report.Credentials), []int{220, 53, 69}},
	}

	colWidth := 85.0
	for i, stat := range stats {
		x := 20.0
		if i%2 == 1 {
			x = 105.0
		}
		pdf.SetXY(x, pdf.GetY())

		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(50, 7, stat.label+":", "", 0, "L", false, 0, "")

		pdf.SetFont("Arial", "B", 11)
		pdf.SetTextColor(stat.color[0], stat.color[1], stat.color[2])
		pdf.CellFormat(colWidth-50, 7, stat.value, "", 0, "R", false, 0, "")

		if i%2 == 1 {
			pdf.Ln(7)
		}
	}
	pdf.Ln(10)
}

func (e *PDFExporter) addTopSSIDs(pdf *gofpdf.Fpdf, report *ProbeReport) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, "Most Probed Networks", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	top := TopSSIDs(report.Probes, 10)
	if len(top) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(0, 7, "No directed probes observed", "", 1, "L", false, 0, "")
		pdf.Ln(5)
		return
	}

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 10)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(15, 8, "Rank", "1", 0, "C", true, 0, "")
	pdf.CellFormat(120, 8, "SSID", "1", 0, "L", true, 0, "")
	pdf.CellFormat(35, 8, "Clients", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	for i, s := range top {
		pdf.CellFormat(15, 7, fmt.Sprintf("%d", i+1), "1", 0, "C", false, 0, "")
		pdf.CellFormat(120, 7, printable(s.SSID), "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 7, fmt.Sprintf("%d", s.Clients), "1", 1, "C", false, 0, "")
	}
	pdf.Ln(8)
}

// getSignalColor returns RGB color based on signal strength
func (e *PDFExporter) getSignalColor(dbm int) (r, g, b int) {
	switch {
	case dbm >= -50:
		return 52, 199, 89 // Green
	case dbm >= -65:
		return 255, 204, 0 // Yellow
	case dbm >= -75:
		return 255, 149, 0 // Orange
	default:
		return 220, 53, 69 // Red
	}
}

func (e *PDFExporter) addProbeTable(pdf *gofpdf.Fpdf, report *ProbeReport) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, "Observed Clients", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	header := func() {
		pdf.SetFillColor(240, 240, 240)
		pdf.SetFont("Arial", "B", 9)
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(38, 8, "Client", "1", 0, "L", true, 0, "")
		pdf.CellFormat(32, 8, "Vendor", "1", 0, "L", true, 0, "")
		pdf.CellFormat(16, 8, "dBm", "1", 0, "C", true, 0, "")
		pdf.CellFormat(70, 8, "SSIDs", "1", 0, "L", true, 0, "")
		pdf.CellFormat(24, 8, "Last Seen", "1", 1, "C", true, 0, "")
	}
	header()

	pdf.SetFont("Arial", "", 8)
	for i, p := range report.Probes {
		if i >= maxProbeRows {
			pdf.SetFont("Arial", "I", 8)
			pdf.CellFormat(0, 6, fmt.Sprintf("... %d more", len(report.Probes)-maxProbeRows), "", 1, "L", false, 0, "")
			break
		}
		if pdf.GetY() > 270 {
			pdf.AddPage()
			header()
			pdf.SetFont("Arial", "", 8)
		}
		vendor := p.Vendor
		if p.Random {
			vendor = "(randomized)"
		}
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(38, 6, p.Client, "1", 0, "L", false, 0, "")
		pdf.CellFormat(32, 6, truncate(vendor, 18), "1", 0, "L", false, 0, "")
		r, g, b := e.getSignalColor(p.Signal)
		pdf.SetTextColor(r, g, b)
		pdf.CellFormat(16, 6, fmt.Sprintf("%d", p.Signal), "1", 0, "C", false, 0, "")
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(70, 6, truncate(printable(strings.Join(p.SSIDs, ", ")), 44), "1", 0, "L", false, 0, "")
		pdf.CellFormat(24, 6, p.LastSeen.Format("15:04:05"), "1", 1, "C", false, 0, "")
	}
	pdf.Ln(8)
}

func (e *PDFExporter) addFooter(pdf *gofpdf.Fpdf, report *ProbeReport) {
	pdf.SetY(-20)
	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.Ln(3)

	id := report.ID
	if len(id) > 8 {
		id = id[:8]
	}
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated by %s | Report ID: %s", report.GeneratedBy, id), "", 1, "C", false, 0, "")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// printable replaces bytes the core fonts cannot render; SSIDs are arbitrary octets.
func printable(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e {
			return '?'
		}
		return r
	}, s)
}
