package handlers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/lcalzada-xor/airstrike/internal/adapters/reporting"
	"github.com/lcalzada-xor/airstrike/internal/core/domain"
	"github.com/lcalzada-xor/airstrike/internal/core/ports"
	"github.com/lcalzada-xor/airstrike/internal/core/services/audit"
)

const reportProbeLimit = 1000

// ReportHandler renders the probe observation PDF.
type ReportHandler struct {
	Attacks     ports.AttackService
	Store       RecordStore
	Audit       ports.AuditService
	PDFExporter *reporting.PDFExporter
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(attacks ports.AttackService, store RecordStore, auditService ports.AuditService, exporter *reporting.PDFExporter) *ReportHandler {
	return &ReportHandler{Attacks: attacks, Store: store, Audit: auditService, PDFExporter: exporter}
}

// HandleGenerateReport merges stored probes with the live table and streams a PDF.
func (h *ReportHandler) HandleGenerateReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	probes, err := h.Store.ListProbes(ctx, reportProbeLimit)
	if err != nil {
		log.Printf("[WEB] Report: failed to list probes: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch probes")
		return
	}
	probes = mergeLive(probes, h.Attacks.Observations())

	creds, err := h.Store.Count(ctx, domain.KindCredential)
	if err != nil {
		log.Printf("[WEB] Report: failed to count credentials: %v", err)
	}

	report := &reporting.ProbeReport{
		ID:          uuid.New().String(),
		Title:       "Probe Request Report",
		GeneratedAt: time.Now().UTC(),
		GeneratedBy: audit.ActorFrom(ctx),
		Attack:      h.Attacks.CurrentAttack(),
		Stats:       h.Attacks.Stats(),
		Probes:      probes,
		Credentials: creds,
	}
	pdf, err := h.PDFExporter.ExportProbeReport(report)
	if err != nil {
		log.Printf("[WEB] Report: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate report")
		return
	}

	if h.Audit != nil {
		if err := h.Audit.Log(ctx, domain.ActionExport, report.ID, fmt.Sprintf("pdf report, %d probes", len(probes))); err != nil {
			log.Printf("[WEB] Audit failed: %v", err)
		}
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=airstrike-probes-%s.pdf", report.GeneratedAt.Format("20060102-150405")))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		log.Printf("[WEB] Report write failed: %v", err)
	}
}

// mergeLive adds live observations whose client is not yet stored.
func mergeLive(stored []domain.ProbeRecord, live []domain.Observation) []domain.ProbeRecord {
	seen := make(map[string]bool, len(stored))
	for _, p := range stored {
		seen[p.Client] = true
	}
	for _, o := range live {
		rec := domain.NewProbeRecord(o)
		if !seen[rec.Client] {
			seen[rec.Client] = true
			stored = append(stored, rec)
		}
	}
	return stored
}
