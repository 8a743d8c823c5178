package tariffs

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"time"

	pdf "github.com/ledongthuc/pdf"
)

func init() {
	RegisterParser(ParserConfig{
		Key:       "anexo",
		Name:      "Contract Annex Tariff Schedule",
		ParsePDF:  ParseAnexoFromPDF,
		ParseText: ParseAnexoFromText,
	})
}

// ParseAnexoFromPDF opens a contract annex PDF at the given path, extracts
// text, and delegates to ParseAnexoFromText.
func ParseAnexoFromPDF(path string) (*Schedule, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	rc, err := r.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rc); err != nil {
		return nil, fmt.Errorf("read pdf text: %w", err)
	}

	return ParseAnexoFromText(buf.String())
}

var (
	// e.g. "BATEA 0.027 15.0 1000"
	contractorRe = regexp.MustCompile(`(?m)^\s*(BATEA|AMPLIROLL_SIMPLE|AMPLIROLL_CARRO)\s+([0-9]+(?:\.[0-9]+)?)\s+([0-9]+(?:\.[0-9]+)?)\s+([0-9]+(?:\.[0-9]+)?)\s*$`)

	// e.g. "CLIENTE 7 TRANSPORTE 0.5 0 2025-01-01"
	clientRe = regexp.MustCompile(`(?m)^\s*CLIENTE\s+([0-9]+)\s+(TRANSPORTE|DISPOSICION|TRATAMIENTO)\s+([0-9]+(?:\.[0-9]+)?)\s+([0-9]+(?:\.[0-9]+)?)\s+([0-9]{4}-[0-9]{2}-[0-9]{2})\s*$`)
)

// ParseAnexoFromText parses a plain-text representation of a contract annex
// tariff schedule. Contractor rows carry vehicle type, base rate per ton-km,
// guaranteed minimum weight and base fuel price; client rows carry client id,
// billing concept, rate per ton, minimum weight and validity start.
func ParseAnexoFromText(text string) (*Schedule, error) {
	sched := &Schedule{
		Source:    "Contract Annex Tariff Schedule",
		FetchedAt: time.Now().UTC(),
	}

	for _, m := range contractorRe.FindAllStringSubmatch(text, -1) {
		sched.Contractor = append(sched.Contractor, ContractorEntry{
			VehicleType:      m[1],
			BaseRatePerTonKm: parseFloat(m[2]),
			MinWeightTons:    parseFloat(m[3]),
			BaseFuelPrice:    parseFloat(m[4]),
		})
	}

	for _, m := range clientRe.FindAllStringSubmatch(text, -1) {
		clientID, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		validFrom, err := time.Parse(time.DateOnly, m[5])
		if err != nil {
			continue
		}
		sched.Clients = append(sched.Clients, ClientEntry{
			ClientID:      clientID,
			Concept:       m[2],
			RatePerTon:    parseFloat(m[3]),
			MinWeightTons: parseFloat(m[4]),
			ValidFrom:     validFrom,
		})
	}

	if len(sched.Contractor) == 0 && len(sched.Clients) == 0 {
		return nil, fmt.Errorf("no tariff rows found in schedule text")
	}
	return sched, nil
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
