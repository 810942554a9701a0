package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Column headers exactly as produced by the portal export. Matching is
// by trimmed header name only.
const (
	colUnitCode       = "U.S.At."
	colFacilityName   = "Razão Social da Unidade de Saúde de Aten"
	colPractitioner   = "Nome do Profissional"
	colSpecialty      = "Descrição do CBO Profissional"
	colScheduledDate  = "Data"
	colPatientCode    = "Código"
	colSubscriberID   = "Usuário"
	colPatientName    = "Nome do Usuário"
	colPhone          = "Telefone"
	colCellPhone      = "Tel.Celular"
	colContactPhone   = "Tel.Contato"
	colVisitReason    = "Descrição Motivo da Consulta"
	colScheduledTime  = "Horário"
	colInclusionTS    = "Inclusão"
	colFacilityCompl  = "Complemento da Un. de Atendimento"
	colFacilityNumber = "Número da Unidade de Atendimento"
	colMunicipality   = "Nome do Município da Un. Atendimento"
	colDistrict       = "Nome do Bairro Un. Atendimento"
	colStreet         = "Nome do Logradouro da Un. Atendimento"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parser normalizes raw export files into appointment records
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// ParseFile reads and normalizes a single export file
func (p *Parser) ParseFile(path string) ([]Record, Stats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("failed to read export file: %w", err)
	}
	return p.Run(data)
}

// Run parses one semicolon-separated export. Rows that fail validation are
// skipped and counted, never fatal; a malformed file (unreadable header)
// is an error and leaves nothing parsed.
func (p *Parser) Run(data []byte) ([]Record, Stats, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, Stats{}, fmt.Errorf("failed to read export header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	titleCaser := cases.Title(language.BrazilianPortuguese)

	var records []Record
	var stats Stats

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("failed to read export row %d: %w", stats.Rows+1, err)
		}
		stats.Rows++

		field := func(column string) string {
			idx, ok := columns[column]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		empty := true
		for _, v := range row {
			if strings.TrimSpace(v) != "" {
				empty = false
				break
			}
		}
		if empty {
			stats.SkippedEmpty++
			continue
		}

		rec := Record{
			UnitCode:           field(colUnitCode),
			FacilityName:       field(colFacilityName),
			PractitionerName:   field(colPractitioner),
			Specialty:          strings.ToUpper(field(colSpecialty)),
			ScheduledDate:      field(colScheduledDate),
			PatientCode:        field(colPatientCode),
			SubscriberID:       field(colSubscriberID),
			PatientName:        field(colPatientName),
			Phone:              field(colPhone),
			CellPhone:          field(colCellPhone),
			ContactPhone:       field(colContactPhone),
			VisitReason:        field(colVisitReason),
			ScheduledTime:      truncateTime(field(colScheduledTime)),
			InclusionTS:        field(colInclusionTS),
			FacilityComplement: field(colFacilityCompl),
			FacilityNumber:     field(colFacilityNumber),
			Municipality:       titleCaser.String(field(colMunicipality)),
			District:           field(colDistrict),
			Street:             field(colStreet),
		}

		// Subscriber id, inclusion timestamp and facility name are part of
		// the identity key and mandatory.
		if rec.SubscriberID == "" || rec.InclusionTS == "" || rec.FacilityName == "" {
			stats.SkippedMissingKey++
			slog.Warn("Export row missing key fields, skipped",
				"row", stats.Rows, "subscriber_id", rec.SubscriberID, "inclusion_ts", rec.InclusionTS)
			continue
		}

		records = append(records, rec)
	}

	stats.Records = len(records)

	return records, stats, nil
}

// truncateTime keeps HH:MM, tolerating a trailing :SS
func truncateTime(s string) string {
	if len(s) > 5 {
		return s[:5]
	}
	return s
}
