package datanorm

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/ignite/phish-metrics/internal/domain"
)

// ReadResults parses a results flat file (header row plus one line per
// ResultRow) as written by WriteResults or by the legacy exporter.
func ReadResults(r io.Reader) ([]domain.ResultRow, error) {
	reader, mapping, err := openSnapshot(r, domain.ResultColumns)
	if err != nil || reader == nil {
		return nil, err
	}

	var rows []domain.ResultRow
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrSnapshotFormat, line, err)
		}
		row, err := parseResultRow(rec, mapping)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrSnapshotFormat, line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadEvents parses an events flat file.
func ReadEvents(r io.Reader) ([]domain.EventRow, error) {
	reader, mapping, err := openSnapshot(r, domain.EventColumns)
	if err != nil || reader == nil {
		return nil, err
	}

	var rows []domain.EventRow
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrSnapshotFormat, line, err)
		}
		row, err := parseEventRow(rec, mapping)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrSnapshotFormat, line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// openSnapshot reads the header and maps the required columns. An empty
// input returns a nil reader and no error.
func openSnapshot(r io.Reader, required []string) (*csv.Reader, *ColumnMapping, error) {
	reader := csv.NewReader(stripBOM(r))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("%w: read header: %v", ErrSnapshotFormat, err)
	}

	mapping, err := MapColumns(header, required)
	if err != nil {
		return nil, nil, err
	}
	return reader, mapping, nil
}

func parseResultRow(rec []string, m *ColumnMapping) (domain.ResultRow, error) {
	var (
		row domain.ResultRow
		err error
	)

	campaignID, err := parseInt(m.Get(rec, "campaign_id"))
	if err != nil {
		return row, fmt.Errorf("campaign_id: %v", err)
	}
	if campaignID == nil || *campaignID <= 0 {
		return row, fmt.Errorf("campaign_id: %w", domain.ErrMalformedInput)
	}
	row.CampaignID = *campaignID
	row.CampaignName = m.Get(rec, "campaign_name")

	if row.TemplateID, err = parseInt(m.Get(rec, "template_id")); err != nil {
		return row, fmt.Errorf("template_id: %v", err)
	}
	row.TemplateName = parseOptionalString(m.Get(rec, "template_name"))
	row.Status = domain.Status(m.Get(rec, "status"))
	row.IP = m.Get(rec, "ip")

	if row.Latitude, err = parseFloat(m.Get(rec, "latitude")); err != nil {
		return row, fmt.Errorf("latitude: %v", err)
	}
	if row.Longitude, err = parseFloat(m.Get(rec, "longitude")); err != nil {
		return row, fmt.Errorf("longitude: %v", err)
	}
	if row.SendDate, err = parseTime(m.Get(rec, "send_date")); err != nil {
		return row, fmt.Errorf("send_date: %v", err)
	}
	if row.Reported, err = parseBool(m.Get(rec, "reported")); err != nil {
		return row, fmt.Errorf("reported: %v", err)
	}
	if row.ModifiedDate, err = parseTime(m.Get(rec, "modified_date")); err != nil {
		return row, fmt.Errorf("modified_date: %v", err)
	}

	row.Email = strings.TrimSpace(m.Get(rec, "email"))
	if row.Email == "" {
		return row, fmt.Errorf("email: %w", domain.ErrMalformedInput)
	}
	row.FirstName = m.Get(rec, "first_name")
	row.LastName = m.Get(rec, "last_name")
	row.Position = m.Get(rec, "position")
	return row, nil
}

func parseEventRow(rec []string, m *ColumnMapping) (domain.EventRow, error) {
	var (
		row domain.EventRow
		err error
	)

	campaignID, err := parseInt(m.Get(rec, "campaign_id"))
	if err != nil {
		return row, fmt.Errorf("campaign_id: %v", err)
	}
	if campaignID == nil || *campaignID <= 0 {
		return row, fmt.Errorf("campaign_id: %w", domain.ErrMalformedInput)
	}
	row.CampaignID = *campaignID
	row.CampaignName = m.Get(rec, "campaign_name")

	if row.TemplateID, err = parseInt(m.Get(rec, "template_id")); err != nil {
		return row, fmt.Errorf("template_id: %v", err)
	}
	row.TemplateName = parseOptionalString(m.Get(rec, "template_name"))
	row.Email = m.Get(rec, "email")

	t, err := parseTime(m.Get(rec, "time"))
	if err != nil {
		return row, fmt.Errorf("time: %v", err)
	}
	if t != nil {
		row.Time = *t
	}
	row.Message = domain.Status(m.Get(rec, "message"))
	row.Details = m.Get(rec, "details")
	return row, nil
}

// stripBOM wraps a reader to strip a UTF-8 BOM if present.
func stripBOM(r io.Reader) io.Reader {
	buf := make([]byte, 3)
	n, err := io.ReadFull(r, buf)
	if err != nil || n < 3 {
		return io.MultiReader(strings.NewReader(string(buf[:n])), r)
	}
	if buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF {
		return r
	}
	return io.MultiReader(strings.NewReader(string(buf[:n])), r)
}
