package datanorm

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/ignite/phish-metrics/internal/domain"
)

// DetailColumns is the header of the per-recipient details export.
var DetailColumns = []string{
	"position", "first_name", "last_name", "email", "campaign_id",
	"template_name", "status", "send_date", "modified_date", "reported",
}

// WriteResults writes rows as a results flat file with domain.ResultColumns
// as the header.
func WriteResults(w io.Writer, rows []domain.ResultRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(domain.ResultColumns); err != nil {
		return fmt.Errorf("write results header: %w", err)
	}
	for i := range rows {
		if err := cw.Write(resultRecord(&rows[i])); err != nil {
			return fmt.Errorf("write result row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEvents writes rows as an events flat file with domain.EventColumns
// as the header.
func WriteEvents(w io.Writer, rows []domain.EventRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(domain.EventColumns); err != nil {
		return fmt.Errorf("write events header: %w", err)
	}
	for i := range rows {
		if err := cw.Write(eventRecord(&rows[i])); err != nil {
			return fmt.Errorf("write event row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDetails writes the reduced per-recipient view used for the filtered
// download.
func WriteDetails(w io.Writer, rows []domain.ResultRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(DetailColumns); err != nil {
		return fmt.Errorf("write details header: %w", err)
	}
	for i := range rows {
		r := &rows[i]
		rec := []string{
			r.Position,
			r.FirstName,
			r.LastName,
			r.Email,
			strconv.FormatInt(r.CampaignID, 10),
			formatString(r.TemplateName),
			string(r.Status),
			formatTime(r.SendDate),
			formatTime(r.ModifiedDate),
			strconv.FormatBool(r.Reported),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write details row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func resultRecord(r *domain.ResultRow) []string {
	return []string{
		strconv.FormatInt(r.CampaignID, 10),
		r.CampaignName,
		formatInt(r.TemplateID),
		formatString(r.TemplateName),
		string(r.Status),
		r.IP,
		formatFloat(r.Latitude),
		formatFloat(r.Longitude),
		formatTime(r.SendDate),
		strconv.FormatBool(r.Reported),
		formatTime(r.ModifiedDate),
		r.Email,
		r.FirstName,
		r.LastName,
		r.Position,
	}
}

func eventRecord(e *domain.EventRow) []string {
	return []string{
		strconv.FormatInt(e.CampaignID, 10),
		e.CampaignName,
		formatInt(e.TemplateID),
		formatString(e.TemplateName),
		e.Email,
		e.Time.Format(TimeLayout),
		string(e.Message),
		e.Details,
	}
}
