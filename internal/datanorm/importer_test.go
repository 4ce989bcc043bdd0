package datanorm

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/phish-metrics/internal/domain"
)

func TestWriteResultsHeaderAndAbsentValues(t *testing.T) {
	ds, err := NewFlattener(1).Flatten(sampleCampaigns())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteResults(&buf, ds.Results))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "campaign_id,campaign_name,template_id,template_name,status,ip,latitude,longitude,send_date,reported,modified_date,email,first_name,last_name,position", lines[0])
	assert.Equal(t, "1,Q1 Password Reset,10,Password Reset,Email Reported,10.0.0.1,52.37,,2024-03-04T09:00:00Z,true,2024-03-04T09:09:00Z,a@x.com,Ann,,Sales", lines[1])
	// Never-sent recipient: absent dates, reported=false.
	assert.Equal(t, "1,Q1 Password Reset,10,Password Reset,Error Sending Email,,,,,false,,c@x.com,,,IT", lines[3])
	// No template.
	assert.True(t, strings.HasPrefix(lines[4], "2,No template,,,Email Sent,"))
}

func TestResultsSnapshotRoundTrip(t *testing.T) {
	ds, err := NewFlattener(1).Flatten(sampleCampaigns())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteResults(&buf, ds.Results))
	got, err := ReadResults(&buf)
	require.NoError(t, err)
	assert.Equal(t, ds.Results, got)

	buf.Reset()
	require.NoError(t, WriteEvents(&buf, ds.Events))
	events, err := ReadEvents(&buf)
	require.NoError(t, err)
	require.Len(t, events, len(ds.Events))
	for i := range events {
		assert.True(t, ds.Events[i].Time.Equal(events[i].Time))
		assert.Equal(t, ds.Events[i].Message, events[i].Message)
		assert.Equal(t, ds.Events[i].Details, events[i].Details)
		assert.Equal(t, ds.Events[i].TemplateName, events[i].TemplateName)
	}
}

func TestReadResultsLegacyExport(t *testing.T) {
	// Shape produced by the previous Python exporter: BOM, capitalized
	// booleans, None placeholders and space-separated timestamps.
	input := "\xEF\xBB\xBFcampaign_id,campaign_name,template_id,template_name,status,ip,latitude,longitude,send_date,reported,modified_date,email,first_name,last_name,position\n" +
		"4,Phish Q2,2.0,Invoice,Clicked Link,1.2.3.4,0.0,0.0,2024-05-01 08:15:00.123456+00:00,True,2024-05-01 09:00:00+00:00,d@x.com,Dan,Lee,Finance\n" +
		"4,Phish Q2,None,None,Email Sent,,,,,False,,e@x.com,Eve,,Finance\n"

	rows, err := ReadResults(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	d := rows[0]
	assert.Equal(t, int64(4), d.CampaignID)
	require.NotNil(t, d.TemplateID)
	assert.Equal(t, int64(2), *d.TemplateID)
	assert.Equal(t, domain.StatusClicked, d.Status)
	assert.True(t, d.Reported)
	require.NotNil(t, d.SendDate)
	assert.Equal(t, 123456000, d.SendDate.Nanosecond())
	assert.Equal(t, 9, d.ModifiedDate.Hour())

	e := rows[1]
	assert.Nil(t, e.TemplateID)
	assert.Nil(t, e.TemplateName)
	assert.Nil(t, e.SendDate)
	assert.Nil(t, e.Latitude)
	assert.False(t, e.Reported)
}

func TestReadResultsErrors(t *testing.T) {
	t.Run("missing column", func(t *testing.T) {
		_, err := ReadResults(strings.NewReader("campaign_id,email\n1,a@x.com\n"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrSnapshotFormat))
		assert.Contains(t, err.Error(), "send_date")
	})

	t.Run("bad timestamp", func(t *testing.T) {
		var buf bytes.Buffer
		buf.WriteString(strings.Join(domain.ResultColumns, ",") + "\n")
		buf.WriteString("1,c,,,Email Sent,,,,yesterday,false,,a@x.com,,,\n")
		_, err := ReadResults(&buf)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 2")
	})

	t.Run("missing email", func(t *testing.T) {
		var buf bytes.Buffer
		buf.WriteString(strings.Join(domain.ResultColumns, ",") + "\n")
		buf.WriteString("1,c,,,Email Sent,,,,,false,,,,,\n")
		_, err := ReadResults(&buf)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrMalformedInput))
	})

	t.Run("non-positive campaign id", func(t *testing.T) {
		var buf bytes.Buffer
		buf.WriteString(strings.Join(domain.ResultColumns, ",") + "\n")
		buf.WriteString("-1,c,,,Email Sent,,,,,false,,a@x.com,,,\n")
		_, err := ReadResults(&buf)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrSnapshotFormat))
		assert.True(t, errors.Is(err, domain.ErrMalformedInput))
	})

	t.Run("empty input", func(t *testing.T) {
		rows, err := ReadResults(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestWriteDetails(t *testing.T) {
	ds, err := NewFlattener(1).Flatten(sampleCampaigns())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteDetails(&buf, ds.Results[:1]))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(DetailColumns, ","), lines[0])
	assert.Equal(t, "Sales,Ann,,a@x.com,1,Password Reset,Email Reported,2024-03-04T09:00:00Z,2024-03-04T09:09:00Z,true", lines[1])
}
