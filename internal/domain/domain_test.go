package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCampaignValidate(t *testing.T) {
	tests := []struct {
		name      string
		campaign  CampaignRecord
		wantField string
		wantIndex int
	}{
		{"valid", CampaignRecord{ID: 1, Results: []ResultEntry{{Email: "a@x.com"}}}, "", 0},
		{"no results is fine", CampaignRecord{ID: 2}, "", 0},
		{"missing campaign id", CampaignRecord{Name: "Q1"}, "id", -1},
		{"negative campaign id", CampaignRecord{ID: -4, Results: []ResultEntry{{Email: "a@x.com"}}}, "id", -1},
		{"missing recipient email", CampaignRecord{ID: 3, Results: []ResultEntry{{Email: "a@x.com"}, {Position: "Sales"}}}, "email", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.campaign.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedInput))

			var merr *MalformedInputError
			require.True(t, errors.As(err, &merr))
			assert.Equal(t, tt.wantField, merr.Field)
			assert.Equal(t, tt.wantIndex, merr.Index)
		})
	}
}

func TestTemplateAccessors(t *testing.T) {
	c := CampaignRecord{ID: 1}
	assert.Nil(t, c.TemplateID())
	assert.Nil(t, c.TemplateName())

	c.Template = &Template{ID: 7, Name: "Password Reset"}
	require.NotNil(t, c.TemplateID())
	assert.Equal(t, int64(7), *c.TemplateID())
	assert.Equal(t, "Password Reset", *c.TemplateName())
}

func TestStatusIsSent(t *testing.T) {
	assert.True(t, StatusSent.IsSent())
	assert.True(t, StatusReported.IsSent())
	assert.False(t, StatusSendingError.IsSent())
	assert.False(t, StatusScheduled.IsSent())
	assert.False(t, StatusError.IsSent())
}

func TestMalformedInputErrorMessage(t *testing.T) {
	err := &MalformedInputError{CampaignID: 4, Index: 2, Field: "email"}
	assert.Equal(t, "malformed campaign record: campaign 4: result 2: missing email", err.Error())

	err = &MalformedInputError{CampaignID: 0, Index: -1, Field: "id"}
	assert.Equal(t, "malformed campaign record: campaign 0: missing id", err.Error())
}
