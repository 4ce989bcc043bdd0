package domain

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report field names as they appear on the wire.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks the identity fields needed to flatten the campaign: the
// campaign id and every recipient email. Optional data (template, geo,
// timestamps) is never validated here.
func (c *CampaignRecord) Validate() error {
	if err := validate.Struct(c); err != nil {
		return &MalformedInputError{CampaignID: c.ID, Index: -1, Field: firstField(err)}
	}
	for i := range c.Results {
		if err := validate.Struct(&c.Results[i]); err != nil {
			return &MalformedInputError{CampaignID: c.ID, Index: i, Field: firstField(err)}
		}
	}
	return nil
}

func firstField(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Field()
	}
	return err.Error()
}
