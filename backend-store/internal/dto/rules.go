package dto

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	slugPattern     = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	currencyPattern = regexp.MustCompile(`^[A-Za-z]{3}$`)
)

var isUUID = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := uuid.Parse(s); err != nil {
		return errors.New("must be a valid UUID")
	}
	return nil
})

// canonicalUUID rewrites any form uuid.Parse accepts (upper-case, braced, urn or
// unhyphenated) to the lower-case hyphenated form Postgres returns. Unparsable
// input is left for isUUID to reject.
func canonicalUUID(s string) string {
	s = strings.TrimSpace(s)
	if id, err := uuid.Parse(s); err == nil {
		return id.String()
	}
	return s
}

// decimalRule checks decimal.Decimal and *decimal.Decimal fields; nil pointers pass
func decimalRule(ok func(decimal.Decimal) bool, message string) validation.Rule {
	return validation.By(func(value interface{}) error {
		var d decimal.Decimal
		switch v := value.(type) {
		case decimal.Decimal:
			d = v
		case *decimal.Decimal:
			if v == nil {
				return nil
			}
			d = *v
		default:
			return errors.New("must be a number")
		}
		if !ok(d) {
			return errors.New(message)
		}
		return nil
	})
}

var (
	nonNegative = decimalRule(func(d decimal.Decimal) bool { return !d.IsNegative() }, "must not be negative")
	percentage  = decimalRule(func(d decimal.Decimal) bool {
		return !d.IsNegative() && d.LessThanOrEqual(decimal.NewFromInt(100))
	}, "must be between 0 and 100")
)
