package checkout

import (
	"regexp"
	"strings"

	"github.com/readify/storefront/internal/domain"
)

var (
	emailPattern   = regexp.MustCompile(`\S+@\S+\.\S+`)
	phonePattern   = regexp.MustCompile(`^\d{10}$`)
	pincodePattern = regexp.MustCompile(`^\d{6}$`)
)

type fieldCheck struct {
	field   string
	message string
	ok      func(domain.CustomerDetails) bool
}

// Checks run in this order and stop at the first failure.
var customerChecks = []fieldCheck{
	{"fullName", "Please enter your full name", func(c domain.CustomerDetails) bool {
		return notBlank(c.FullName)
	}},
	{"email", "Please enter a valid email address", func(c domain.CustomerDetails) bool {
		return notBlank(c.Email) && emailPattern.MatchString(c.Email)
	}},
	{"phone", "Please enter a valid 10-digit phone number", func(c domain.CustomerDetails) bool {
		return phonePattern.MatchString(c.Phone)
	}},
	{"address", "Please enter your address", func(c domain.CustomerDetails) bool {
		return notBlank(c.Address)
	}},
	{"city", "Please enter your city", func(c domain.CustomerDetails) bool {
		return notBlank(c.City)
	}},
	{"state", "Please enter your state", func(c domain.CustomerDetails) bool {
		return notBlank(c.State)
	}},
	{"pincode", "Please enter a valid 6-digit pincode", func(c domain.CustomerDetails) bool {
		return pincodePattern.MatchString(c.Pincode)
	}},
}

// Validate reports the first invalid customer field as a *ValidationError.
func Validate(c domain.CustomerDetails) error {
	for _, check := range customerChecks {
		if !check.ok(c) {
			return &ValidationError{Field: check.field, Message: check.message}
		}
	}
	return nil
}

func notBlank(s string) bool {
	return strings.TrimSpace(s) != ""
}
