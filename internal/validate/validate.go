// Package validate checks the shape of candidate-provided fields.
//
// All validators are pure: they never mutate state and are deterministic
// given their input. A rejected value carries a machine-readable reason the
// conversation manager turns into a re-prompt.
package validate

import (
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
)

// Field identifies a validated candidate field.
type Field string

const (
	FieldName       Field = "name"
	FieldEmail      Field = "email"
	FieldPhone      Field = "phone"
	FieldExperience Field = "experience"
	FieldPosition   Field = "position"
	FieldLocation   Field = "location"
)

// Reason classifies why a value was rejected.
type Reason string

const (
	ReasonEmpty         Reason = "Empty"
	ReasonInvalidFormat Reason = "InvalidFormat"
	ReasonInvalidRegion Reason = "InvalidRegion"
	ReasonNotANumber    Reason = "NotANumber"
	ReasonOutOfRange    Reason = "OutOfRange"
	ReasonUnresolvable  Reason = "Unresolvable"
)

// Result is the outcome of validating a single raw input.
type Result struct {
	OK         bool
	Normalized string
	Reason     Reason
}

// Resolver optionally verifies that a location names a real place. The
// built-in check is a permissive pattern; a geocoding lookup can be plugged
// in behind this type.
type Resolver func(location string) bool

const (
	// MinExperienceYears and MaxExperienceYears bound the accepted
	// years-of-experience value.
	MinExperienceYears = 0
	MaxExperienceYears = 50
)

var (
	namePattern     = regexp.MustCompile(`^[a-zA-Z][a-zA-Z\s'’-]+$`)
	locationPattern = regexp.MustCompile(`^[\p{L}][\p{L}\s.'’-]*(,[\p{L}\s.'’-]+)*$`)
)

// Validate dispatches raw input to the validator for the given field.
func Validate(field Field, raw string) Result {
	switch field {
	case FieldName:
		return Name(raw)
	case FieldEmail:
		return Email(raw)
	case FieldPhone:
		return Phone(raw)
	case FieldExperience:
		return Experience(raw)
	case FieldPosition:
		return FreeText(raw)
	case FieldLocation:
		return Location(raw)
	default:
		return FreeText(raw)
	}
}

// Name accepts a full name of at least two word parts and normalizes it to
// title case.
func Name(raw string) Result {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Result{Reason: ReasonEmpty}
	}

	if !namePattern.MatchString(raw) {
		return Result{Reason: ReasonInvalidFormat}
	}

	parts := make([]string, 0, 2)
	for _, part := range strings.Fields(raw) {
		if len([]rune(part)) > 1 {
			parts = append(parts, part)
		}
	}
	if len(parts) < 2 {
		return Result{Reason: ReasonInvalidFormat}
	}

	return Result{OK: true, Normalized: titleCase(raw)}
}

// Email performs an RFC-shape syntactic check and normalizes to lower case.
// Addresses without a dotted domain are rejected as undeliverable.
func Email(raw string) Result {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return Result{Reason: ReasonEmpty}
	}

	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return Result{Reason: ReasonInvalidFormat}
	}

	at := strings.LastIndex(raw, "@")
	domain := raw[at+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return Result{Reason: ReasonInvalidFormat}
	}

	return Result{OK: true, Normalized: raw}
}

// Phone parses an international phone number and normalizes it to E.164.
// Numbers must carry a country code since no default region is assumed.
func Phone(raw string) Result {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Result{Reason: ReasonEmpty}
	}

	parsed, err := phonenumbers.Parse(raw, "")
	if err != nil {
		return Result{Reason: ReasonInvalidFormat}
	}

	if !phonenumbers.IsValidNumber(parsed) {
		return Result{Reason: ReasonInvalidRegion}
	}

	return Result{OK: true, Normalized: phonenumbers.Format(parsed, phonenumbers.E164)}
}

// Experience accepts a whole number of years within a sane bound.
func Experience(raw string) Result {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Result{Reason: ReasonEmpty}
	}

	years, err := strconv.Atoi(raw)
	if err != nil {
		return Result{Reason: ReasonNotANumber}
	}

	if years < MinExperienceYears || years > MaxExperienceYears {
		return Result{Reason: ReasonOutOfRange}
	}

	return Result{OK: true, Normalized: strconv.Itoa(years)}
}

// FreeText accepts any non-empty trimmed input.
func FreeText(raw string) Result {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Result{Reason: ReasonEmpty}
	}
	return Result{OK: true, Normalized: raw}
}

// Location accepts a plausible place name such as "Berlin, Germany".
func Location(raw string) Result {
	return LocationWith(raw, nil)
}

// LocationWith validates the location shape and, when a resolver is
// provided, additionally asks it to confirm the place exists.
func LocationWith(raw string, resolve Resolver) Result {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Result{Reason: ReasonEmpty}
	}

	if len([]rune(raw)) < 2 || !locationPattern.MatchString(raw) {
		return Result{Reason: ReasonUnresolvable}
	}

	if resolve != nil && !resolve(raw) {
		return Result{Reason: ReasonUnresolvable}
	}

	return Result{OK: true, Normalized: raw}
}

// titleCase capitalizes every letter that follows a non-letter, so
// apostrophes and hyphens start a new capital ("O'Neill", "Mary-Jane").
func titleCase(s string) string {
	runes := []rune(strings.ToLower(s))
	prevLetter := false
	for i, r := range runes {
		if unicode.IsLetter(r) {
			if !prevLetter {
				runes[i] = unicode.ToUpper(r)
			}
			prevLetter = true
		} else {
			prevLetter = false
		}
	}
	return strings.Join(strings.Fields(string(runes)), " ")
}
