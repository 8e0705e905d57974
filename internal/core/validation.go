package core

import (
	"regexp"
	"strings"
	"unicode"
)

var emailPattern = regexp.MustCompile(`(?i)^[\w.-]+@[\w.-]+\.[a-z]{2,}$`)

// ValidName: at least two characters, only letters, spaces and hyphens.
func ValidName(s string) bool {
	s = strings.TrimSpace(s)
	if len([]rune(s)) < 2 {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsSpace(r) && r != '-' {
			return false
		}
	}
	return true
}

// ValidAddress: at least five characters including a house number.
func ValidAddress(s string) bool {
	s = strings.TrimSpace(s)
	return len([]rune(s)) >= 5 && strings.IndexFunc(s, unicode.IsDigit) >= 0
}

// ValidPostalCode: exactly four digits.
func ValidPostalCode(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ValidPhone: 8 to 12 digits once spaces, plus signs and dashes are ignored.
func ValidPhone(s string) bool {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n >= 8 && n <= 12
}

func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// CustomerInput is the editable part of a customer. Empty Phone and Email mean
// "not given".
type CustomerInput struct {
	FirstName  string `json:"fornavn"`
	LastName   string `json:"etternavn"`
	Address    string `json:"adresse"`
	PostalCode string `json:"postnr"`
	Phone      string `json:"telefon,omitempty"`
	Email      string `json:"epost,omitempty"`
}

func (in *CustomerInput) normalize() {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Address = strings.TrimSpace(in.Address)
	in.PostalCode = strings.TrimSpace(in.PostalCode)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)
}

// Validate reports every problem at once so a form can show them together.
func (in CustomerInput) Validate() error {
	var problems []string
	if !ValidName(in.FirstName) {
		problems = append(problems, "first name is missing or invalid")
	}
	if !ValidName(in.LastName) {
		problems = append(problems, "last name is missing or invalid")
	}
	if !ValidAddress(in.Address) {
		problems = append(problems, "address is missing or invalid (must contain a number)")
	}
	if !ValidPostalCode(in.PostalCode) {
		problems = append(problems, "postal code is missing or invalid (4 digits)")
	}
	if in.Phone != "" && !ValidPhone(in.Phone) {
		problems = append(problems, "phone number is invalid (8-12 digits)")
	}
	if in.Email != "" && !ValidEmail(in.Email) {
		problems = append(problems, "e-mail address is invalid")
	}
	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Field: "kunde", Message: strings.Join(problems, "; ")}
}
