// Package profile holds the synthetic shopper identity used to fill checkout forms.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	// ErrProfileNotFound is returned when the profile file does not exist.
	ErrProfileNotFound = errors.New("shopper profile not found")

	// ErrInvalidProfile is returned when the profile file cannot be decoded.
	ErrInvalidProfile = errors.New("invalid shopper profile")
)

// General is the language-independent part of the shopper identity.
type General struct {
	Gender                string `json:"gender"`
	FirstName             string `json:"first_name"`
	LastName              string `json:"last_name"`
	EmailPrefix           string `json:"email_prefix"`
	EmailSuffix           string `json:"email_suffix"`
	Password              string `json:"password"`
	DateOfBirth           string `json:"date_of_birth"`
	PhoneNumber           string `json:"phone_number"`
	CreditCardNumber      string `json:"credit_card_number"`
	CreditCardExpiryMonth string `json:"credit_card_expiry_month"`
	CreditCardExpiryYear  string `json:"credit_card_expiry_year"`
	CreditCardCVV         string `json:"credit_card_cvv"`
}

// Localized is the per-language address, phone and payment sub-profile.
type Localized struct {
	Country             string `json:"country"`
	CountryCode         string `json:"country_code"`
	LocalFormat         string `json:"local_format"`
	InternationalFormat string `json:"international_format"`
	Street              string `json:"street"`
	HouseNumber         string `json:"house_number"`
	ZipCode             string `json:"zip_code"`
	City                string `json:"city"`
	Province            string `json:"province"`
	PaymentOptions      string `json:"payment_options"`
}

// ShopperProfile is the immutable shopper record loaded from user_data.json.
type ShopperProfile struct {
	General  General              `json:"general"`
	Profiles map[string]Localized `json:"profile"`
}

// Load reads a shopper profile from the given JSON file.
func Load(path string) (*ShopperProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, path)
		}
		return nil, fmt.Errorf("failed to read shopper profile: %w", err)
	}
	return Parse(data)
}

// Parse decodes a shopper profile document.
func Parse(data []byte) (*ShopperProfile, error) {
	var p ShopperProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	if p.Profiles == nil {
		p.Profiles = make(map[string]Localized)
	}
	return &p, nil
}

// For returns the sub-profile for the language. A missing language yields an
// empty sub-profile so that its fields render blank.
func (p *ShopperProfile) For(language string) Localized {
	if p == nil {
		return Localized{}
	}
	return p.Profiles[strings.ToLower(language)]
}

// Has reports whether a sub-profile exists for the language.
func (p *ShopperProfile) Has(language string) bool {
	if p == nil {
		return false
	}
	_, ok := p.Profiles[strings.ToLower(language)]
	return ok
}

// Email builds the per-site address, e.g. "jane+shop.example@mail.test".
func (g General) Email(website string) string {
	return fmt.Sprintf("%s+%s@%s", g.EmailPrefix, website, g.EmailSuffix)
}

// FullName is the card holder name.
func (g General) FullName() string {
	return strings.TrimSpace(g.FirstName + " " + g.LastName)
}

// PhoneWithoutTrunkPrefix drops the leading zero of the national number.
func (g General) PhoneWithoutTrunkPrefix() string {
	return strings.TrimPrefix(g.PhoneNumber, "0")
}

// Address joins street and house number.
func (l Localized) Address() string {
	return strings.TrimSpace(l.Street + " " + l.HouseNumber)
}
