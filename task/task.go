// Package task renders the natural-language instructions handed to the browser agent
// for each stage of a website's checkout walkthrough.
package task

import (
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/hairizuanbinnoorazman/checkout-crawler/profile"
	"github.com/hairizuanbinnoorazman/checkout-crawler/target"
)

// ErrUnknownVariant is returned when a checkout variant name is not registered.
var ErrUnknownVariant = errors.New("unknown checkout variant")

// Slot is a stage of the crawl. Slots always run in the order of Slots.
type Slot string

const (
	SlotEntry     Slot = "entry"
	SlotSelection Slot = "selection"
	SlotCheckout  Slot = "checkout"
)

// Slots is the fixed execution order.
var Slots = [3]Slot{SlotEntry, SlotSelection, SlotCheckout}

// CookiePolicy selects how the entry task treats the consent dialogue.
type CookiePolicy int

const (
	AcceptCookies CookiePolicy = iota
	DeclineCookies
)

func (c CookiePolicy) String() string {
	if c == DeclineCookies {
		return "decline"
	}
	return "accept"
}

// Spec is one rendered sub-task.
type Spec struct {
	Slot        Slot
	Instruction string
}

// CheckoutTemplate renders the checkout instruction. Variants differ only here;
// entry and selection rendering is shared.
type CheckoutTemplate interface {
	Name() string
	Render(data CheckoutData) (string, error)
}

// CheckoutData is everything a checkout template may reference. Localized fields
// are zero values when the language has no sub-profile.
type CheckoutData struct {
	Website string
	General profile.General
	Local   profile.Localized
}

// Email is the per-site shopper address.
func (d CheckoutData) Email() string { return d.General.Email(d.Website) }

// FullName is the card holder name.
func (d CheckoutData) FullName() string { return d.General.FullName() }

// Address is street plus house number.
func (d CheckoutData) Address() string { return d.Local.Address() }

// Builder produces the three sub-task specs of a site target.
type Builder struct {
	checkout CheckoutTemplate
	cookies  CookiePolicy
}

// NewBuilder creates a builder. The checkout variant is fixed for the builder's lifetime.
func NewBuilder(checkout CheckoutTemplate, cookies CookiePolicy) *Builder {
	if checkout == nil {
		checkout = GenericCheckout{}
	}
	return &Builder{checkout: checkout, cookies: cookies}
}

// Variant returns the name of the checkout template in use.
func (b *Builder) Variant() string {
	return b.checkout.Name()
}

// Build renders entry, selection and checkout for the target, in that order.
func (b *Builder) Build(t target.SiteTarget, p *profile.ShopperProfile) ([3]Spec, error) {
	var specs [3]Spec

	entry, err := b.Entry(t)
	if err != nil {
		return specs, err
	}

	var general profile.General
	if p != nil {
		general = p.General
	}
	checkout, err := b.checkout.Render(CheckoutData{
		Website: t.Website,
		General: general,
		Local:   p.For(t.Language),
	})
	if err != nil {
		return specs, fmt.Errorf("failed to render %s checkout task: %w", b.checkout.Name(), err)
	}

	specs[0] = Spec{Slot: SlotEntry, Instruction: entry}
	specs[1] = Spec{Slot: SlotSelection, Instruction: Selection()}
	specs[2] = Spec{Slot: SlotCheckout, Instruction: checkout}
	return specs, nil
}

// Entry renders the navigation and consent task.
func (b *Builder) Entry(t target.SiteTarget) (string, error) {
	tmpl := acceptEntryTemplate
	if b.cookies == DeclineCookies {
		tmpl = declineEntryTemplate
	}
	return render(tmpl, struct {
		Website  string
		Language string
	}{
		Website:  t.Website,
		Language: profile.DisplayName(t.Language),
	})
}

// Selection is identical for every site and profile.
func Selection() string {
	return selectionTask
}

// CheckoutVariant resolves a checkout template by name. An empty name selects the generic storefront flow.
func CheckoutVariant(name string) (CheckoutTemplate, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "generic":
		return GenericCheckout{}, nil
	case "shopify":
		return ShopifyCheckout{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, name)
	}
}

// GenericCheckout targets arbitrary storefront checkouts.
type GenericCheckout struct{}

func (GenericCheckout) Name() string { return "generic" }

func (GenericCheckout) Render(data CheckoutData) (string, error) {
	return render(genericCheckoutTemplate, data)
}

// ShopifyCheckout targets the Shopify hosted checkout form.
type ShopifyCheckout struct{}

func (ShopifyCheckout) Name() string { return "shopify" }

func (ShopifyCheckout) Render(data CheckoutData) (string, error) {
	return render(shopifyCheckoutTemplate, data)
}

func render(tmpl *template.Template, data interface{}) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}
