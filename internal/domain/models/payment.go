package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

type PaymentType string

const (
	PaymentCash  PaymentType = "cash"
	PaymentCard  PaymentType = "card"
	PaymentMixed PaymentType = "mixed"
)

// Valid reports whether t is one of the known payment types.
func (t PaymentType) Valid() bool {
	switch t {
	case PaymentCash, PaymentCard, PaymentMixed:
		return true
	}
	return false
}

// MixedPayment splits a mixed payment into its cash and card parts.
type MixedPayment struct {
	CashAmount float64 `json:"cashAmount"`
	CardAmount float64 `json:"cardAmount"`
}

// Payment is a tagged value: Mixed is present only when Type is mixed.
// Use Cash, Card and Mixed to build one.
type Payment struct {
	Type  PaymentType
	mixed *MixedPayment
}

func Cash() Payment { return Payment{Type: PaymentCash} }

func Card() Payment { return Payment{Type: PaymentCard} }

func Mixed(cash, card float64) Payment {
	return Payment{Type: PaymentMixed, mixed: &MixedPayment{CashAmount: cash, CardAmount: card}}
}

// MixedParts returns the breakdown of a mixed payment.
func (p Payment) MixedParts() (MixedPayment, bool) {
	if p.Type != PaymentMixed || p.mixed == nil {
		return MixedPayment{}, false
	}
	return *p.mixed, true
}

// Normalize defaults an empty type to cash and drops a stray breakdown.
func (p Payment) Normalize() Payment {
	if p.Type == "" {
		p.Type = PaymentCash
	}
	if p.Type != PaymentMixed {
		p.mixed = nil
	} else if p.mixed == nil {
		p.mixed = &MixedPayment{}
	}
	return p
}

// Balanced reports whether a mixed payment adds up to total. Non-mixed payments are always balanced.
func (p Payment) Balanced(total float64) bool {
	parts, ok := p.MixedParts()
	if !ok {
		return true
	}
	diff := parts.CashAmount + parts.CardAmount - total
	return diff > -0.005 && diff < 0.005
}

type paymentWire struct {
	Type  PaymentType   `json:"type"`
	Mixed *MixedPayment `json:"mixed,omitempty"`
}

func (p Payment) MarshalJSON() ([]byte, error) {
	p = p.Normalize()
	return json.Marshal(paymentWire{Type: p.Type, Mixed: p.mixed})
}

func (p *Payment) UnmarshalJSON(data []byte) error {
	var w paymentWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	t := PaymentType(strings.ToLower(strings.TrimSpace(string(w.Type))))
	if t != "" && !t.Valid() {
		return fmt.Errorf("unknown payment type %q", w.Type)
	}
	*p = Payment{Type: t, mixed: w.Mixed}.Normalize()
	return nil
}
