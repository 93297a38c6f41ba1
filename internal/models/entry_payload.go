package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// EntryPayload is the kind-specific half of an entry. It is implemented only
// by ItemAttributes and PersonAttributes, so an entry is always exactly one
// of the two shapes.
type EntryPayload interface {
	Kind() EntryKind
	applyTo(e *Entry)
}

// ItemAttributes are the fields a possession carries.
type ItemAttributes struct {
	AcquisitionDate   *time.Time          `json:"acquisition_date,omitempty"`
	AcquisitionMethod *AcquisitionMethod  `json:"acquisition_method,omitempty"`
	OriginalPrice     decimal.NullDecimal `json:"original_price"`
	Currency          string              `json:"currency"`
	Category          string              `json:"category"`
	Condition         *Condition          `json:"condition,omitempty"`
}

// Kind implements EntryPayload.
func (ItemAttributes) Kind() EntryKind { return EntryKindItem }

func (a ItemAttributes) applyTo(e *Entry) {
	e.Kind = EntryKindItem
	e.AcquisitionDate = a.AcquisitionDate
	e.AcquisitionMethod = a.AcquisitionMethod
	e.OriginalPrice = a.OriginalPrice
	if a.Currency != "" {
		e.Currency = a.Currency
	}
	e.Category = a.Category
	e.Condition = a.Condition

	e.Relationship = nil
	e.MeetingDate = nil
	e.ContactInfo = nil
}

// Valuable reports whether the item has what a valuation needs.
func (a ItemAttributes) Valuable() bool {
	return a.OriginalPrice.Valid && a.AcquisitionDate != nil
}

// PersonAttributes are the fields a person carries.
type PersonAttributes struct {
	Relationship *Relationship          `json:"relationship,omitempty"`
	MeetingDate  *time.Time             `json:"meeting_date,omitempty"`
	ContactInfo  map[string]interface{} `json:"contact_info,omitempty"`
}

// Kind implements EntryPayload.
func (PersonAttributes) Kind() EntryKind { return EntryKindPerson }

func (a PersonAttributes) applyTo(e *Entry) {
	e.Kind = EntryKindPerson
	e.Relationship = a.Relationship
	e.MeetingDate = a.MeetingDate
	if a.ContactInfo != nil {
		e.ContactInfo = datatypes.JSONMap(a.ContactInfo)
	} else {
		e.ContactInfo = nil
	}

	e.AcquisitionDate = nil
	e.AcquisitionMethod = nil
	e.OriginalPrice = decimal.NullDecimal{}
	e.Category = ""
	e.Condition = nil
}

// SetPayload writes the payload's fields and clears those of the other kind.
func (e *Entry) SetPayload(p EntryPayload) {
	p.applyTo(e)
}

// Payload returns the entry's kind-specific attributes.
func (e *Entry) Payload() EntryPayload {
	if e.Kind == EntryKindPerson {
		p, _ := e.Person()
		return p
	}
	i, _ := e.Item()
	return i
}

// Item returns the item attributes; ok is false for people.
func (e *Entry) Item() (ItemAttributes, bool) {
	if e.Kind != EntryKindItem {
		return ItemAttributes{}, false
	}
	return ItemAttributes{
		AcquisitionDate:   e.AcquisitionDate,
		AcquisitionMethod: e.AcquisitionMethod,
		OriginalPrice:     e.OriginalPrice,
		Currency:          e.Currency,
		Category:          e.Category,
		Condition:         e.Condition,
	}, true
}

// Person returns the person attributes; ok is false for items.
func (e *Entry) Person() (PersonAttributes, bool) {
	if e.Kind != EntryKindPerson {
		return PersonAttributes{}, false
	}
	return PersonAttributes{
		Relationship: e.Relationship,
		MeetingDate:  e.MeetingDate,
		ContactInfo:  map[string]interface{}(e.ContactInfo),
	}, true
}
