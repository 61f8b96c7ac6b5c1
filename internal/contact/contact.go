// Package contact implements an in-memory contact registry that validates
// entries on insertion.
package contact

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Contact is one person's contact entry. Equality is structural.
type Contact struct {
	FirstName   string `name:"firstName" validate:"required,notblank"`
	LastName    string `name:"lastName" validate:"required,notblank"`
	PhoneNumber string `name:"phoneNumber" validate:"required,notblank"`
}

// ErrInvalidArgument is matched by every validation failure returned from AddContact.
var ErrInvalidArgument = errors.New("contact: invalid argument")

// InvalidContactError lists the fields that were absent when a contact was rejected.
type InvalidContactError struct {
	Fields []string
}

func (e *InvalidContactError) Error() string {
	return fmt.Sprintf("contact: missing required field(s): %s", strings.Join(e.Fields, ", "))
}

// Unwrap lets errors.Is match ErrInvalidArgument.
func (e *InvalidContactError) Unwrap() error {
	return ErrInvalidArgument
}

// Manager holds contacts in insertion order.
// It is not safe for concurrent use.
type Manager struct {
	contacts []Contact
	validate *validator.Validate
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{
		contacts: []Contact{},
		validate: newValidator(),
	}
}

// AddContact validates the three fields and appends the resulting contact.
// A field is absent when it is empty or only whitespace. On failure the
// registry is left unchanged and the error matches ErrInvalidArgument.
func (m *Manager) AddContact(firstName, lastName, phoneNumber string) (Contact, error) {
	c := Contact{
		FirstName:   firstName,
		LastName:    lastName,
		PhoneNumber: phoneNumber,
	}
	if err := m.check(c); err != nil {
		return Contact{}, err
	}
	m.contacts = append(m.contacts, c)
	return c, nil
}

// AllContacts returns a copy of the stored contacts in insertion order.
func (m *Manager) AllContacts() []Contact {
	out := make([]Contact, len(m.contacts))
	copy(out, m.contacts)
	return out
}

// Len returns the number of stored contacts.
func (m *Manager) Len() int {
	return len(m.contacts)
}

func (m *Manager) check(c Contact) error {
	err := m.validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("contact: validating: %w", err)
	}
	invalid := &InvalidContactError{}
	for _, fe := range verrs {
		invalid.Fields = append(invalid.Fields, fe.Field())
	}
	return invalid
}

// newValidator returns a validator that reports fields by their `name` tag
// and understands the notblank rule.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("name"); name != "" {
			return name
		}
		return f.Name
	})
	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}
