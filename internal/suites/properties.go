package suites

import (
	"fmt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smileynet/contacts/internal/contact"
	"github.com/smileynet/contacts/internal/fixture"
	"github.com/smileynet/contacts/internal/harness"
)

type missingField struct {
	name               string
	first, last, phone string
}

var missingFields = []missingField{
	{name: "firstName", first: "", last: "Brown", phone: "0123456789"},
	{name: "lastName", first: "Aston", last: "", phone: "0123456789"},
	{name: "phoneNumber", first: "Aston", last: "Brown", phone: ""},
	{name: "all", first: "", last: "", phone: ""},
}

type propertiesSuite struct {
	valid   []fixture.Row
	manager *contact.Manager
}

// Properties returns the suite of registry invariants: empty start, no
// de-duplication, atomic rejection, insertion order and snapshot isolation.
func Properties(opts Options) *harness.Suite {
	s := &propertiesSuite{valid: opts.Valid}

	return &harness.Suite{
		Name:       PropertiesSuite,
		BeforeEach: func(*harness.T) { s.manager = contact.NewManager() },
		Cases: []harness.Case{
			{
				Name:        "empty-registry",
				DisplayName: "New Registry Has No Contacts",
				Body:        s.emptyRegistry,
			},
			harness.Parameterized("duplicates-are-kept", "Identical Contacts Are All Kept",
				[]int{1, 2, 5, 10},
				func(n int) string { return fmt.Sprintf("n=%d", n) },
				s.duplicatesAreKept),
			harness.Parameterized("failure-leaves-registry-unchanged", "Rejected Contact Leaves Registry Unchanged",
				missingFields,
				func(m missingField) string { return "missing " + m.name },
				s.failureLeavesRegistryUnchanged),
			{
				Name:        "insertion-order-preserved",
				DisplayName: "Contacts Are Listed In Insertion Order",
				Body:        s.insertionOrderPreserved,
			},
			{
				Name:        "snapshot-is-a-copy",
				DisplayName: "Listed Contacts Do Not Alias The Registry",
				Body:        s.snapshotIsACopy,
			},
		},
	}
}

func (s *propertiesSuite) emptyRegistry(t *harness.T) {
	all := s.manager.AllContacts()
	assert.NotNil(t, all)
	assert.Empty(t, all)
	assert.Zero(t, s.manager.Len())
}

func (s *propertiesSuite) duplicatesAreKept(t *harness.T, n int) {
	for i := 0; i < n; i++ {
		_, err := s.manager.AddContact("Aston", "Brown", "0123456789")
		require.NoError(t, err)
	}
	assert.Len(t, s.manager.AllContacts(), n)
}

func (s *propertiesSuite) failureLeavesRegistryUnchanged(t *harness.T, m missingField) {
	_, err := s.manager.AddContact("Jane", "Doe", "0987654321")
	require.NoError(t, err)
	before := s.manager.AllContacts()

	_, err = s.manager.AddContact(m.first, m.last, m.phone)

	require.ErrorIs(t, err, contact.ErrInvalidArgument)
	assert.Equal(t, before, s.manager.AllContacts())
}

func (s *propertiesSuite) insertionOrderPreserved(t *harness.T) {
	if len(s.valid) == 0 {
		t.SkipWithReason("no valid fixture rows")
	}
	want := make([]contact.Contact, 0, len(s.valid))
	for _, row := range s.valid {
		c, err := s.manager.AddContact(row.FirstName, row.LastName, row.PhoneNumber)
		require.NoError(t, err, "fixture line %d", row.Line)
		want = append(want, c)
	}
	assert.Equal(t, want, s.manager.AllContacts())
}

func (s *propertiesSuite) snapshotIsACopy(t *harness.T) {
	_, err := s.manager.AddContact("Aston", "Brown", "0123456789")
	require.NoError(t, err)

	snap := s.manager.AllContacts()
	snap[0].FirstName = "Mallory"

	assert.Equal(t, "Aston", s.manager.AllContacts()[0].FirstName)
}
