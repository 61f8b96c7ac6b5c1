package suites

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smileynet/contacts/internal/config"
	"github.com/smileynet/contacts/internal/contact"
	"github.com/smileynet/contacts/internal/fixture"
	"github.com/smileynet/contacts/internal/harness"
)

// contractSuite keeps one registry per invocation; BeforeEach replaces it.
type contractSuite struct {
	log     *zap.Logger
	manager *contact.Manager
}

// Contract returns the registry contract suite: creation, rejection of
// missing fields, OS-conditional and DEV-only creation, repeated creation,
// and creation from fixture rows.
func Contract(opts Options) *harness.Suite {
	s := &contractSuite{log: opts.logger().Named(ContractSuite)}

	repeat := opts.Repeat
	if repeat < 1 {
		repeat = 1
	}

	validRows := harness.Parameterized("create-from-fixture", "Contact Should Be Created From Fixture Row",
		opts.Valid, fixture.Row.String, s.createFromRow)
	invalidRows := harness.Parameterized("reject-invalid-fixture", "Should Not Create Contact From Invalid Fixture Row",
		opts.Invalid, fixture.Row.String, s.rejectRow)

	return &harness.Suite{
		Name:       ContractSuite,
		BeforeAll:  s.beforeAll,
		BeforeEach: s.beforeEach,
		AfterEach:  s.afterEach,
		AfterAll:   s.afterAll,
		Cases: []harness.Case{
			{
				Name:        "create-contact",
				DisplayName: "Contact Should Be Created",
				Body:        s.createContact,
			},
			{
				Name:        "reject-missing-first-name",
				DisplayName: "Should Not Create Contact When First Name is Null",
				Body:        s.rejectMissing("", "Brown", "0123456789"),
			},
			{
				Name:        "reject-missing-last-name",
				DisplayName: "Should Not Create Contact When Last Name is Null",
				Body:        s.rejectMissing("Aston", "", "0123456789"),
			},
			{
				Name:        "reject-missing-phone-number",
				DisplayName: "Should Not Create Contact When Phone Number is Null",
				Body:        s.rejectMissing("Aston", "Brown", ""),
			},
			{
				Name:        "create-on-macos",
				DisplayName: "Contact Should Be Created Only on MAC OS",
				Conditions:  []harness.Condition{harness.EnabledOnOS("Enabled only on MAC OS", "darwin")},
				Body:        s.createContact,
			},
			{
				Name:        "create-except-windows",
				DisplayName: "Contact Should Be Created Only on Linux OS",
				Conditions:  []harness.Condition{harness.DisabledOnOS("Disabled on Windows OS", "windows")},
				Body:        s.createContact,
			},
			{
				Name:        "create-on-dev",
				DisplayName: "Test Contact Creation on Developer Machine",
				Body:        s.createOnDev,
			},
			{
				Name:        "create-repeatedly",
				DisplayName: "Repeat Contact Creation Test",
				Repeat:      repeat,
				RepeatName:  "Repeating Contact Creation Test {currentRepetition} of {totalRepetitions}",
				Body:        s.createOnDev,
			},
			validRows,
			invalidRows,
		},
	}
}

func (s *contractSuite) beforeAll(*harness.T) {
	s.log.Info("should print before all tests")
}

func (s *contractSuite) beforeEach(*harness.T) {
	s.manager = contact.NewManager()
}

func (s *contractSuite) afterEach(t *harness.T) {
	s.log.Debug("should execute after each test", zap.String("check", t.Name()))
}

func (s *contractSuite) afterAll(*harness.T) {
	s.log.Info("should be executed at the end of the test")
}

func (s *contractSuite) createContact(t *harness.T) {
	_, err := s.manager.AddContact("Aston", "Brown", "0123456789")
	require.NoError(t, err)
	requireOnly(t, s.manager, contact.Contact{FirstName: "Aston", LastName: "Brown", PhoneNumber: "0123456789"})
}

func (s *contractSuite) createOnDev(t *harness.T) {
	t.Assume(t.Environment().Name == config.DevEnvironment, "environment is not "+config.DevEnvironment)
	s.createContact(t)
}

func (s *contractSuite) rejectMissing(first, last, phone string) func(*harness.T) {
	return func(t *harness.T) {
		_, err := s.manager.AddContact(first, last, phone)
		require.Error(t, err)
		assert.ErrorIs(t, err, contact.ErrInvalidArgument)
		assert.Empty(t, s.manager.AllContacts())
	}
}

func (s *contractSuite) createFromRow(t *harness.T, row fixture.Row) {
	_, err := s.manager.AddContact(row.FirstName, row.LastName, row.PhoneNumber)
	require.NoError(t, err, "fixture line %d", row.Line)
	requireOnly(t, s.manager, contact.Contact{FirstName: row.FirstName, LastName: row.LastName, PhoneNumber: row.PhoneNumber})
}

func (s *contractSuite) rejectRow(t *harness.T, row fixture.Row) {
	_, err := s.manager.AddContact(row.FirstName, row.LastName, row.PhoneNumber)
	require.ErrorIs(t, err, contact.ErrInvalidArgument, "fixture line %d", row.Line)
	assert.Zero(t, s.manager.Len())
}

// requireOnly checks that m holds exactly one contact equal to want.
func requireOnly(t *harness.T, m *contact.Manager, want contact.Contact) {
	all := m.AllContacts()
	assert.NotEmpty(t, all)
	require.Len(t, all, 1)
	assert.Contains(t, all, want)
}
