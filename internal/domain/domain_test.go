package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTicketNumber(t *testing.T) {
	assert.Equal(t, "2025-1001", FormatTicketNumber(2025, FirstTicketSequence))
	assert.Equal(t, "2026-12000", FormatTicketNumber(2026, 12000))
}

func TestTicketStatusLabels(t *testing.T) {
	require.Len(t, TicketStatuses, 6)
	for _, status := range TicketStatuses {
		assert.True(t, status.Valid(), status)
		assert.NotEqual(t, string(status), status.Label())
	}
	assert.Equal(t, "Waiting for Response", TicketStatusWaiting.Label())
	assert.False(t, TicketStatus("OPEN").Valid())
	assert.Equal(t, "OPEN", TicketStatus("OPEN").Label())
}

func TestTicketAssignment(t *testing.T) {
	empty := ""
	tech := "tech-1"

	assert.False(t, (&Ticket{}).IsAssigned())
	assert.False(t, (&Ticket{AssignedToID: &empty}).IsAssigned())
	ticket := &Ticket{AssignedToID: &tech}
	assert.True(t, ticket.IsAssigned())
	assert.True(t, ticket.IsAssignedTo("tech-1"))
	assert.False(t, ticket.IsAssignedTo("tech-2"))
}

func TestCatalogItems(t *testing.T) {
	label, ok := SubTypePrinter.ItemLabel("error")
	require.True(t, ok)
	assert.Equal(t, "Printer Errors", label)

	_, ok = SubTypePrinter.ItemLabel("wifi")
	assert.False(t, ok, "items do not cross subtypes")

	assert.Equal(t, "Laptop/Workstation", SubTypeWorkstation.Label())
	assert.False(t, TicketSubType("XYZ").Valid())
	assert.Empty(t, TicketSubType("XYZ").Items())

	for _, sub := range []TicketSubType{SubTypeAccount, SubTypeLab, SubTypeNetwork, SubTypeWorkstation, SubTypePrinter, SubTypeServer, SubTypeSoftware} {
		assert.True(t, sub.Valid(), sub)
		assert.NotEmpty(t, sub.Items(), sub)
	}
}

func TestValidBitLockerKey(t *testing.T) {
	digits := "123456789012345678901234567890123456789012345678"
	cases := map[string]struct {
		key  string
		want bool
	}{
		"bare digits":   {key: digits, want: true},
		"hyphen groups": {key: "123456-789012-345678-901234-567890-123456-789012-345678", want: true},
		"spaces":        {key: "123456 789012 345678 901234 567890 123456 789012 345678", want: true},
		"too short":     {key: digits[:47], want: false},
		"too long":      {key: digits + "9", want: false},
		"letters":       {key: digits[:47] + "A", want: false},
		"empty":         {key: "", want: false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, ValidBitLockerKey(tc.key))
		})
	}
}

func TestAssetTypes(t *testing.T) {
	assert.True(t, AssetType("PRT").Valid())
	assert.False(t, AssetType("CAR").Valid())
}

func TestParseDepartments(t *testing.T) {
	assert.Equal(t, []string{"Computing", "Physics"}, ParseDepartments(" Computing, ,Physics "))
	assert.Nil(t, ParseDepartments(""))

	profile := &SystemManagerProfile{Departments: []string{"Computing", "Physics"}}
	assert.Equal(t, "Computing,Physics", profile.DepartmentsCSV())
}

func TestStaffFullName(t *testing.T) {
	assert.Equal(t, "Grace Hopper", (&StaffMember{FirstName: "Grace", LastName: "Hopper"}).FullName())
	assert.Equal(t, "a@etsu.edu", (&StaffMember{Email: "a@etsu.edu"}).FullName())

	var nobody *StaffMember
	assert.False(t, nobody.IsSystemManager())
	assert.True(t, (&StaffMember{Role: StaffRoleSystemManager}).IsSystemManager())
}

func TestSettingsDefaults(t *testing.T) {
	s := DefaultSettings()
	assert.True(t, s.CanModifyAssignedAssets)
	assert.False(t, s.TicketVisibility)
	assert.False(t, s.Mail.Configured())
	assert.True(t, s.WantsNotification(NotifyTicketCreated))

	s.NotifyNewMessage = false
	assert.False(t, s.WantsNotification(NotifyNewMessage))

	s.Mail = MailSettings{Enabled: true}
	assert.False(t, s.Mail.Configured(), "a password is required")
	s.Mail.Password = "secret"
	assert.True(t, s.Mail.Configured())
}
