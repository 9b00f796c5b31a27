package domain

// TicketSubType is the top-level category a requestor picks.
type TicketSubType string

const (
	SubTypeAccount     TicketSubType = "ACC"
	SubTypeLab         TicketSubType = "LAB"
	SubTypeNetwork     TicketSubType = "NET"
	SubTypeWorkstation TicketSubType = "WRK"
	SubTypePrinter     TicketSubType = "PRT"
	SubTypeServer      TicketSubType = "SRV"
	SubTypeSoftware    TicketSubType = "SFT"
)

// CatalogItem is one selectable item within a subtype.
type CatalogItem struct {
	Code  string
	Label string
}

type subTypeEntry struct {
	label string
	items []CatalogItem
}

var ticketCatalog = map[TicketSubType]subTypeEntry{
	SubTypeNetwork: {label: "Network", items: []CatalogItem{
		{"connectivity", "Internet/Network Connectivity"},
		{"wifi", "WiFi Issues"},
		{"ethernet", "Ethernet Connection"},
		{"vpn", "VPN Access"},
		{"router", "Router/Switch Issues"},
		{"performance", "Network Performance"},
		{"other", "Other Network Issue"},
	}},
	SubTypeWorkstation: {label: "Laptop/Workstation", items: []CatalogItem{
		{"setup", "New Computer Setup"},
		{"hardware", "Hardware Issues"},
		{"remote_desktop", "Remote Desktop"},
		{"makemeadmin", "MakeMeAdmin Access"},
		{"monitors", "Monitor/Display Issues"},
		{"peripherals", "Keyboard/Mouse/Peripherals"},
		{"other", "Other Workstation Issue"},
	}},
	SubTypeServer: {label: "Server", items: []CatalogItem{
		{"deploy", "Server Deployment"},
		{"access", "Server Access"},
		{"maintenance", "Server Maintenance"},
		{"backup", "Backup Issues"},
		{"performance", "Performance Issues"},
		{"storage", "Storage/Space Issues"},
		{"other", "Other Server Issue"},
	}},
	SubTypePrinter: {label: "Printer", items: []CatalogItem{
		{"connect", "Printer Connection"},
		{"install", "Printer Installation"},
		{"error", "Printer Errors"},
		{"supplies", "Printer Supplies"},
		{"quality", "Print Quality Issues"},
		{"other", "Other Printer Issue"},
	}},
	SubTypeSoftware: {label: "Software", items: []CatalogItem{
		{"install", "Software Installation"},
		{"update", "Software Updates"},
		{"license", "License Management"},
		{"config", "Software Configuration"},
		{"compatibility", "Compatibility Issues"},
		{"other", "Other Software Issue"},
	}},
	SubTypeAccount: {label: "Account", items: []CatalogItem{
		{"access", "Account Access"},
		{"permissions", "Permission Issues"},
		{"password", "Password Reset"},
		{"creation", "Account Creation"},
		{"software_access", "Software Access Rights"},
		{"other", "Other Account Issue"},
	}},
	SubTypeLab: {label: "Lab", items: []CatalogItem{
		{"instructor_ws", "Instructor Workstation"},
		{"instructor_periph", "Instructor Peripherals"},
		{"projector", "Projector"},
		{"av_equipment", "A/V Equipment (Control Panel, Microphone)"},
		{"lab_computer", "Lab Computer"},
		{"lab_periph", "Lab Peripherals"},
		{"other", "Other Lab Issue"},
	}},
}

// Valid reports whether s is a known subtype.
func (s TicketSubType) Valid() bool {
	_, ok := ticketCatalog[s]
	return ok
}

// Label returns the display name of the subtype.
func (s TicketSubType) Label() string {
	if entry, ok := ticketCatalog[s]; ok {
		return entry.label
	}
	return string(s)
}

// Items returns the items selectable under s.
func (s TicketSubType) Items() []CatalogItem {
	entry := ticketCatalog[s]
	return append([]CatalogItem(nil), entry.items...)
}

// ItemLabel returns the display label for item under s and whether the item
// belongs to the subtype.
func (s TicketSubType) ItemLabel(item string) (string, bool) {
	for _, candidate := range ticketCatalog[s].items {
		if candidate.Code == item {
			return candidate.Label, true
		}
	}
	return "", false
}
