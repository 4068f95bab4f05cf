package adv

// Unknown is reported for company identifiers missing from the table.
const Unknown = "Unknown"

// LookupCompany returns the Bluetooth SIG company name for id.
// See: https://www.bluetooth.com/specifications/assigned-numbers/
func LookupCompany(id uint16) (string, bool) {
	name, ok := companyNames[id]
	return name, ok
}

// CompanyName is LookupCompany with Unknown for missing entries.
func CompanyName(id uint16) string {
	if name, ok := companyNames[id]; ok {
		return name
	}
	return Unknown
}

var companyNames = map[uint16]string{
	0x0000: "Ericsson Technology Licensing",
	0x0001: "Nokia Mobile Phones",
	0x0002: "Intel Corp.",
	0x0003: "IBM Corp.",
	0x0004: "Toshiba Corp.",
	0x0006: "Microsoft",
	0x000A: "Qualcomm Technologies International, Ltd.",
	0x000D: "Texas Instruments Inc.",
	0x000F: "Broadcom Corporation",
	0x001D: "Qualcomm",
	0x0030: "ST Microelectronics",
	0x0046: "MediaTek, Inc.",
	0x004C: "Apple Inc.",
	0x0059: "Nordic Semiconductor ASA",
	0x005D: "Realtek Semiconductor Corporation",
	0x0067: "GN Netcom",
	0x0075: "Samsung Electronics Co. Ltd.",
	0x0078: "Nike, Inc.",
	0x0087: "Garmin International, Inc.",
	0x009E: "Bose Corporation",
	0x00C4: "LG Electronics",
	0x00D2: "Dialog Semiconductor B.V.",
	0x00E0: "Google",
	0x0118: "Radius Networks, Inc.",
	0x012D: "Sony Corporation",
	0x0157: "Anhui Huami Information Technology Co., Ltd.",
	0x0171: "Amazon.com Services, Inc.",
	0x02E5: "Espressif Incorporated",
	0x038F: "Xiaomi Inc.",
	0x0499: "Ruuvi Innovations Ltd.",
}
