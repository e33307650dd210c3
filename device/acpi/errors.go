package acpi

import "gophersmp/kernel"

var (
	errMissingRSDP           = &kernel.Error{Module: "acpi", Message: "could not locate ACPI RSDP"}
	errInvalidRSDP           = &kernel.Error{Module: "acpi", Message: "ACPI RSDP copy has an invalid signature or checksum"}
	errTableChecksumMismatch = &kernel.Error{Module: "acpi", Message: "detected checksum mismatch while parsing ACPI table"}
	errTableLengthUnderflow  = &kernel.Error{Module: "acpi", Message: "ACPI table length is smaller than its header"}
	errTableTooShort         = &kernel.Error{Module: "acpi", Message: "ACPI table is too short to contain its fixed fields"}
	errBadRootSignature      = &kernel.Error{Module: "acpi", Message: "root system description table has an unexpected signature"}
	errRootTableSize         = &kernel.Error{Module: "acpi", Message: "root system description table size is not a multiple of its entry size"}
	errDuplicateMADT         = &kernel.Error{Module: "acpi", Message: "firmware provides more than one MADT"}
	errDuplicateSRAT         = &kernel.Error{Module: "acpi", Message: "firmware provides more than one SRAT"}
	errMalformedEntry        = &kernel.Error{Module: "acpi", Message: "ACPI table entry length exceeds table bounds"}
	errEntryTooShort         = &kernel.Error{Module: "acpi", Message: "ACPI table entry is too short for its type"}
)
