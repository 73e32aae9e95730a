package enums

import "fmt"

// LedgerEntryType maps to the ledger_entry_type column.
type LedgerEntryType string

const (
	LedgerEntryTypeCommission    LedgerEntryType = "commission"
	LedgerEntryTypeVendorPayout  LedgerEntryType = "vendor_payout"
	LedgerEntryTypeRefund        LedgerEntryType = "refund"
	LedgerEntryTypePayoutSettled LedgerEntryType = "payout_settled"
)

var validLedgerEntryTypes = []LedgerEntryType{
	LedgerEntryTypeCommission,
	LedgerEntryTypeVendorPayout,
	LedgerEntryTypeRefund,
	LedgerEntryTypePayoutSettled,
}

// IsValid reports whether the value is a known LedgerEntryType.
func (l LedgerEntryType) IsValid() bool {
	for _, candidate := range validLedgerEntryTypes {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLedgerEntryType converts raw input into a LedgerEntryType.
func ParseLedgerEntryType(value string) (LedgerEntryType, error) {
	for _, candidate := range validLedgerEntryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger entry type %q", value)
}
