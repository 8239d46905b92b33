package pii

import (
	"fmt"
	"sort"
)

// PIIType identifies a category of personally identifiable information.
type PIIType string

// Core types, active on every call.
const (
	TypeSSN            PIIType = "ssn"
	TypeCreditCard     PIIType = "credit_card"
	TypeEmail          PIIType = "email"
	TypePhone          PIIType = "phone"
	TypeAddress        PIIType = "address"
	TypeIPAddress      PIIType = "ip_address"
	TypeDateOfBirth    PIIType = "date_of_birth"
	TypePassport       PIIType = "passport"
	TypeDriversLicense PIIType = "drivers_license"
	TypeBankAccount    PIIType = "bank_account"
)

// Region-specific types.
const (
	TypeAUTaxFileNumber PIIType = "au_tfn"
	TypeAUMedicare      PIIType = "au_medicare"
	TypeUSITIN          PIIType = "us_itin"
	TypeGBNINO          PIIType = "gb_nino"
	TypeGBNHSNumber     PIIType = "gb_nhs"
	TypeIBAN            PIIType = "iban"
	TypeEUVATNumber     PIIType = "eu_vat"
	TypeEmiratesID      PIIType = "emirates_id"
	TypePOBox           PIIType = "po_box"
	TypeSANationalID    PIIType = "sa_national_id"
	TypeNGNIN           PIIType = "ng_nin"
	TypeNGBVN           PIIType = "ng_bvn"
	TypeAadhaar         PIIType = "aadhaar"
	TypeINPAN           PIIType = "in_pan"
	TypeJPMyNumber      PIIType = "jp_my_number"
	TypeCNResidentID    PIIType = "cn_resident_id"
	TypeKRRRN           PIIType = "kr_rrn"
	TypeBRCPF           PIIType = "br_cpf"
	TypeBRCNPJ          PIIType = "br_cnpj"
)

// Industry-specific types.
const (
	TypeICDCode             PIIType = "icd_code"
	TypeMedicalRecordNumber PIIType = "medical_record_number"
	TypeNPI                 PIIType = "npi"
	TypeSwiftCode           PIIType = "swift_code"
	TypeRoutingNumber       PIIType = "routing_number"
	TypeCaseNumber          PIIType = "case_number"
	TypeBarNumber           PIIType = "bar_number"
)

// typeTable lists every type in enum order with its placeholder token.
var typeTable = []struct {
	typ         PIIType
	placeholder string
}{
	{TypeSSN, "[SSN_REDACTED]"},
	{TypeCreditCard, "[CARD_REDACTED]"},
	{TypeEmail, "[EMAIL_REDACTED]"},
	{TypePhone, "[PHONE_REDACTED]"},
	{TypeAddress, "[ADDRESS_REDACTED]"},
	{TypeIPAddress, "[IP_REDACTED]"},
	{TypeDateOfBirth, "[DOB_REDACTED]"},
	{TypePassport, "[PASSPORT_REDACTED]"},
	{TypeDriversLicense, "[DL_REDACTED]"},
	{TypeBankAccount, "[ACCOUNT_REDACTED]"},

	{TypeAUTaxFileNumber, "[TFN_REDACTED]"},
	{TypeAUMedicare, "[MEDICARE_REDACTED]"},
	{TypeUSITIN, "[ITIN_REDACTED]"},
	{TypeGBNINO, "[NINO_REDACTED]"},
	{TypeGBNHSNumber, "[NHS_REDACTED]"},
	{TypeIBAN, "[IBAN_REDACTED]"},
	{TypeEUVATNumber, "[VAT_REDACTED]"},
	{TypeEmiratesID, "[EMIRATES_ID_REDACTED]"},
	{TypePOBox, "[PO_BOX_REDACTED]"},
	{TypeSANationalID, "[SA_ID_REDACTED]"},
	{TypeNGNIN, "[NIN_REDACTED]"},
	{TypeNGBVN, "[BVN_REDACTED]"},
	{TypeAadhaar, "[AADHAAR_REDACTED]"},
	{TypeINPAN, "[PAN_REDACTED]"},
	{TypeJPMyNumber, "[MY_NUMBER_REDACTED]"},
	{TypeCNResidentID, "[CN_ID_REDACTED]"},
	{TypeKRRRN, "[RRN_REDACTED]"},
	{TypeBRCPF, "[CPF_REDACTED]"},
	{TypeBRCNPJ, "[CNPJ_REDACTED]"},

	{TypeICDCode, "[ICD_REDACTED]"},
	{TypeMedicalRecordNumber, "[MRN_REDACTED]"},
	{TypeNPI, "[NPI_REDACTED]"},
	{TypeSwiftCode, "[SWIFT_REDACTED]"},
	{TypeRoutingNumber, "[ROUTING_REDACTED]"},
	{TypeCaseNumber, "[CASE_NUMBER_REDACTED]"},
	{TypeBarNumber, "[BAR_NUMBER_REDACTED]"},
}

var (
	typeIndex       = make(map[PIIType]int, len(typeTable))
	allTypes        = make([]PIIType, len(typeTable))
	placeholderByID = make(map[PIIType]string, len(typeTable))
)

func init() {
	for i, entry := range typeTable {
		typeIndex[entry.typ] = i
		allTypes[i] = entry.typ
		placeholderByID[entry.typ] = entry.placeholder
	}
}

// NumTypes is the size of the PIIType enumeration.
func NumTypes() int {
	return len(typeTable)
}

// AllTypes returns every PIIType in enum order.
func AllTypes() []PIIType {
	out := make([]PIIType, len(allTypes))
	copy(out, allTypes)
	return out
}

// ParseType converts a type name (e.g. "emirates_id") into a PIIType.
func ParseType(name string) (PIIType, error) {
	t := PIIType(name)
	if !t.Valid() {
		return "", fmt.Errorf("unknown PII type %q", name)
	}
	return t, nil
}

// Valid reports whether t is a member of the enumeration.
func (t PIIType) Valid() bool {
	_, ok := typeIndex[t]
	return ok
}

// Index returns the position of t in enum order, or -1 if t is unknown.
func (t PIIType) Index() int {
	if i, ok := typeIndex[t]; ok {
		return i
	}
	return -1
}

// Placeholder returns the fixed redaction token for t.
func (t PIIType) Placeholder() string {
	if p, ok := placeholderByID[t]; ok {
		return p
	}
	return "[REDACTED]"
}

// String implements fmt.Stringer.
func (t PIIType) String() string {
	return string(t)
}

// SortTypes sorts types in place by enum order.
func SortTypes(types []PIIType) {
	sort.Slice(types, func(i, j int) bool {
		return types[i].Index() < types[j].Index()
	})
}

// TypeSet is a deduplicated collection of detected types.
type TypeSet map[PIIType]struct{}

// Add inserts t into the set.
func (s TypeSet) Add(t PIIType) {
	s[t] = struct{}{}
}

// Has reports whether t is in the set.
func (s TypeSet) Has(t PIIType) bool {
	_, ok := s[t]
	return ok
}

// Sorted returns the members of the set in enum order. The result is never nil.
func (s TypeSet) Sorted() []PIIType {
	out := make([]PIIType, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	SortTypes(out)
	return out
}

// Span is a byte range [Start, End) of the input identified as a PII type.
// Offsets refer to the exact input text and always fall on rune boundaries.
type Span struct {
	Start     int     `json:"start"`
	End       int     `json:"end"`
	Type      PIIType `json:"type"`
	Priority  int     `json:"priority"`
	PatternID string  `json:"pattern_id"`
}

// Len returns the byte length of the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Overlaps reports whether s and o share at least one byte.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}
