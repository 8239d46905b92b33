package scan

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"tork-hq/governance/pkg/pii"
	"tork-hq/governance/pkg/pii/patterns"
)

var registry = patterns.MustNewRegistry()

func TestDetect_CoreTypes(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantType pii.PIIType
		wantText string
	}{
		{"ssn", "My SSN is 123-45-6789", pii.TypeSSN, "My SSN is [SSN_REDACTED]"},
		{"credit card", "Card: 4111-1111-1111-1111", pii.TypeCreditCard, "Card: [CARD_REDACTED]"},
		{"email", "Contact: john@example.com", pii.TypeEmail, "Contact: [EMAIL_REDACTED]"},
		{"phone", "Call me at 555-123-4567", pii.TypePhone, "Call me at [PHONE_REDACTED]"},
		{"address", "I live at 123 Main Street", pii.TypeAddress, "I live at [ADDRESS_REDACTED]"},
		{"ip address", "Server IP: 192.168.1.1", pii.TypeIPAddress, "Server IP: [IP_REDACTED]"},
		{"date of birth", "DOB: 01/15/1990", pii.TypeDateOfBirth, "DOB: [DOB_REDACTED]"},
		{"passport", "Passport: AB1234567", pii.TypePassport, "Passport: [PASSPORT_REDACTED]"},
		{"drivers license", "License: D123456789012", pii.TypeDriversLicense, "License: [DL_REDACTED]"},
		{"bank account", "Account 000123456789", pii.TypeBankAccount, "Account [ACCOUNT_REDACTED]"},
	}

	active := registry.Active(pii.GovernOptions{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(tt.text, active)
			if err != nil {
				t.Fatalf("Detect() error = %v", err)
			}
			if !got.HasPII {
				t.Fatal("Detect() HasPII = false, want true")
			}
			if !reflect.DeepEqual(got.Types, []pii.PIIType{tt.wantType}) {
				t.Errorf("Detect() Types = %v, want [%v]", got.Types, tt.wantType)
			}
			if got.RedactedText != tt.wantText {
				t.Errorf("Detect() RedactedText = %q, want %q", got.RedactedText, tt.wantText)
			}
		})
	}
}

func TestDetect_RegionAndIndustry(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		opts     pii.GovernOptions
		wantType pii.PIIType
		wantText string
	}{
		{
			name:     "emirates id",
			text:     "Emirates ID: 784-1234-1234567-1",
			opts:     pii.GovernOptions{Regions: []string{"ae"}},
			wantType: pii.TypeEmiratesID,
			wantText: "Emirates ID: [EMIRATES_ID_REDACTED]",
		},
		{
			name:     "po box",
			text:     "Send to P.O. Box 12345, Dubai",
			opts:     pii.GovernOptions{Regions: []string{"ae"}},
			wantType: pii.TypePOBox,
			wantText: "Send to [PO_BOX_REDACTED], Dubai",
		},
		{
			name:     "itin outranks core ssn",
			text:     "ITIN 912-70-1234",
			opts:     pii.GovernOptions{Regions: []string{"us"}},
			wantType: pii.TypeUSITIN,
			wantText: "ITIN [ITIN_REDACTED]",
		},
		{
			name:     "aadhaar",
			text:     "Aadhaar 2345 6789 0123",
			opts:     pii.GovernOptions{Regions: []string{"in"}},
			wantType: pii.TypeAadhaar,
			wantText: "Aadhaar [AADHAAR_REDACTED]",
		},
		{
			name:     "pan",
			text:     "PAN ABCPE1234F",
			opts:     pii.GovernOptions{Regions: []string{"in"}},
			wantType: pii.TypeINPAN,
			wantText: "PAN [PAN_REDACTED]",
		},
		{
			name:     "nhs number with context",
			text:     "NHS number 943 476 5919",
			opts:     pii.GovernOptions{Regions: []string{"gb"}},
			wantType: pii.TypeGBNHSNumber,
			wantText: "NHS number [NHS_REDACTED]",
		},
		{
			name:     "tax file number",
			text:     "TFN: 123 456 782",
			opts:     pii.GovernOptions{Regions: []string{"au"}},
			wantType: pii.TypeAUTaxFileNumber,
			wantText: "TFN: [TFN_REDACTED]",
		},
		{
			name:     "cpf",
			text:     "CPF 123.456.789-09",
			opts:     pii.GovernOptions{Regions: []string{"br"}},
			wantType: pii.TypeBRCPF,
			wantText: "CPF [CPF_REDACTED]",
		},
		{
			name:     "korean rrn",
			text:     "RRN 900101-1234567",
			opts:     pii.GovernOptions{Regions: []string{"kr"}},
			wantType: pii.TypeKRRRN,
			wantText: "RRN [RRN_REDACTED]",
		},
		{
			name:     "iban",
			text:     "IBAN DE89 3704 0044 0532 0130 00",
			opts:     pii.GovernOptions{Industry: "finance"},
			wantType: pii.TypeIBAN,
			wantText: "IBAN [IBAN_REDACTED]",
		},
		{
			name:     "routing number",
			text:     "routing 021000021",
			opts:     pii.GovernOptions{Industry: "finance"},
			wantType: pii.TypeRoutingNumber,
			wantText: "routing [ROUTING_REDACTED]",
		},
		{
			name:     "npi",
			text:     "Provider NPI 1234567893",
			opts:     pii.GovernOptions{Industry: "healthcare"},
			wantType: pii.TypeNPI,
			wantText: "Provider NPI [NPI_REDACTED]",
		},
		{
			name:     "medical record number keeps label",
			text:     "MRN: 12345678",
			opts:     pii.GovernOptions{Industry: "healthcare"},
			wantType: pii.TypeMedicalRecordNumber,
			wantText: "MRN: [MRN_REDACTED]",
		},
		{
			name:     "icd code with context",
			text:     "Diagnosis: E11.9",
			opts:     pii.GovernOptions{Industry: "healthcare"},
			wantType: pii.TypeICDCode,
			wantText: "Diagnosis: [ICD_REDACTED]",
		},
		{
			name:     "federal case number",
			text:     "Filed as 1:23-cv-04567 today",
			opts:     pii.GovernOptions{Industry: "legal"},
			wantType: pii.TypeCaseNumber,
			wantText: "Filed as [CASE_NUMBER_REDACTED] today",
		},
		{
			name:     "bar number",
			text:     "State Bar No. 123456",
			opts:     pii.GovernOptions{Industry: "legal"},
			wantType: pii.TypeBarNumber,
			wantText: "State Bar No. [BAR_NUMBER_REDACTED]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(tt.text, registry.Active(tt.opts))
			if err != nil {
				t.Fatalf("Detect() error = %v", err)
			}
			if !reflect.DeepEqual(got.Types, []pii.PIIType{tt.wantType}) {
				t.Errorf("Detect() Types = %v, want [%v]", got.Types, tt.wantType)
			}
			if got.RedactedText != tt.wantText {
				t.Errorf("Detect() RedactedText = %q, want %q", got.RedactedText, tt.wantText)
			}
		})
	}
}

func TestDetect_PackNotActive(t *testing.T) {
	got, err := Detect("ITIN 912-70-1234", registry.Active(pii.GovernOptions{}))
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if !reflect.DeepEqual(got.Types, []pii.PIIType{pii.TypeSSN}) {
		t.Errorf("Detect() without us pack Types = %v, want [ssn]", got.Types)
	}
}

func TestDetect_MultipleMatches(t *testing.T) {
	text := "SSN: 123-45-6789, Email: test@test.com"
	got, err := Detect(text, registry.Active(pii.GovernOptions{}))
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if got.Count != 2 {
		t.Fatalf("Detect() Count = %d, want 2", got.Count)
	}
	want := []pii.PIIType{pii.TypeSSN, pii.TypeEmail}
	if !reflect.DeepEqual(got.Types, want) {
		t.Errorf("Detect() Types = %v, want %v", got.Types, want)
	}
	if got.Matches[0].Value != "123-45-6789" || got.Matches[1].Value != "test@test.com" {
		t.Errorf("Detect() Matches = %+v", got.Matches)
	}
	if got.RedactedText != "SSN: [SSN_REDACTED], Email: [EMAIL_REDACTED]" {
		t.Errorf("Detect() RedactedText = %q", got.RedactedText)
	}
}

func TestDetect_NoPII(t *testing.T) {
	inputs := []string{
		"",
		"Hello world",
		strings.Repeat("A", 100000),
		"Line one\nLine two\tTabbed",
		"こんにちは世界 🌍",
	}

	active := registry.Active(pii.GovernOptions{Regions: pii.SupportedRegions, Industry: "finance"})
	for _, text := range inputs {
		got, err := Detect(text, active)
		if err != nil {
			t.Fatalf("Detect() error = %v", err)
		}
		if got.HasPII {
			t.Errorf("Detect(%.20q) HasPII = true, matches %+v", text, got.Matches)
		}
		if got.RedactedText != text {
			t.Errorf("Detect(%.20q) changed text without PII", text)
		}
		if got.Types == nil || len(got.Types) != 0 {
			t.Errorf("Detect() Types = %v, want empty non-nil", got.Types)
		}
	}
}

func TestDetect_Unicode(t *testing.T) {
	text := "名前: john@example.com 电话"
	got, err := Detect(text, registry.Active(pii.GovernOptions{}))
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if got.RedactedText != "名前: [EMAIL_REDACTED] 电话" {
		t.Errorf("Detect() RedactedText = %q", got.RedactedText)
	}
	m := got.Matches[0]
	if text[m.Start:m.End] != "john@example.com" {
		t.Errorf("match offsets %d:%d select %q", m.Start, m.End, text[m.Start:m.End])
	}
}

func TestDetect_InvalidEncoding(t *testing.T) {
	_, err := Detect("abc\xffdef", registry.Active(pii.GovernOptions{}))
	if !errors.Is(err, pii.ErrInvalidEncoding) {
		t.Fatalf("Detect() error = %v, want ErrInvalidEncoding", err)
	}
	var encErr *pii.InputEncodingError
	if !errors.As(err, &encErr) {
		t.Fatalf("error is not *InputEncodingError: %T", err)
	}
	if encErr.Offset != 3 {
		t.Errorf("Offset = %d, want 3", encErr.Offset)
	}
	if errors.Is(err, pii.ErrConfiguration) {
		t.Error("encoding error must not match ErrConfiguration")
	}
}

func TestResolve(t *testing.T) {
	span := func(start, end, prio int, typ pii.PIIType) pii.Span {
		return pii.Span{Start: start, End: end, Priority: prio, Type: typ}
	}

	tests := []struct {
		name       string
		candidates []pii.Span
		want       []pii.Span
	}{
		{
			name: "empty",
		},
		{
			name:       "higher priority beats longer span",
			candidates: []pii.Span{span(0, 10, 1000, pii.TypeBankAccount), span(2, 5, 2000, pii.TypeEmiratesID)},
			want:       []pii.Span{span(2, 5, 2000, pii.TypeEmiratesID)},
		},
		{
			name:       "industry beats region",
			candidates: []pii.Span{span(0, 10, 2900, pii.TypeSANationalID), span(0, 10, 3900, pii.TypeNPI)},
			want:       []pii.Span{span(0, 10, 3900, pii.TypeNPI)},
		},
		{
			name:       "longer span wins priority tie",
			candidates: []pii.Span{span(0, 5, 1000, pii.TypeSSN), span(3, 12, 1000, pii.TypePhone)},
			want:       []pii.Span{span(3, 12, 1000, pii.TypePhone)},
		},
		{
			name:       "earlier start wins length tie",
			candidates: []pii.Span{span(3, 8, 1000, pii.TypePhone), span(0, 5, 1000, pii.TypeSSN)},
			want:       []pii.Span{span(0, 5, 1000, pii.TypeSSN)},
		},
		{
			name:       "input order breaks full tie",
			candidates: []pii.Span{span(0, 5, 1000, pii.TypePassport), span(0, 5, 1000, pii.TypeDriversLicense)},
			want:       []pii.Span{span(0, 5, 1000, pii.TypePassport)},
		},
		{
			name:       "disjoint spans sorted by start",
			candidates: []pii.Span{span(20, 25, 1000, pii.TypeEmail), span(0, 5, 1100, pii.TypeSSN), span(10, 15, 1050, pii.TypePhone)},
			want:       []pii.Span{span(0, 5, 1100, pii.TypeSSN), span(10, 15, 1050, pii.TypePhone), span(20, 25, 1000, pii.TypeEmail)},
		},
		{
			name:       "adjacent spans both kept",
			candidates: []pii.Span{span(3, 6, 1000, pii.TypeEmail), span(0, 3, 1000, pii.TypeSSN)},
			want:       []pii.Span{span(0, 3, 1000, pii.TypeSSN), span(3, 6, 1000, pii.TypeEmail)},
		},
		{
			name: "chain resolves around the winner",
			candidates: []pii.Span{
				span(0, 5, 1000, pii.TypeSSN),
				span(4, 9, 2000, pii.TypeIBAN),
				span(8, 12, 1000, pii.TypeEmail),
				span(12, 14, 1000, pii.TypePhone),
			},
			want: []pii.Span{span(4, 9, 2000, pii.TypeIBAN), span(12, 14, 1000, pii.TypePhone)},
		},
		{
			name:       "degenerate spans dropped",
			candidates: []pii.Span{span(4, 4, 3000, pii.TypeSSN), span(-1, 2, 3000, pii.TypeSSN), span(0, 3, 1000, pii.TypeEmail)},
			want:       []pii.Span{span(0, 3, 1000, pii.TypeEmail)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.candidates)
			if len(got) != len(tt.want) {
				t.Fatalf("Resolve() = %+v, want %+v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Resolve()[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestResolve_DoesNotMutateInput(t *testing.T) {
	in := []pii.Span{
		{Start: 5, End: 9, Priority: 1000, Type: pii.TypeSSN},
		{Start: 0, End: 3, Priority: 2000, Type: pii.TypeEmail},
	}
	orig := append([]pii.Span(nil), in...)
	Resolve(in)
	if !reflect.DeepEqual(in, orig) {
		t.Errorf("Resolve() mutated its input: %+v", in)
	}
}

func TestRedact(t *testing.T) {
	text := "a 123-45-6789 b x@y.io"
	spans := []pii.Span{
		{Start: 2, End: 13, Type: pii.TypeSSN},
		{Start: 16, End: 22, Type: pii.TypeEmail},
	}

	got := Redact(text, spans)
	if got.Text != "a [SSN_REDACTED] b [EMAIL_REDACTED]" {
		t.Errorf("Redact() Text = %q", got.Text)
	}
	if !got.HasPII {
		t.Error("Redact() HasPII = false, want true")
	}
	if !reflect.DeepEqual(got.Types, []pii.PIIType{pii.TypeSSN, pii.TypeEmail}) {
		t.Errorf("Redact() Types = %v", got.Types)
	}
}

func TestRedact_DeduplicatesTypes(t *testing.T) {
	text := "a@b.io c@d.io"
	spans := []pii.Span{
		{Start: 0, End: 6, Type: pii.TypeEmail},
		{Start: 7, End: 13, Type: pii.TypeEmail},
	}
	got := Redact(text, spans)
	if !reflect.DeepEqual(got.Types, []pii.PIIType{pii.TypeEmail}) {
		t.Errorf("Redact() Types = %v, want [email]", got.Types)
	}
	if got.Text != "[EMAIL_REDACTED] [EMAIL_REDACTED]" {
		t.Errorf("Redact() Text = %q", got.Text)
	}
}

func TestCheckEncoding(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantErr    bool
		wantOffset int
	}{
		{"ascii", "hello", false, 0},
		{"multibyte", "héllo 世界", false, 0},
		{"empty", "", false, 0},
		{"leading invalid byte", "\x80abc", true, 0},
		{"truncated rune", "ab\xe4\xb8", true, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckEncoding(tt.text)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckEncoding() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			var encErr *pii.InputEncodingError
			if !errors.As(err, &encErr) || encErr.Offset != tt.wantOffset {
				t.Errorf("CheckEncoding() = %v, want offset %d", err, tt.wantOffset)
			}
		})
	}
}
