package core

import "testing"

func TestValidPhone(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"5551234567", true},
		{"(555) 123-4567", true},
		{"+1 555 123 4567", true},
		{"+449998887776665", true}, // 15 digits
		{"123456789", false},       // 9 digits
		{"1234567890123456", false},
		{"", false},
		{"not a phone", false},
	}
	for _, tc := range cases {
		if got := ValidPhone(tc.in); got != tc.ok {
			t.Fatalf("ValidPhone(%q) = %v, want %v", tc.in, got, tc.ok)
		}
	}
}

func TestWhatsAppAddress(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"5551234567", "whatsapp:+15551234567"}, // bare US number
		{"(555) 123-4567", "whatsapp:+15551234567"},
		{"+39 333 123 4567", "whatsapp:+393331234567"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := WhatsAppAddress(tc.in); got != tc.want {
			t.Fatalf("WhatsAppAddress(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
