package emu

import "testing"

func TestDecodeGenieCode(t *testing.T) {
	cases := []struct {
		name    string
		code    string
		want    GeniePatch
		wantErr bool
	}{
		{"round trip of a zero patch", "AAAA-AAAA", GeniePatch{Address: 0, Value: 0}, false},
		{"hyphen optional", "AAAAAAAA", GeniePatch{Address: 0, Value: 0}, false},
		{"lowercase accepted", "aaaa-aaaa", GeniePatch{Address: 0, Value: 0}, false},
		{"wrong length", "AAAA-AAA", GeniePatch{}, true},
		{"invalid character", "AAAA-AAAI", GeniePatch{}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeGenieCode(tc.code)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got patch %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestGenieCode_RoundTrip(t *testing.T) {
	patches := []GeniePatch{
		{Address: 0, Value: 0},
		{Address: 0xFFFFFF, Value: 0xFFFF},
		{Address: 0x001234, Value: 0x00FF},
	}
	for _, p := range patches {
		code := EncodeGenieCode(p)
		got, err := DecodeGenieCode(code)
		if err != nil {
			t.Fatalf("DecodeGenieCode(%q) failed: %v", code, err)
		}
		if got != p {
			t.Errorf("round trip of %+v via %q produced %+v", p, code, got)
		}
	}
}

func TestEncodeGenieCode_Format(t *testing.T) {
	code := EncodeGenieCode(GeniePatch{Address: 0x001234, Value: 0xABCD})
	if len(code) != 9 || code[4] != '-' {
		t.Errorf("expected 9-character XXXX-XXXX format, got %q", code)
	}
}

func TestGeniePatcher_Apply(t *testing.T) {
	rom := make([]byte, 0x10)
	code := EncodeGenieCode(GeniePatch{Address: 4, Value: 0xBEEF})

	p, err := NewGeniePatcher([]string{code})
	if err != nil {
		t.Fatalf("NewGeniePatcher failed: %v", err)
	}
	p.Apply(rom)

	if rom[4] != 0xBE || rom[5] != 0xEF {
		t.Errorf("expected rom[4:6] = BE EF, got %02X %02X", rom[4], rom[5])
	}
}

func TestGeniePatcher_ApplySkipsOutOfRange(t *testing.T) {
	rom := make([]byte, 4)
	p, err := NewGeniePatcher([]string{EncodeGenieCode(GeniePatch{Address: 100, Value: 0x1234})})
	if err != nil {
		t.Fatalf("NewGeniePatcher failed: %v", err)
	}
	p.Apply(rom) // must not panic on an out-of-range address
}

func TestNewGeniePatcher_InvalidCode(t *testing.T) {
	_, err := NewGeniePatcher([]string{"AAAA-AAAA", "NOT-VALID"})
	if err == nil {
		t.Error("expected an error for an invalid code in the list")
	}
}

func TestGeniePatcher_Patches(t *testing.T) {
	p, err := NewGeniePatcher([]string{"AAAA-AAAA", "AAAA-AAAB"})
	if err != nil {
		t.Fatalf("NewGeniePatcher failed: %v", err)
	}
	if len(p.Patches()) != 2 {
		t.Errorf("expected 2 decoded patches, got %d", len(p.Patches()))
	}
}
