package sdkkey

import "testing"

func TestParse_BareKey(t *testing.T) {
	p, err := Parse("vf_abc123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Key != "vf_abc123" || len(p.Options) != 0 {
		t.Fatalf("got %+v", p)
	}
}

func TestParse_ConnectionString(t *testing.T) {
	p, err := Parse("flags:baseUrl=https%3A%2F%2Fexample.com&sdkKey=vf_xyz")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Key != "vf_xyz" {
		t.Fatalf("got key %q, want vf_xyz", p.Key)
	}
	if p.Options["baseUrl"] != "https://example.com" {
		t.Fatalf("got options %+v", p.Options)
	}
}

func TestParse_ConnectionStringMissingKey(t *testing.T) {
	_, err := Parse("flags:baseUrl=https%3A%2F%2Fexample.com")
	if err != ErrMissingSDKKey {
		t.Fatalf("got %v, want ErrMissingSDKKey", err)
	}
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse("")
	if err != ErrMissingSDKKey {
		t.Fatalf("got %v, want ErrMissingSDKKey", err)
	}
}

func TestParse_RejectsKeyWithoutVfPrefix(t *testing.T) {
	_, err := Parse("not-a-valid-key")
	if err != ErrMissingSDKKey {
		t.Fatalf("got %v, want ErrMissingSDKKey for a key missing the vf_ prefix", err)
	}
}

func TestParse_ConnectionStringRejectsKeyWithoutVfPrefix(t *testing.T) {
	_, err := Parse("flags:sdkKey=bogus")
	if err != ErrMissingSDKKey {
		t.Fatalf("got %v, want ErrMissingSDKKey for a connection-string key missing the vf_ prefix", err)
	}
}
