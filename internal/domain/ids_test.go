package domain

import "testing"

func TestNewOrganizationIDIsDeterministic(t *testing.T) {
	if NewOrganizationID("Acme") != NewOrganizationID("Acme") {
		t.Fatal("same name produced different ids")
	}
	if NewOrganizationID("Acme") == NewOrganizationID("Globex") {
		t.Fatal("different names produced the same id")
	}
}

func TestNewPlatformAccountIDScopedToOrganization(t *testing.T) {
	acme := NewOrganizationID("Acme")
	globex := NewOrganizationID("Globex")
	if NewPlatformAccountID("bot", acme) != NewPlatformAccountID("bot", acme) {
		t.Fatal("same name and organization produced different ids")
	}
	if NewPlatformAccountID("bot", acme) == NewPlatformAccountID("bot", globex) {
		t.Fatal("same name in different organizations produced the same id")
	}
}

func TestParseOrganizationIDRoundTrip(t *testing.T) {
	id := OrganizationID(^uint64(0))
	got, err := ParseOrganizationID(id.String())
	if err != nil {
		t.Fatal(err)
	}
	if got != id {
		t.Fatalf("got %v want %v", got, id)
	}
	if _, err := ParseOrganizationID("-1"); err == nil {
		t.Fatal("expected error for negative id")
	}
}
