package dynamix

import (
	"strings"
	"testing"
)

func TestClientRootIsEmptyChain(t *testing.T) {
	client := New("http://example.com")

	root := client.Root()
	if root.Len() != 0 {
		t.Errorf("Len() = %d", root.Len())
	}
	if got, err := root.Render(); err != nil || got != "" {
		t.Errorf("Render() = %q, %v", got, err)
	}
}

func TestClientChildConvenience(t *testing.T) {
	client := New("http://example.com")

	if got, _ := client.Child("a", "b", "c").Render(); got != "a/b/c" {
		t.Errorf("Render() = %q", got)
	}
}

func TestClientCorrelationIDDefault(t *testing.T) {
	client := New("http://example.com")

	a := client.correlationID()
	b := client.correlationID()
	if a == "" || b == "" {
		t.Fatal("empty correlation id")
	}
	if a == b {
		t.Error("correlation ids not unique")
	}
}

func TestClientCorrelationIDGenerator(t *testing.T) {
	client := New("http://example.com", WithCorrelationIDGenerator(func() string { return "cid-x" }))

	if got := client.correlationID(); got != "cid-x" {
		t.Errorf("correlationID() = %q", got)
	}
}

func TestClientBaseURL(t *testing.T) {
	client := New("http://example.com/api")
	if client.BaseURL() != "http://example.com/api" {
		t.Errorf("BaseURL() = %q", client.BaseURL())
	}
}

func TestClientSharedAcrossChains(t *testing.T) {
	client := New("http://example.com", WithSegmentFormat(FormatKebab))

	a := client.Child("user_profiles")
	b := client.Child("audit_log")
	if gotA, _ := a.Render(); gotA != "user-profiles" {
		t.Errorf("a = %q", gotA)
	}
	if gotB, _ := b.Render(); gotB != "audit-log" {
		t.Errorf("b = %q", gotB)
	}
}

func TestGetVersion(t *testing.T) {
	v := GetVersion()
	if !strings.Contains(v, Version) {
		t.Errorf("GetVersion() = %q", v)
	}

	info := GetVersionInfo()
	for _, key := range []string{"version", "commit", "build_date", "go_version"} {
		if info[key] == "" {
			t.Errorf("missing %q in version info", key)
		}
	}
}
