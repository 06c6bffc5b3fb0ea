// internal/app/system/ratelimit/ratelimit_test.go
package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_AllowUpToLimit(t *testing.T) {
	l := New(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !l.Allow("key") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("key") {
		t.Fatal("request over the limit should be blocked")
	}
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	l := New(1, time.Minute)

	if !l.Allow("a") {
		t.Fatal("first request for a should be allowed")
	}
	if !l.Allow("b") {
		t.Fatal("first request for b should be allowed")
	}
	if l.Allow("a") {
		t.Fatal("second request for a should be blocked")
	}
}

func TestLimiter_WindowExpires(t *testing.T) {
	l := New(1, 10*time.Millisecond)

	if !l.Allow("key") {
		t.Fatal("first request should be allowed")
	}
	if l.Allow("key") {
		t.Fatal("second request should be blocked")
	}

	time.Sleep(20 * time.Millisecond)

	if !l.Allow("key") {
		t.Fatal("request after window expiry should be allowed")
	}
}

func TestLimiter_Remaining(t *testing.T) {
	l := New(3, time.Minute)

	if got := l.Remaining("key"); got != 3 {
		t.Fatalf("Remaining before any requests = %d, want 3", got)
	}
	l.Allow("key")
	l.Allow("key")
	if got := l.Remaining("key"); got != 1 {
		t.Fatalf("Remaining after two requests = %d, want 1", got)
	}
}

func TestLimiter_Reset(t *testing.T) {
	l := New(1, time.Minute)

	l.Allow("key")
	if l.Allow("key") {
		t.Fatal("second request should be blocked")
	}
	l.Reset("key")
	if !l.Allow("key") {
		t.Fatal("request after reset should be allowed")
	}
}

func TestAuthLimiter_BlocksIdentityAcrossIPs(t *testing.T) {
	al := NewAuthLimiterWithConfig(1000, time.Minute, 2, time.Minute)

	for i := 0; i < 2; i++ {
		r := httptest.NewRequest("POST", "/register", nil)
		r.RemoteAddr = "203.0.113.10:1000"
		if ok, _ := al.Check(r, "google-123"); !ok {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}

	// Same identity from a different address is still blocked.
	r := httptest.NewRequest("POST", "/register", nil)
	r.RemoteAddr = "198.51.100.7:2000"
	ok, reason := al.Check(r, "google-123")
	if ok {
		t.Fatal("third attempt for the identity should be blocked")
	}
	if reason == "" {
		t.Fatal("blocked attempt should include a reason")
	}
}

func TestAuthLimiter_ResetIdentity(t *testing.T) {
	al := NewAuthLimiterWithConfig(1000, time.Minute, 1, time.Minute)

	r := httptest.NewRequest("POST", "/register", nil)
	if ok, _ := al.Check(r, "Google-123"); !ok {
		t.Fatal("first attempt should be allowed")
	}
	if ok, _ := al.Check(r, "google-123"); ok {
		t.Fatal("second attempt should be blocked, identity keys are case-folded")
	}

	al.ResetIdentity("google-123")
	if ok, _ := al.Check(r, "google-123"); !ok {
		t.Fatal("attempt after reset should be allowed")
	}
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		name       string
		xff        string
		realIP     string
		remoteAddr string
		want       string
	}{
		{"forwarded for wins", "203.0.113.5, 10.0.0.1", "", "10.0.0.2:80", "203.0.113.5"},
		{"real ip next", "", "203.0.113.6", "10.0.0.2:80", "203.0.113.6"},
		{"remote addr strips port", "", "", "203.0.113.7:443", "203.0.113.7"},
		{"remote addr without port", "", "", "203.0.113.8", "203.0.113.8"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tc.xff != "" {
				r.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.realIP != "" {
				r.Header.Set("X-Real-IP", tc.realIP)
			}
			r.RemoteAddr = tc.remoteAddr

			if got := ClientIP(r); got != tc.want {
				t.Errorf("ClientIP = %q, want %q", got, tc.want)
			}
		})
	}
}
