package webhooks

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"testing"
	"time"
)

var testSecret = "whsec_" + base64.StdEncoding.EncodeToString([]byte("threadhub-webhook-test-secret"))

func TestNewSigner(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		wantErr bool
	}{
		{"with prefix", testSecret, false},
		{"without prefix", base64.StdEncoding.EncodeToString([]byte("k")), false},
		{"empty", "", true},
		{"not base64", "whsec_%%%", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSigner(tt.secret)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSigner_Verify(t *testing.T) {
	s, err := NewSigner(testSecret)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	now := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return now }

	body := []byte(`{"type":"organization.created","data":{}}`)
	good := s.Sign("msg_1", now, body)

	headers := func(id string, ts time.Time, sig string) http.Header {
		h := http.Header{}
		if id != "" {
			h.Set("svix-id", id)
		}
		h.Set("svix-timestamp", strconv.FormatInt(ts.Unix(), 10))
		if sig != "" {
			h.Set("svix-signature", sig)
		}
		return h
	}

	tests := []struct {
		name string
		h    http.Header
		body []byte
		want error
	}{
		{"valid", headers("msg_1", now, good), body, nil},
		{"valid among candidates", headers("msg_1", now, "v1,bm9wZQ== "+good), body, nil},
		{"slightly early clock", headers("msg_1", now.Add(-4*time.Minute), s.Sign("msg_1", now.Add(-4*time.Minute), body)), body, nil},
		{"tampered body", headers("msg_1", now, good), []byte(`{"type":"organization.deleted"}`), ErrNoMatchingSig},
		{"other id", headers("msg_2", now, good), body, ErrNoMatchingSig},
		{"wrong version", headers("msg_1", now, "v2,"+good[3:]), body, ErrNoMatchingSig},
		{"stale", headers("msg_1", now.Add(-6*time.Minute), s.Sign("msg_1", now.Add(-6*time.Minute), body)), body, ErrBadTimestamp},
		{"future", headers("msg_1", now.Add(6*time.Minute), s.Sign("msg_1", now.Add(6*time.Minute), body)), body, ErrBadTimestamp},
		{"missing id", headers("", now, good), body, ErrMissingHeaders},
		{"missing signature", headers("msg_1", now, ""), body, ErrMissingHeaders},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Verify(tt.h, tt.body)
			if !errors.Is(err, tt.want) {
				t.Errorf("Verify = %v, want %v", err, tt.want)
			}
		})
	}
}
