package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplyForwardsPrompt(t *testing.T) {
	var got inferenceRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key-123", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`[{"generated_text":"Save 20% of your income."}]`))
	}))
	defer srv.Close()

	reply, err := NewRelay(srv.URL, "key-123", time.Second).Reply(context.Background(), "How much should I save?")
	require.NoError(t, err)
	assert.Equal(t, "Save 20% of your income.", reply)
	assert.Equal(t, "<s>[INST] How much should I save? [/INST]", got.Inputs)
}

func TestReplyFallbacksAndErrors(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		reply   string
		upErr   string
		wantErr bool
	}{
		{name: "empty list", body: `[]`, reply: "No response"},
		{name: "missing text", body: `[{}]`, reply: "No response"},
		{name: "upstream error", body: `{"error":"Model is loading"}`, upErr: "Model is loading"},
		{name: "garbage", body: `<html>`, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			reply, err := NewRelay(srv.URL, "", time.Second).Reply(context.Background(), "hi")
			switch {
			case tc.upErr != "":
				var up *UpstreamError
				require.True(t, errors.As(err, &up))
				assert.Equal(t, tc.upErr, up.Message)
			case tc.wantErr:
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, tc.reply, reply)
			}
		})
	}
}

func TestReplyRejectsEmptyMessage(t *testing.T) {
	_, err := NewRelay("http://unused", "", time.Second).Reply(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}
