package aiclient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", "", 2*time.Second, zap.NewNop())
}

func TestFetchPatients(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/patients", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"patients":[{"_id":"p1","ai_response":{"graphs":[{"graph_name":"Weight","graph_type":"line","graph_data":[{"weight_lb":180}]}]}}]}`))
	})

	coll, err := c.FetchPatients(context.Background())

	require.NoError(t, err)
	require.Len(t, coll.Patients, 1)
	assert.Equal(t, "p1", coll.Patients[0].ID)
	assert.Equal(t, 1, coll.Patients[0].AIResponse.Graphs[0].Data.Len())
}

func TestFetchPatientsErrors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		})
		_, err := c.FetchPatients(context.Background())
		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, http.StatusInternalServerError, se.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>`))
		})
		_, err := c.FetchPatients(context.Background())
		assert.Error(t, err)
	})

	t.Run("cancelled", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("request should not be sent")
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c.FetchPatients(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			<-release
		})
		defer close(release)
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := c.FetchPatients(ctx)
		assert.Error(t, err)
	})
}

func TestUploadDocument(t *testing.T) {
	pdf := []byte("%PDF-1.4 test")
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/upload", r.URL.Path)
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")

		var req uploadRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "labs.pdf", req.Filename)
		decoded, err := base64.StdEncoding.DecodeString(req.FileData)
		assert.NoError(t, err)
		assert.Equal(t, pdf, decoded)

		w.Write([]byte(`{"message":"processed","document_id":"p9"}`))
	})

	ack, err := c.UploadDocument(context.Background(), "labs.pdf", pdf)

	require.NoError(t, err)
	assert.Equal(t, "processed", ack.Message)
	assert.Equal(t, "p9", ack.DocumentID)
}

func TestUploadDocumentPlainTextAck(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok\n"))
	})

	ack, err := c.UploadDocument(context.Background(), "a.pdf", []byte("x"))

	require.NoError(t, err)
	assert.Equal(t, "ok", ack.Message)
}

func TestUploadDocumentFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "ingest error", http.StatusBadGateway)
	})

	_, err := c.UploadDocument(context.Background(), "a.pdf", []byte("x"))

	assert.ErrorIs(t, err, ErrUploadFailed)
	var se *StatusError
	assert.True(t, errors.As(err, &se))
}

func TestUploadDocumentUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := New(srv.URL, "", time.Second, zap.NewNop())

	_, err := c.UploadDocument(context.Background(), "a.pdf", []byte("x"))

	assert.ErrorIs(t, err, ErrUploadFailed)
}

func TestChat(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/", r.URL.Path)
		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "p1", req.DocumentID)
		assert.Equal(t, "latest A1c?", req.Query)
		w.Write([]byte(`{"answer":"7.1% on 2022-03-01"}`))
	})

	answer, err := c.Chat(context.Background(), "p1", "latest A1c?")

	require.NoError(t, err)
	assert.Equal(t, "7.1% on 2022-03-01", answer)
}

func TestChatEmptyAnswer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"answer":""}`))
	})

	answer, err := c.Chat(context.Background(), "p1", "?")

	require.NoError(t, err)
	assert.Equal(t, FallbackAnswer, answer)
}

func TestChatCustomURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/assistant", r.URL.Path)
		w.Write([]byte(`{"answer":"hi"}`))
	}))
	defer srv.Close()
	c := New("http://unused.invalid", srv.URL+"/assistant", time.Second, zap.NewNop())

	answer, err := c.Chat(context.Background(), "p1", "hello")

	require.NoError(t, err)
	assert.Equal(t, "hi", answer)
}
