package translate

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleImage = base64.StdEncoding.EncodeToString([]byte("\xff\xd8\xff\xe0 fake jpeg bytes"))

func TestNormalizeImage(t *testing.T) {
	got, err := NormalizeImage(sampleImage)
	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,"+sampleImage, got)

	png := "data:image/png;base64," + sampleImage
	got, err = NormalizeImage(png)
	require.NoError(t, err)
	assert.Equal(t, png, got)

	for _, bad := range []string{"", "   ", "not base64!!", "data:text/plain;base64," + sampleImage, "data:image/png," + sampleImage, "data:image/png;base64"} {
		_, err := NormalizeImage(bad)
		assert.ErrorIs(t, err, ErrInvalidImage, bad)
	}

	big := base64.StdEncoding.EncodeToString(make([]byte, MaxImageBytes+1))
	_, err = NormalizeImage(big)
	assert.ErrorIs(t, err, ErrImageTooLarge)

	exact := base64.StdEncoding.EncodeToString(make([]byte, MaxImageBytes))
	_, err = NormalizeImage(exact)
	assert.NoError(t, err)
}

func TestTranslateImage_Success(t *testing.T) {
	var received map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/translate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","predicted_sign":"A","confidence":0.93}`))
	}))
	defer srv.Close()

	pred, err := NewClient(srv.URL+"/", time.Second).TranslateImage(context.Background(), sampleImage)
	require.NoError(t, err)
	assert.Equal(t, "success", pred.Status)
	require.NotNil(t, pred.PredictedSign)
	assert.Equal(t, "A", *pred.PredictedSign)
	assert.InDelta(t, 0.93, pred.Confidence, 1e-9)
	assert.True(t, strings.HasPrefix(received["image"], "data:image/jpeg;base64,"))
}

func TestTranslateRealtime_NoHand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/translate/realtime", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"no_hand","message":"No hand detected","predicted_sign":null,"confidence":0}`))
	}))
	defer srv.Close()

	pred, err := NewClient(srv.URL, time.Second).TranslateRealtime(context.Background(), sampleImage)
	require.NoError(t, err)
	assert.Equal(t, "no_hand", pred.Status)
	assert.Nil(t, pred.PredictedSign)
	assert.Equal(t, "No hand detected", pred.Message)
}

func TestTranslate_UpstreamRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":"error","error":"Failed to decode base64 image"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).TranslateImage(context.Background(), sampleImage)
	var rejected *RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, "Failed to decode base64 image", rejected.Error())
	assert.Equal(t, "error", rejected.Prediction.Status)
}

func TestTranslate_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status":"error","error":"boom"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).TranslateImage(context.Background(), sampleImage)
	assert.ErrorIs(t, err, ErrUnavailable)

	srv.Close()
	_, err = NewClient(srv.URL, time.Second).TranslateImage(context.Background(), sampleImage)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestTranslate_InvalidImageNeverCallsUpstream(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).TranslateImage(context.Background(), "%%%")
	assert.ErrorIs(t, err, ErrInvalidImage)
	assert.False(t, called)
}

func TestModelInfoAndHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/model/info":
			_, _ = w.Write([]byte(`{"status":"success","model_info":{"type":"RandomForest"}}`))
		case "/api/health":
			_, _ = w.Write([]byte(`{"status":"healthy"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	info, err := c.ModelInfo(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"success","model_info":{"type":"RandomForest"}}`, string(info))
	assert.NoError(t, c.Health(context.Background()))
}
