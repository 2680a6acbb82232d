package directory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glucosense/glucosense-go/internal/errors"
)

const profileJSON = `{
	"id": "user-1",
	"email": "maria@example.com",
	"firstName": "Maria",
	"lastName": "Santos",
	"phoneNumber": "+15550001111",
	"alertSettings": {
		"criticalHigh": 250,
		"criticalLow": 54,
		"enableSMS": true,
		"enableCall": true,
		"quietHours": {"enabled": true, "start": "22:00", "end": "06:00"}
	},
	"guardians": [
		{"name": "Ana", "relationship": "sister", "phone": "+15550002222", "notifyOnAlert": true, "priority": 1}
	]
}`

func TestHTTPDirectory_Lookup(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/internal/users/user-1", r.URL.Path)
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(profileJSON))
	}))
	t.Cleanup(server.Close)

	dir := NewHTTPDirectory(server.URL, "token-1", time.Second)
	profile, err := dir.Lookup(t.Context(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, "Maria", profile.FirstName)
	assert.Equal(t, "+15550001111", profile.PhoneNumber)
	assert.Equal(t, 250.0, profile.Settings.CriticalHigh)
	assert.True(t, profile.Settings.EnableCall)
	assert.True(t, profile.Settings.QuietHours.Enabled)
	assert.Equal(t, "22:00", profile.Settings.QuietHours.Start)
	require.Len(t, profile.Guardians, 1)
	assert.Equal(t, "Ana", profile.Guardians[0].Name)
	assert.True(t, profile.Guardians[0].NotifyOnAlert)
}

func TestHTTPDirectory_NotFound(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	dir := NewHTTPDirectory(server.URL, "", time.Second)
	_, err := dir.Lookup(t.Context(), "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Equal(t, errors.CategoryNotFound, errors.GetCategory(err))
}

func TestHTTPDirectory_ServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	t.Cleanup(server.Close)

	dir := NewHTTPDirectory(server.URL, "", time.Second)
	_, err := dir.Lookup(t.Context(), "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

// countingDirectory counts lookups to the inner directory.
type countingDirectory struct {
	calls   atomic.Int64
	profile *Profile
	err     error
}

func (d *countingDirectory) Lookup(_ context.Context, _ string) (*Profile, error) {
	d.calls.Add(1)
	if d.err != nil {
		return nil, d.err
	}
	return d.profile, nil
}

func TestCachedDirectory_CachesHits(t *testing.T) {
	t.Parallel()

	inner := &countingDirectory{profile: &Profile{ID: "user-1", FirstName: "Maria"}}
	dir := NewCachedDirectory(inner, time.Minute)

	for range 3 {
		profile, err := dir.Lookup(t.Context(), "user-1")
		require.NoError(t, err)
		assert.Equal(t, "Maria", profile.FirstName)
	}
	assert.Equal(t, int64(1), inner.calls.Load())
}

func TestCachedDirectory_NeverCachesFailures(t *testing.T) {
	t.Parallel()

	inner := &countingDirectory{err: errors.New("backend down")}
	dir := NewCachedDirectory(inner, time.Minute)

	for range 3 {
		_, err := dir.Lookup(t.Context(), "user-1")
		require.Error(t, err)
	}
	assert.Equal(t, int64(3), inner.calls.Load())
}

func TestCachedDirectory_Invalidate(t *testing.T) {
	t.Parallel()

	inner := &countingDirectory{profile: &Profile{ID: "user-1"}}
	dir := NewCachedDirectory(inner, time.Minute)

	_, err := dir.Lookup(t.Context(), "user-1")
	require.NoError(t, err)
	dir.Invalidate("user-1")
	_, err = dir.Lookup(t.Context(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, int64(2), inner.calls.Load())
}
