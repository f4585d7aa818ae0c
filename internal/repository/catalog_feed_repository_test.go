package repository

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = `[
  {"courseCode":"CSE110","sectionName":"01","faculties":"ABC","capacity":30,"consumedSeat":12,
   "preRegSchedule":"Sunday(08:00 AM-09:20 AM-09A-06C)\nTuesday(08:00 AM-09:20 AM-09A-06C)","preRegLabSchedule":null},
  {"courseCode":"MAT110","sectionName":"02","faculties":"XYZ","capacity":40,"consumedSeat":40,
   "preRegSchedule":"Monday(11:00 AM-12:20 PM-07A-01C)","preRegLabSchedule":""}
]`

func TestDecodeCatalogFeed(t *testing.T) {
	feed, err := DecodeCatalogFeed([]byte(sampleFeed))
	require.NoError(t, err)
	require.Len(t, feed.Records, 2)
	assert.Equal(t, "CSE110", feed.Records[0].CourseCode)
	assert.Equal(t, "", feed.Records[0].PreRegLabSchedule)
	assert.Equal(t, 40, feed.Records[1].ConsumedSeat)
	assert.Len(t, feed.Checksum, 40)

	again, err := DecodeCatalogFeed([]byte(sampleFeed))
	require.NoError(t, err)
	assert.Equal(t, feed.Checksum, again.Checksum)
}

func TestDecodeCatalogFeedRejectsObject(t *testing.T) {
	_, err := DecodeCatalogFeed([]byte(`{"courseCode":"CSE110"}`))
	assert.Error(t, err)
}

func TestCatalogFeedRepositoryFetchHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer server.Close()

	repo := NewCatalogFeedRepository(server.URL, time.Second, nil)
	feed, err := repo.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, server.URL, feed.Source)
	assert.Len(t, feed.Records, 2)
}

func TestCatalogFeedRepositoryFetchHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	repo := NewCatalogFeedRepository(server.URL, time.Second, nil)
	_, err := repo.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestCatalogFeedRepositoryFetchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "connect.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleFeed), 0o600))

	repo := NewCatalogFeedRepository(path, 0, nil)
	feed, err := repo.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, feed.Records, 2)
	assert.Equal(t, path, repo.Source())
}

func TestCatalogFeedRepositoryFetchUnconfigured(t *testing.T) {
	_, err := NewCatalogFeedRepository(" ", 0, nil).Fetch(context.Background())
	assert.Error(t, err)
}
