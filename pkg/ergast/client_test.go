//nolint:funlen // ok for tests
package ergast

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitlane-data/pitwall/pkg/model"
)

const resultsPayload = `{
  "MRData": {
    "RaceTable": {
      "Races": [{
        "season": "2025", "round": "5", "raceName": "Miami Grand Prix",
        "Results": [
          {
            "positionText": "1",
            "Driver": {"code": "VER", "givenName": "Max", "familyName": "Verstappen"},
            "Constructor": {"name": "Red Bull"},
            "FastestLap": {"Time": {"time": "1:27.097"}}
          },
          {
            "positionText": "R",
            "Driver": {"code": "ALO", "givenName": "Fernando", "familyName": "Alonso"},
            "Constructor": {"name": "Aston Martin"}
          }
        ]
      }]
    }
  }
}`

const driverStandingsPayload = `{
  "MRData": {
    "StandingsTable": {
      "StandingsLists": [{
        "season": "2025", "round": "5",
        "DriverStandings": [
          {
            "position": "1", "points": "112.5", "wins": "4",
            "Driver": {"code": "VER", "givenName": "Max", "familyName": "Verstappen"},
            "Constructors": [{"name": "Red Bull"}]
          }
        ]
      }]
    }
  }
}`

const emptyStandingsPayload = `{
  "MRData": {"StandingsTable": {"StandingsLists": []}}
}`

const schedulePayload = `{
  "MRData": {
    "RaceTable": {
      "Races": [
        {"season": "2025", "round": "1", "raceName": "Bahrain Grand Prix",
         "date": "2025-03-02", "time": "15:00:00Z"},
        {"season": "2025", "round": "2", "raceName": "Future Grand Prix",
         "date": "2099-12-01"}
      ]
    }
  }
}`

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/2025/5/results.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(resultsPayload))
	})
	mux.HandleFunc("/2025/5/sprint.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"MRData": {"RaceTable": {"Races": []}}}`))
	})
	mux.HandleFunc("/2025/5/driverStandings.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(driverStandingsPayload))
	})
	mux.HandleFunc("/2025/driverStandings.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(emptyStandingsPayload))
	})
	mux.HandleFunc("/2025.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(schedulePayload))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSessionResults(t *testing.T) {
	client := NewClient(WithBaseURL(testServer(t).URL))
	rows, err := client.SessionResults(context.Background(), 2025, 5, model.SessionRace)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "VER", rows[0].CompetitorID)
	assert.Equal(t, "Max Verstappen", rows[0].DriverName)
	assert.Equal(t, "Red Bull", rows[0].TeamName)
	require.NotNil(t, rows[0].Position)
	assert.Equal(t, 1, *rows[0].Position)
	require.NotNil(t, rows[0].FastestLap)
	assert.Equal(t, 87097*time.Millisecond, *rows[0].FastestLap)

	// retired driver: no position, still present
	assert.Nil(t, rows[1].Position)
	assert.Nil(t, rows[1].FastestLap)
}

func TestSessionResultsNoSprint(t *testing.T) {
	client := NewClient(WithBaseURL(testServer(t).URL))
	_, err := client.SessionResults(context.Background(), 2025, 5, model.SessionSprint)
	assert.ErrorIs(t, err, model.ErrNotAvailable)
}

func TestDriverStandings(t *testing.T) {
	client := NewClient(WithBaseURL(testServer(t).URL))
	st, err := client.DriverStandings(context.Background(), 2025, 5)
	require.NoError(t, err)

	assert.Equal(t, 2025, st.Season)
	assert.Equal(t, 5, st.Round)
	assert.Equal(t, "ergast", st.Source)
	require.Len(t, st.Entries, 1)
	assert.Equal(t, "VER", st.Entries[0].CompetitorID)
	assert.Equal(t, "112.5", st.Entries[0].Points.String())
	assert.Equal(t, 4, st.Entries[0].Wins)
	assert.Equal(t, "Red Bull", st.Entries[0].Team)
}

func TestDriverStandingsEmptyListMeansNotAvailable(t *testing.T) {
	client := NewClient(WithBaseURL(testServer(t).URL))
	_, err := client.DriverStandings(context.Background(), 2025, 0)
	assert.ErrorIs(t, err, model.ErrNotAvailable)
}

func TestRoundConcluded(t *testing.T) {
	client := NewClient(WithBaseURL(testServer(t).URL))
	ctx := context.Background()

	concluded, err := client.RoundConcluded(ctx, 2025, 1)
	require.NoError(t, err)
	assert.True(t, concluded)

	concluded, err = client.RoundConcluded(ctx, 2025, 2)
	require.NoError(t, err)
	assert.False(t, concluded)

	_, err = client.RoundConcluded(ctx, 2025, 99)
	assert.ErrorIs(t, err, model.ErrNotAvailable)

	latest, err := client.LatestConcludedRound(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, 1, latest)
}

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
	puts int
}

func (m *memStore) Get(_ context.Context, url string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	body, ok := m.data[url]
	return body, ok, nil
}

func (m *memStore) Put(_ context.Context, url string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[url] = body
	m.puts++
	return nil
}

func (m *memStore) Close() error { return nil }

func TestResponseStoreShortCircuitsFetch(t *testing.T) {
	hits := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/2025/5/results.json", func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.Write([]byte(resultsPayload))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	store := &memStore{data: map[string][]byte{}}
	client := NewClient(WithBaseURL(srv.URL), WithResponseStore(store))

	ctx := context.Background()
	_, err := client.SessionResults(ctx, 2025, 5, model.SessionRace)
	require.NoError(t, err)
	_, err = client.SessionResults(ctx, 2025, 5, model.SessionRace)
	require.NoError(t, err)

	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, store.puts)
}

func TestResponseStoreSkipsEmptyPayloads(t *testing.T) {
	// a round queried before it ran answers with an empty race table;
	// storing that body would pin "not available" past the session
	populated := false
	mux := http.NewServeMux()
	mux.HandleFunc("/2025/5/results.json", func(w http.ResponseWriter, _ *http.Request) {
		if populated {
			w.Write([]byte(resultsPayload))
			return
		}
		w.Write([]byte(`{"MRData": {"RaceTable": {"Races": []}}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	store := &memStore{data: map[string][]byte{}}
	client := NewClient(WithBaseURL(srv.URL), WithResponseStore(store))

	ctx := context.Background()
	_, err := client.SessionResults(ctx, 2025, 5, model.SessionRace)
	require.ErrorIs(t, err, model.ErrNotAvailable)
	assert.Equal(t, 0, store.puts)

	populated = true
	rows, err := client.SessionResults(ctx, 2025, 5, model.SessionRace)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, store.puts)
}

func TestParseLapTime(t *testing.T) {
	tests := []struct {
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{"1:27.097", 87097 * time.Millisecond, false},
		{"58.531", 58531 * time.Millisecond, false},
		{"2:01.000", 121 * time.Second, false},
		{"fast", 0, true},
		{"x:27.0", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseLapTime(tt.raw)
		if tt.wantErr {
			assert.Error(t, err, tt.raw)
			continue
		}
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}
