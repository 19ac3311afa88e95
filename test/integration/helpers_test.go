package integration

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/busvote/internal/core/domain"
)

func (a *TestApp) request(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, a.Server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	}

	resp, err := a.Client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// insertTopic stores an active topic with a single Approve option.
func insertTopic(t *testing.T, db *sql.DB, creator *domain.User, start, end time.Time) *domain.Topic {
	t.Helper()

	topic := &domain.Topic{
		ID:        uuid.New(),
		Title:     "Additional Bus Request - seeded",
		Status:    domain.TopicActive,
		CreatedAt: start,
		EndDate:   end,
		CreatedBy: creator.ID,
	}
	_, err := db.Exec(`INSERT INTO voting_topics (id, title, status, created_by, created_at, end_date) VALUES ($1, $2, $3, $4, $5, $6)`,
		topic.ID, topic.Title, topic.Status, topic.CreatedBy, topic.CreatedAt, topic.EndDate)
	require.NoError(t, err)

	option := domain.VotingOption{ID: uuid.New(), TopicID: topic.ID, Text: domain.ApproveOptionText}
	_, err = db.Exec(`INSERT INTO voting_options (id, topic_id, text) VALUES ($1, $2, $3)`, option.ID, option.TopicID, option.Text)
	require.NoError(t, err)
	topic.Options = []domain.VotingOption{option}
	return topic
}

func voteCount(t *testing.T, db *sql.DB, topicID uuid.UUID) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM votes WHERE topic_id = $1", topicID).Scan(&n))
	return n
}

func topicStatus(t *testing.T, db *sql.DB, topicID uuid.UUID) domain.TopicStatus {
	t.Helper()
	var status domain.TopicStatus
	require.NoError(t, db.QueryRow("SELECT status FROM voting_topics WHERE id = $1", topicID).Scan(&status))
	return status
}
