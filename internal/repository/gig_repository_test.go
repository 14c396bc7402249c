package repository

import (
    "context"
    "regexp"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func newTestGigRepo(t *testing.T) (*GigRepo, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { _ = db.Close() })
    return NewGigRepo(db), mock
}

func gigDetailRows() *sqlmock.Rows {
    return sqlmock.NewRows([]string{
        "id", "venue_id", "name", "location", "title", "date_time",
        "payment_description", "description", "is_open", "status", "completed_at", "created_at",
    })
}

func TestFeedForMusician(t *testing.T) {
    when := time.Date(2026, 6, 12, 20, 0, 0, 0, time.UTC)

    t.Run("hides open gigs with an acknowledged rejection", func(t *testing.T) {
        repo, mock := newTestGigRepo(t)

        // The open-gig branch must carry the acknowledged-rejection
        // exclusion, scoped to the caller's ensembles on both membership
        // sides.
        pattern := `(?s)` +
            regexp.QuoteMeta(`g.is_open = TRUE`) + `.*` +
            regexp.QuoteMeta(`NOT EXISTS`) + `.*` +
            regexp.QuoteMeta(`gr.status = 'rejected'`) + `.*` +
            regexp.QuoteMeta(`gr.musician_acknowledged = TRUE`) + `.*` +
            regexp.QuoteMeta(`er.leader_id = ? OR emr.user_id IS NOT NULL`) + `.*` +
            regexp.QuoteMeta(`ga.musician_acknowledged = FALSE`)
        mock.ExpectQuery(pattern).
            WithArgs(50, 50, 50, 50).
            WillReturnRows(gigDetailRows().
                AddRow(4, 2, "The Cellar", "Berlin", "Open Mic", when,
                    "door split", "weekly session", true, "open", nil, when))

        feed, err := repo.FeedForMusician(context.Background(), 50, "")
        require.NoError(t, err)
        require.Len(t, feed, 1)
        assert.Equal(t, uint64(4), feed[0].ID)
        assert.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("location filter appends a LIKE bind", func(t *testing.T) {
        repo, mock := newTestGigRepo(t)

        mock.ExpectQuery(regexp.QuoteMeta(`v.location LIKE ?`)).
            WithArgs(50, 50, 50, 50, "%Berlin%").
            WillReturnRows(gigDetailRows())

        feed, err := repo.FeedForMusician(context.Background(), 50, "Berlin")
        require.NoError(t, err)
        assert.Empty(t, feed)
        assert.NoError(t, mock.ExpectationsWereMet())
    })
}
