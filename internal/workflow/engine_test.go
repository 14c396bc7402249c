package workflow

import (
    "context"
    "errors"
    "regexp"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/stagelink/stagelink/internal/repository"
)

var fixedNow = time.Date(2026, 5, 2, 21, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*Engine, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { _ = db.Close() })
    eng := NewEngine(db, nil)
    eng.now = func() time.Time { return fixedNow }
    return eng, mock
}

// lockedAppRows builds the row shape returned by the FOR UPDATE application
// lookup: app 7 by ensemble 5 against gig 3 at venue 2.
func lockedAppRows(status string, gigDate time.Time, venueSide, ensembleSide, confirmedAt interface{}) *sqlmock.Rows {
    return sqlmock.NewRows([]string{
        "id", "gig_id", "ensemble_id", "status",
        "gig_happened_venue", "gig_happened_ensemble", "confirmed_at",
        "venue_id", "title", "date_time",
    }).AddRow(7, 3, 5, status, venueSide, ensembleSide, confirmedAt, 2, "Jazz Night", gigDate)
}

func expectLockApplication(mock sqlmock.Sqlmock, rows *sqlmock.Rows) {
    mock.ExpectQuery(regexp.QuoteMeta(`WHERE ga.id = ? FOR UPDATE`)).
        WithArgs(7).
        WillReturnRows(rows)
}

func expectFinalizeVerified(mock sqlmock.Sqlmock, venueSide, ensembleSide bool) {
    mock.ExpectExec(regexp.QuoteMeta(`SET gig_happened_venue = ?, gig_happened_ensemble = ?, confirmed_at = ?`)).
        WithArgs(venueSide, ensembleSide, fixedNow, 7).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(regexp.QuoteMeta(`UPDATE venues SET verified_gig_count`)).
        WithArgs(2).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(regexp.QuoteMeta(`UPDATE ensembles SET verified_gig_count`)).
        WithArgs(5).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectQuery(regexp.QuoteMeta(`SELECT v.name, e.name`)).
        WithArgs(2, 5).
        WillReturnRows(sqlmock.NewRows([]string{"v.name", "e.name"}).AddRow("The Cellar", "Blue Note Trio"))
}

func TestConfirm(t *testing.T) {
    past := fixedNow.Add(-24 * time.Hour)

    t.Run("rejects unknown confirmer role", func(t *testing.T) {
        eng, mock := newTestEngine(t)
        _, err := eng.Confirm(context.Background(), 7, "manager", true)
        var ve *ValidationError
        require.ErrorAs(t, err, &ve)
        assert.Contains(t, ve.Msg, "confirmer_role")
        assert.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("first answer stays pending", func(t *testing.T) {
        eng, mock := newTestEngine(t)
        mock.ExpectBegin()
        expectLockApplication(mock, lockedAppRows("accepted", past, nil, nil, nil))
        mock.ExpectExec(regexp.QuoteMeta(`SET gig_happened_venue = ?, gig_happened_ensemble = ?, confirmed_at = ?`)).
            WithArgs(true, nil, nil, 7).
            WillReturnResult(sqlmock.NewResult(0, 1))
        mock.ExpectCommit()

        res, err := eng.Confirm(context.Background(), 7, "venue", true)
        require.NoError(t, err)
        assert.False(t, res.BothConfirmed)
        assert.False(t, res.Verified)
        assert.Nil(t, res.ConfirmedAt)
        require.NotNil(t, res.GigHappenedVenue)
        assert.True(t, *res.GigHappenedVenue)
        assert.Nil(t, res.GigHappenedEnsemble)
        assert.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("second yes finalizes and increments both counters", func(t *testing.T) {
        eng, mock := newTestEngine(t)
        venueYes := true
        mock.ExpectBegin()
        expectLockApplication(mock, lockedAppRows("accepted", past, venueYes, nil, nil))
        expectFinalizeVerified(mock, true, true)
        mock.ExpectCommit()

        res, err := eng.Confirm(context.Background(), 7, "ensemble", true)
        require.NoError(t, err)
        assert.True(t, res.BothConfirmed)
        assert.True(t, res.Verified)
        require.NotNil(t, res.ConfirmedAt)
        assert.Equal(t, fixedNow, *res.ConfirmedAt)
        assert.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("disputed outcome finalizes without counting", func(t *testing.T) {
        eng, mock := newTestEngine(t)
        venueNo := false
        mock.ExpectBegin()
        expectLockApplication(mock, lockedAppRows("accepted", past, venueNo, nil, nil))
        mock.ExpectExec(regexp.QuoteMeta(`SET gig_happened_venue = ?, gig_happened_ensemble = ?, confirmed_at = ?`)).
            WithArgs(false, true, fixedNow, 7).
            WillReturnResult(sqlmock.NewResult(0, 1))
        mock.ExpectCommit()

        res, err := eng.Confirm(context.Background(), 7, "ensemble", true)
        require.NoError(t, err)
        assert.True(t, res.BothConfirmed)
        assert.False(t, res.Verified)
        require.NotNil(t, res.ConfirmedAt)
        assert.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("repeat after finalized never increments again", func(t *testing.T) {
        eng, mock := newTestEngine(t)
        earlier := fixedNow.Add(-time.Hour)
        mock.ExpectBegin()
        expectLockApplication(mock, lockedAppRows("accepted", past, true, true, earlier))
        mock.ExpectExec(regexp.QuoteMeta(`SET gig_happened_venue = ?, gig_happened_ensemble = ?, confirmed_at = ?`)).
            WithArgs(true, true, earlier, 7).
            WillReturnResult(sqlmock.NewResult(0, 1))
        mock.ExpectCommit()

        res, err := eng.Confirm(context.Background(), 7, "venue", true)
        require.NoError(t, err)
        assert.False(t, res.Verified)
        require.NotNil(t, res.ConfirmedAt)
        assert.Equal(t, earlier, *res.ConfirmedAt)
        assert.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("unknown application", func(t *testing.T) {
        eng, mock := newTestEngine(t)
        mock.ExpectBegin()
        mock.ExpectQuery(regexp.QuoteMeta(`WHERE ga.id = ? FOR UPDATE`)).
            WithArgs(7).
            WillReturnRows(sqlmock.NewRows([]string{"id"}))
        mock.ExpectRollback()

        _, err := eng.Confirm(context.Background(), 7, "venue", true)
        assert.ErrorIs(t, err, repository.ErrApplicationNotFound)
        assert.NoError(t, mock.ExpectationsWereMet())
    })
}

func TestApply(t *testing.T) {
    gigRows := func(open bool) *sqlmock.Rows {
        return sqlmock.NewRows([]string{"id", "venue_id", "title", "date_time", "is_open", "status"}).
            AddRow(3, 2, "Jazz Night", fixedNow.Add(48*time.Hour), open, "open")
    }

    t.Run("creates a pending application", func(t *testing.T) {
        eng, mock := newTestEngine(t)
        mock.ExpectBegin()
        mock.ExpectQuery(regexp.QuoteMeta(`FROM gigs WHERE id = ? FOR UPDATE`)).
            WithArgs(3).WillReturnRows(gigRows(true))
        mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(1) FROM ensembles`)).
            WithArgs(5).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
        mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO gig_applications`)).
            WithArgs(3, 5).WillReturnResult(sqlmock.NewResult(7, 1))
        mock.ExpectQuery(regexp.QuoteMeta(`SELECT applied_at FROM gig_applications`)).
            WithArgs(7).WillReturnRows(sqlmock.NewRows([]string{"applied_at"}).AddRow(fixedNow))
        mock.ExpectCommit()

        rec, err := eng.Apply(context.Background(), 3, 5)
        require.NoError(t, err)
        assert.Equal(t, uint64(7), rec.ID)
        assert.Equal(t, "pending", rec.Status)
        assert.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("closed gig refuses applications", func(t *testing.T) {
        eng, mock := newTestEngine(t)
        mock.ExpectBegin()
        mock.ExpectQuery(regexp.QuoteMeta(`FROM gigs WHERE id = ? FOR UPDATE`)).
            WithArgs(3).WillReturnRows(gigRows(false))
        mock.ExpectRollback()

        _, err := eng.Apply(context.Background(), 3, 5)
        var ve *ValidationError
        require.ErrorAs(t, err, &ve)
        assert.Contains(t, ve.Msg, "not accepting applications")
        assert.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("duplicate application conflicts even after rejection", func(t *testing.T) {
        eng, mock := newTestEngine(t)
        mock.ExpectBegin()
        mock.ExpectQuery(regexp.QuoteMeta(`FROM gigs WHERE id = ? FOR UPDATE`)).
            WithArgs(3).WillReturnRows(gigRows(true))
        mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(1) FROM ensembles`)).
            WithArgs(5).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
        mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO gig_applications`)).
            WithArgs(3, 5).
            WillReturnError(errors.New("Error 1062 (23000): Duplicate entry '3-5' for key 'uniq_gig_ensemble'"))
        mock.ExpectRollback()

        _, err := eng.Apply(context.Background(), 3, 5)
        assert.ErrorIs(t, err, repository.ErrConflict)
        assert.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("unknown ensemble", func(t *testing.T) {
        eng, mock := newTestEngine(t)
        mock.ExpectBegin()
        mock.ExpectQuery(regexp.QuoteMeta(`FROM gigs WHERE id = ? FOR UPDATE`)).
            WithArgs(3).WillReturnRows(gigRows(true))
        mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(1) FROM ensembles`)).
            WithArgs(5).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
        mock.ExpectRollback()

        _, err := eng.Apply(context.Background(), 3, 5)
        assert.ErrorIs(t, err, repository.ErrEnsembleNotFound)
        assert.NoError(t, mock.ExpectationsWereMet())
    })
}

func TestAcceptApplication(t *testing.T) {
    past := fixedNow.Add(-24 * time.Hour)

    t.Run("accepts, closes the gig and seeds the chat", func(t *testing.T) {
        eng, mock := newTestEngine(t)
        mock.ExpectBegin()
        expectLockApplication(mock, lockedAppRows("pending", past, nil, nil, nil))
        mock.ExpectExec(regexp.QuoteMeta(`UPDATE gig_applications SET status = ?`)).
            WithArgs("accepted", 7).
            WillReturnResult(sqlmock.NewResult(0, 1))
        mock.ExpectExec(regexp.QuoteMeta(`SET is_open = FALSE, status = 'accepted'`)).
            WithArgs(3).
            WillReturnResult(sqlmock.NewResult(0, 1))
        mock.ExpectQuery(regexp.QuoteMeta(`SELECT user_id FROM venues`)).
            WithArgs(2).WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(20))
        mock.ExpectQuery(regexp.QuoteMeta(`SELECT leader_id FROM ensembles`)).
            WithArgs(5).WillReturnRows(sqlmock.NewRows([]string{"leader_id"}).AddRow(50))
        mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO messages`)).
            WithArgs(20, 50, sqlmock.AnyArg(), "gig_accepted").
            WillReturnResult(sqlmock.NewResult(1, 1))
        mock.ExpectCommit()

        res, err := eng.AcceptApplication(context.Background(), 7)
        require.NoError(t, err)
        assert.Equal(t, uint64(7), res.ApplicationID)
        assert.Equal(t, uint64(3), res.GigID)
        assert.Equal(t, uint64(50), res.LeaderID)
        assert.Equal(t, "accepted", res.Status)
        assert.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("rolls back when the chat seed fails", func(t *testing.T) {
        eng, mock := newTestEngine(t)
        mock.ExpectBegin()
        expectLockApplication(mock, lockedAppRows("pending", past, nil, nil, nil))
        mock.ExpectExec(regexp.QuoteMeta(`UPDATE gig_applications SET status = ?`)).
            WithArgs("accepted", 7).
            WillReturnResult(sqlmock.NewResult(0, 1))
        mock.ExpectExec(regexp.QuoteMeta(`SET is_open = FALSE, status = 'accepted'`)).
            WithArgs(3).
            WillReturnResult(sqlmock.NewResult(0, 1))
        mock.ExpectQuery(regexp.QuoteMeta(`SELECT user_id FROM venues`)).
            WithArgs(2).WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(20))
        mock.ExpectQuery(regexp.QuoteMeta(`SELECT leader_id FROM ensembles`)).
            WithArgs(5).WillReturnRows(sqlmock.NewRows([]string{"leader_id"}).AddRow(50))
        mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO messages`)).
            WithArgs(20, 50, sqlmock.AnyArg(), "gig_accepted").
            WillReturnError(errors.New("connection reset"))
        mock.ExpectRollback()

        _, err := eng.AcceptApplication(context.Background(), 7)
        require.Error(t, err)
        assert.NoError(t, mock.ExpectationsWereMet())
    })
}

func TestMarkGigCompleted(t *testing.T) {
    gigRows := func(dateTime time.Time, status string) *sqlmock.Rows {
        return sqlmock.NewRows([]string{"id", "venue_id", "title", "date_time", "is_open", "status"}).
            AddRow(3, 2, "Jazz Night", dateTime, false, status)
    }
    past := fixedNow.Add(-24 * time.Hour)

    t.Run("refuses before the gig date", func(t *testing.T) {
        eng, mock := newTestEngine(t)
        mock.ExpectBegin()
        mock.ExpectQuery(regexp.QuoteMeta(`FROM gigs WHERE id = ? FOR UPDATE`)).
            WithArgs(3).WillReturnRows(gigRows(fixedNow.Add(time.Hour), "accepted"))
        mock.ExpectRollback()

        _, err := eng.MarkGigCompleted(context.Background(), 3)
        var ve *ValidationError
        require.ErrorAs(t, err, &ve)
        assert.Contains(t, ve.Msg, "before gig date")
        assert.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("refuses gigs that were never accepted", func(t *testing.T) {
        eng, mock := newTestEngine(t)
        mock.ExpectBegin()
        mock.ExpectQuery(regexp.QuoteMeta(`FROM gigs WHERE id = ? FOR UPDATE`)).
            WithArgs(3).WillReturnRows(gigRows(past, "open"))
        mock.ExpectRollback()

        _, err := eng.MarkGigCompleted(context.Background(), 3)
        var ve *ValidationError
        require.ErrorAs(t, err, &ve)
        assert.Contains(t, ve.Msg, "accepted")
        assert.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("records the venue answer alongside completion", func(t *testing.T) {
        eng, mock := newTestEngine(t)
        mock.ExpectBegin()
        mock.ExpectQuery(regexp.QuoteMeta(`FROM gigs WHERE id = ? FOR UPDATE`)).
            WithArgs(3).WillReturnRows(gigRows(past, "accepted"))
        mock.ExpectExec(regexp.QuoteMeta(`UPDATE gigs SET status = 'completed'`)).
            WithArgs(fixedNow, 3).
            WillReturnResult(sqlmock.NewResult(0, 1))
        mock.ExpectQuery(regexp.QuoteMeta(`AND ga.status = 'accepted'`)).
            WithArgs(3).
            WillReturnRows(lockedAppRows("accepted", past, nil, nil, nil))
        mock.ExpectExec(regexp.QuoteMeta(`SET gig_happened_venue = ?, gig_happened_ensemble = ?, confirmed_at = ?`)).
            WithArgs(true, nil, nil, 7).
            WillReturnResult(sqlmock.NewResult(0, 1))
        mock.ExpectCommit()

        out, err := eng.MarkGigCompleted(context.Background(), 3)
        require.NoError(t, err)
        assert.Equal(t, "completed", out.Status)
        assert.Equal(t, fixedNow, out.CompletedAt)
        require.NotNil(t, out.Confirmation)
        assert.False(t, out.Confirmation.BothConfirmed)
        assert.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("finalizes when the ensemble answered first", func(t *testing.T) {
        eng, mock := newTestEngine(t)
        mock.ExpectBegin()
        mock.ExpectQuery(regexp.QuoteMeta(`FROM gigs WHERE id = ? FOR UPDATE`)).
            WithArgs(3).WillReturnRows(gigRows(past, "accepted"))
        mock.ExpectExec(regexp.QuoteMeta(`UPDATE gigs SET status = 'completed'`)).
            WithArgs(fixedNow, 3).
            WillReturnResult(sqlmock.NewResult(0, 1))
        mock.ExpectQuery(regexp.QuoteMeta(`AND ga.status = 'accepted'`)).
            WithArgs(3).
            WillReturnRows(lockedAppRows("accepted", past, nil, true, nil))
        expectFinalizeVerified(mock, true, true)
        mock.ExpectCommit()

        out, err := eng.MarkGigCompleted(context.Background(), 3)
        require.NoError(t, err)
        require.NotNil(t, out.Confirmation)
        assert.True(t, out.Confirmation.Verified)
        assert.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("completes cleanly when no accepted application exists", func(t *testing.T) {
        eng, mock := newTestEngine(t)
        mock.ExpectBegin()
        mock.ExpectQuery(regexp.QuoteMeta(`FROM gigs WHERE id = ? FOR UPDATE`)).
            WithArgs(3).WillReturnRows(gigRows(past, "accepted"))
        mock.ExpectExec(regexp.QuoteMeta(`UPDATE gigs SET status = 'completed'`)).
            WithArgs(fixedNow, 3).
            WillReturnResult(sqlmock.NewResult(0, 1))
        mock.ExpectQuery(regexp.QuoteMeta(`AND ga.status = 'accepted'`)).
            WithArgs(3).
            WillReturnRows(sqlmock.NewRows([]string{"id"}))
        mock.ExpectCommit()

        out, err := eng.MarkGigCompleted(context.Background(), 3)
        require.NoError(t, err)
        assert.Nil(t, out.Confirmation)
        assert.NoError(t, mock.ExpectationsWereMet())
    })
}

func TestMarkEnsembleCompleted(t *testing.T) {
    past := fixedNow.Add(-24 * time.Hour)

    t.Run("records the ensemble answer", func(t *testing.T) {
        eng, mock := newTestEngine(t)
        mock.ExpectBegin()
        expectLockApplication(mock, lockedAppRows("accepted", past, nil, nil, nil))
        mock.ExpectExec(regexp.QuoteMeta(`SET gig_happened_venue = ?, gig_happened_ensemble = ?, confirmed_at = ?`)).
            WithArgs(nil, true, nil, 7).
            WillReturnResult(sqlmock.NewResult(0, 1))
        mock.ExpectCommit()

        res, err := eng.MarkEnsembleCompleted(context.Background(), 7)
        require.NoError(t, err)
        assert.False(t, res.BothConfirmed)
        require.NotNil(t, res.GigHappenedEnsemble)
        assert.True(t, *res.GigHappenedEnsemble)
        assert.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("refuses before the gig date", func(t *testing.T) {
        eng, mock := newTestEngine(t)
        mock.ExpectBegin()
        expectLockApplication(mock, lockedAppRows("accepted", fixedNow.Add(time.Hour), nil, nil, nil))
        mock.ExpectRollback()

        _, err := eng.MarkEnsembleCompleted(context.Background(), 7)
        var ve *ValidationError
        require.ErrorAs(t, err, &ve)
        assert.Contains(t, ve.Msg, "before gig date")
        assert.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("refuses non-accepted applications", func(t *testing.T) {
        eng, mock := newTestEngine(t)
        mock.ExpectBegin()
        expectLockApplication(mock, lockedAppRows("pending", past, nil, nil, nil))
        mock.ExpectRollback()

        _, err := eng.MarkEnsembleCompleted(context.Background(), 7)
        var ve *ValidationError
        require.ErrorAs(t, err, &ve)
        assert.Contains(t, ve.Msg, "accepted")
        assert.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("finalizes and counts when the venue answered yes first", func(t *testing.T) {
        eng, mock := newTestEngine(t)
        mock.ExpectBegin()
        expectLockApplication(mock, lockedAppRows("accepted", past, true, nil, nil))
        expectFinalizeVerified(mock, true, true)
        mock.ExpectCommit()

        res, err := eng.MarkEnsembleCompleted(context.Background(), 7)
        require.NoError(t, err)
        assert.True(t, res.Verified)
        assert.NoError(t, mock.ExpectationsWereMet())
    })
}

func TestDismissNotification(t *testing.T) {
    userRows := func(role string) *sqlmock.Rows {
        return sqlmock.NewRows([]string{
            "id", "email", "password_hash", "name", "role", "instrument", "city", "bio",
            "is_pro", "is_active", "created_at", "updated_at",
        }).AddRow(50, "lena@example.com", "x", "Lena", role, "sax", "Berlin", "", false, true, fixedNow, fixedNow)
    }

    t.Run("musician dismisses a gig outcome", func(t *testing.T) {
        eng, mock := newTestEngine(t)
        mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = ?`)).
            WithArgs(50).WillReturnRows(userRows("musician"))
        mock.ExpectExec(regexp.QuoteMeta(`SET ga.musician_acknowledged = TRUE`)).
            WithArgs(50, 3, 50).
            WillReturnResult(sqlmock.NewResult(0, 1))

        err := eng.DismissNotification(context.Background(), 3, 50)
        require.NoError(t, err)
        assert.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("venues cannot dismiss", func(t *testing.T) {
        eng, mock := newTestEngine(t)
        mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = ?`)).
            WithArgs(50).WillReturnRows(userRows("venue"))

        err := eng.DismissNotification(context.Background(), 3, 50)
        assert.ErrorIs(t, err, repository.ErrForbidden)
        assert.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("no application means nothing to dismiss", func(t *testing.T) {
        eng, mock := newTestEngine(t)
        mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = ?`)).
            WithArgs(50).WillReturnRows(userRows("musician"))
        mock.ExpectExec(regexp.QuoteMeta(`SET ga.musician_acknowledged = TRUE`)).
            WithArgs(50, 3, 50).
            WillReturnResult(sqlmock.NewResult(0, 0))

        err := eng.DismissNotification(context.Background(), 3, 50)
        assert.ErrorIs(t, err, repository.ErrApplicationNotFound)
        assert.NoError(t, mock.ExpectationsWereMet())
    })
}

func TestCreateGig(t *testing.T) {
    t.Run("missing fields", func(t *testing.T) {
        eng, mock := newTestEngine(t)
        _, err := eng.CreateGig(context.Background(), CreateGigInput{VenueID: 2, Title: "Jazz Night"})
        var ve *ValidationError
        require.ErrorAs(t, err, &ve)
        assert.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("unknown venue", func(t *testing.T) {
        eng, mock := newTestEngine(t)
        mock.ExpectQuery(regexp.QuoteMeta(`FROM venues WHERE id = ?`)).
            WithArgs(2).WillReturnRows(sqlmock.NewRows([]string{"id"}))

        _, err := eng.CreateGig(context.Background(), CreateGigInput{
            VenueID:     2,
            Title:       "Jazz Night",
            Description: "Trio wanted",
            DateTime:    fixedNow.Add(72 * time.Hour),
        })
        assert.ErrorIs(t, err, repository.ErrVenueNotFound)
        assert.NoError(t, mock.ExpectationsWereMet())
    })
}
