package handler

import (
    "net/http"
    "net/http/httptest"
    "regexp"
    "strings"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/stagelink/stagelink/internal/repository"
    "github.com/stagelink/stagelink/internal/workflow"
)

func newHandshakeHandler(t *testing.T) (*HandshakeHandler, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { _ = db.Close() })
    eng := workflow.NewEngine(db, nil)
    return NewHandshakeHandler(
        eng,
        repository.NewGigRepo(db),
        repository.NewApplicationRepo(db),
        repository.NewVenueRepo(db),
        repository.NewEnsembleRepo(db),
    ), mock
}

// newJSONContext builds an Echo context for POST /v1/applications/:id/...
// authenticated as the given user.
func newJSONContext(t *testing.T, body string, uid uint64, role string) (echo.Context, *httptest.ResponseRecorder) {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.Set("user_id", uid)
    c.Set("role", role)
    return c, rec
}

// detailRows is the application detail shape: app 7 by ensemble 5 (leader
// user 50) against gig 3.
func detailRows(status string) *sqlmock.Rows {
    return sqlmock.NewRows([]string{
        "id", "gig_id", "title", "ensemble_id", "name", "leader_id",
        "status", "musician_acknowledged", "gig_happened_venue", "gig_happened_ensemble",
        "confirmed_at", "applied_at",
    }).AddRow(7, 3, "Jazz Night", 5, "Blue Note Trio", 50, status, false, nil, nil, nil, time.Now())
}

const detailQuery = `ga.confirmed_at, ga.applied_at`

func TestConfirmEndpoint(t *testing.T) {
    t.Run("rejects unknown confirmer role with 400", func(t *testing.T) {
        h, mock := newHandshakeHandler(t)
        mock.ExpectQuery(regexp.QuoteMeta(detailQuery)).
            WithArgs(7).WillReturnRows(detailRows("accepted"))

        c, rec := newJSONContext(t, `{"confirmer_role":"manager","gig_happened":true}`, 50, "musician")
        c.SetParamNames("id")
        c.SetParamValues("7")

        require.NoError(t, h.Confirm(c))
        assert.Equal(t, http.StatusBadRequest, rec.Code)
        assert.Contains(t, rec.Body.String(), "confirmer_role")
        assert.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("requires gig_happened", func(t *testing.T) {
        h, mock := newHandshakeHandler(t)

        c, rec := newJSONContext(t, `{"confirmer_role":"venue"}`, 50, "venue")
        c.SetParamNames("id")
        c.SetParamValues("7")

        require.NoError(t, h.Confirm(c))
        assert.Equal(t, http.StatusBadRequest, rec.Code)
        assert.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("ensemble side is leader-only", func(t *testing.T) {
        h, mock := newHandshakeHandler(t)
        mock.ExpectQuery(regexp.QuoteMeta(detailQuery)).
            WithArgs(7).WillReturnRows(detailRows("accepted"))

        // user 99 is not the leader of ensemble 5
        c, rec := newJSONContext(t, `{"confirmer_role":"ensemble","gig_happened":true}`, 99, "musician")
        c.SetParamNames("id")
        c.SetParamValues("7")

        require.NoError(t, h.Confirm(c))
        assert.Equal(t, http.StatusForbidden, rec.Code)
        assert.NoError(t, mock.ExpectationsWereMet())
    })

    t.Run("unknown application yields 404", func(t *testing.T) {
        h, mock := newHandshakeHandler(t)
        mock.ExpectQuery(regexp.QuoteMeta(detailQuery)).
            WithArgs(7).WillReturnRows(sqlmock.NewRows([]string{"id"}))

        c, rec := newJSONContext(t, `{"confirmer_role":"venue","gig_happened":true}`, 50, "venue")
        c.SetParamNames("id")
        c.SetParamValues("7")

        require.NoError(t, h.Confirm(c))
        assert.Equal(t, http.StatusNotFound, rec.Code)
        assert.NoError(t, mock.ExpectationsWereMet())
    })
}

func TestCompleteEnsembleEndpoint(t *testing.T) {
    t.Run("non-leader is refused", func(t *testing.T) {
        h, mock := newHandshakeHandler(t)
        mock.ExpectQuery(regexp.QuoteMeta(detailQuery)).
            WithArgs(7).WillReturnRows(detailRows("accepted"))

        c, rec := newJSONContext(t, `{}`, 99, "musician")
        c.SetParamNames("id")
        c.SetParamValues("7")

        require.NoError(t, h.CompleteEnsemble(c))
        assert.Equal(t, http.StatusForbidden, rec.Code)
        assert.NoError(t, mock.ExpectationsWereMet())
    })
}
