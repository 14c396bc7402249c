package workflow

import (
    "context"
    "database/sql"
    "log"
    "time"

    "github.com/stagelink/stagelink/internal/model"
    "github.com/stagelink/stagelink/internal/queue"
    "github.com/stagelink/stagelink/internal/repository"
)

// PublishFunc delivers a verified-gig event to the message broker after the
// owning transaction has committed.  A nil publisher disables delivery.
type PublishFunc func(ctx context.Context, event queue.GigVerifiedEvent) error

// Engine owns every handshake transition.  It opens the transaction, drives
// the repositories' *Tx methods under row locks, and commits — handlers
// never touch *sql.Tx themselves.
type Engine struct {
    db        *sql.DB
    gigs      *repository.GigRepo
    apps      *repository.ApplicationRepo
    venues    *repository.VenueRepo
    ensembles *repository.EnsembleRepo
    messages  *repository.MessageRepo
    users     *repository.UserRepo
    publish   PublishFunc
    now       func() time.Time
}

// NewEngine builds an Engine over the shared database handle.  publish may
// be nil when no broker is configured.
func NewEngine(db *sql.DB, publish PublishFunc) *Engine {
    return &Engine{
        db:        db,
        gigs:      repository.NewGigRepo(db),
        apps:      repository.NewApplicationRepo(db),
        venues:    repository.NewVenueRepo(db),
        ensembles: repository.NewEnsembleRepo(db),
        messages:  repository.NewMessageRepo(db),
        users:     repository.NewUserRepo(db),
        publish:   publish,
        now:       func() time.Time { return time.Now().UTC() },
    }
}

// CreateGigInput carries the fields a venue submits when posting a gig.
type CreateGigInput struct {
    VenueID            uint64
    Title              string
    DateTime           time.Time
    PaymentDescription *string
    Description        string
}

// CreateGig posts a new gig in the open state.
func (e *Engine) CreateGig(ctx context.Context, in CreateGigInput) (*repository.GigRecord, error) {
    if in.Title == "" || in.Description == "" || in.DateTime.IsZero() {
        return nil, invalidf("missing required fields")
    }
    if _, err := e.venues.GetByID(ctx, in.VenueID); err != nil {
        return nil, err
    }
    rec := &repository.GigRecord{
        VenueID:            in.VenueID,
        Title:              in.Title,
        DateTime:           in.DateTime.UTC(),
        PaymentDescription: in.PaymentDescription,
        Description:        in.Description,
    }
    if err := e.gigs.Create(ctx, rec); err != nil {
        return nil, err
    }
    return rec, nil
}

// Apply files a pending application from an ensemble to a gig.  The gig row
// is locked so an acceptance cannot close the gig between the openness check
// and the insert.  Re-applying is refused regardless of the earlier
// application's status.
func (e *Engine) Apply(ctx context.Context, gigID, ensembleID uint64) (*repository.ApplicationRecord, error) {
    tx, err := e.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    gig, err := e.gigs.GetForUpdateTx(ctx, tx, gigID)
    if err != nil {
        return nil, err
    }
    if !gig.IsOpen {
        return nil, invalidf("gig is not accepting applications")
    }
    ok, err := e.ensembles.ExistsTx(ctx, tx, ensembleID)
    if err != nil {
        return nil, err
    }
    if !ok {
        return nil, repository.ErrEnsembleNotFound
    }

    rec := &repository.ApplicationRecord{GigID: gigID, EnsembleID: ensembleID}
    if err := e.apps.CreateTx(ctx, tx, rec); err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    return rec, nil
}

// AcceptResult is what the acceptance transition hands back to the handler.
type AcceptResult struct {
    ApplicationID uint64
    GigID         uint64
    GigTitle      string
    EnsembleID    uint64
    LeaderID      uint64
    Status        string
}

// AcceptApplication performs the acceptance transition as one atomic unit:
// the application becomes accepted, the gig closes to further applications,
// and a system chat message from the venue owner to the ensemble leader is
// seeded in the same transaction.  Sibling pending applications are left
// pending; their rejection stays an explicit venue decision.
func (e *Engine) AcceptApplication(ctx context.Context, applicationID uint64) (*AcceptResult, error) {
    tx, err := e.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    la, err := e.apps.GetForUpdateTx(ctx, tx, applicationID)
    if err != nil {
        return nil, err
    }
    if err := e.apps.SetStatusTx(ctx, tx, la.ID, model.ApplicationAccepted); err != nil {
        return nil, err
    }
    if err := e.gigs.CloseAcceptedTx(ctx, tx, la.GigID); err != nil {
        return nil, err
    }

    ownerID, err := e.venues.OwnerTx(ctx, tx, la.VenueID)
    if err != nil {
        return nil, err
    }
    leaderID, err := e.ensembles.LeaderTx(ctx, tx, la.EnsembleID)
    if err != nil {
        return nil, err
    }
    content := "Your application for '" + la.GigTitle + "' has been accepted! Let's discuss the details."
    if err := e.messages.CreateTx(ctx, tx, ownerID, leaderID, content, model.MessageTypeGigAccepted); err != nil {
        return nil, err
    }

    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    return &AcceptResult{
        ApplicationID: la.ID,
        GigID:         la.GigID,
        GigTitle:      la.GigTitle,
        EnsembleID:    la.EnsembleID,
        LeaderID:      leaderID,
        Status:        model.ApplicationAccepted,
    }, nil
}

// RejectApplication marks an application rejected.  The gig is untouched
// and the ensemble's feed notification stays until dismissed.
func (e *Engine) RejectApplication(ctx context.Context, applicationID uint64) error {
    return e.apps.SetStatus(ctx, applicationID, model.ApplicationRejected)
}

// DismissNotification acknowledges a gig outcome for one musician, hiding
// the closed gig from their feed.  Only musicians hold feed notifications.
func (e *Engine) DismissNotification(ctx context.Context, gigID, userID uint64) error {
    u, err := e.users.GetByID(ctx, userID)
    if err != nil {
        return err
    }
    if u.Role != model.RoleMusician {
        return repository.ErrForbidden
    }
    return e.apps.AcknowledgeForMusician(ctx, gigID, userID)
}

// ConfirmResult reports the confirmation state after a transition.
type ConfirmResult struct {
    ApplicationID       uint64
    GigHappenedVenue    *bool
    GigHappenedEnsemble *bool
    ConfirmedAt         *time.Time
    BothConfirmed       bool
    Verified            bool
}

// Confirm records one party's answer to "did this gig happen?".  role must
// be "venue" or "ensemble".  When the second answer lands, confirmed_at is
// stamped; when both answers are yes, both verified counters are
// incremented — exactly once, however the two answers were ordered or
// repeated, because the transition is gated on the pre-lock image having an
// unanswered side.
func (e *Engine) Confirm(ctx context.Context, applicationID uint64, role string, happened bool) (*ConfirmResult, error) {
    if role != model.ConfirmerVenue && role != model.ConfirmerEnsemble {
        return nil, invalidf("invalid confirmer_role")
    }
    tx, err := e.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    la, err := e.apps.GetForUpdateTx(ctx, tx, applicationID)
    if err != nil {
        return nil, err
    }
    res, event, err := e.confirmLocked(ctx, tx, la, role, happened)
    if err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    e.publishVerified(ctx, event)
    return res, nil
}

// confirmLocked applies one confirmation answer to a row-locked
// application.  It returns the resulting state and, when the transition
// crossed into verified, the event to publish after commit.
func (e *Engine) confirmLocked(ctx context.Context, tx *sql.Tx, la *repository.LockedApplication, role string, happened bool) (*ConfirmResult, *queue.GigVerifiedEvent, error) {
    answeredBefore := la.GigHappenedVenue != nil && la.GigHappenedEnsemble != nil

    venueSide := la.GigHappenedVenue
    ensembleSide := la.GigHappenedEnsemble
    if role == model.ConfirmerVenue {
        venueSide = &happened
    } else {
        ensembleSide = &happened
    }

    confirmedAt := la.ConfirmedAt
    verified := false
    if !answeredBefore && venueSide != nil && ensembleSide != nil {
        ts := e.now()
        confirmedAt = &ts
        verified = *venueSide && *ensembleSide
    }

    if err := e.apps.SetConfirmationTx(ctx, tx, la.ID, venueSide, ensembleSide, confirmedAt); err != nil {
        return nil, nil, err
    }

    var event *queue.GigVerifiedEvent
    if verified {
        if err := e.venues.IncrementVerifiedTx(ctx, tx, la.VenueID); err != nil {
            return nil, nil, err
        }
        if err := e.ensembles.IncrementVerifiedTx(ctx, tx, la.EnsembleID); err != nil {
            return nil, nil, err
        }
        var venueName, ensembleName string
        const q = `SELECT v.name, e.name FROM venues v, ensembles e WHERE v.id = ? AND e.id = ?`
        if err := tx.QueryRowContext(ctx, q, la.VenueID, la.EnsembleID).Scan(&venueName, &ensembleName); err != nil {
            return nil, nil, err
        }
        event = &queue.GigVerifiedEvent{
            ApplicationID: la.ID,
            GigID:         la.GigID,
            GigTitle:      la.GigTitle,
            VenueID:       la.VenueID,
            VenueName:     venueName,
            EnsembleID:    la.EnsembleID,
            EnsembleName:  ensembleName,
            ConfirmedAt:   confirmedAt.UTC().Format(time.RFC3339),
        }
    }

    return &ConfirmResult{
        ApplicationID:       la.ID,
        GigHappenedVenue:    venueSide,
        GigHappenedEnsemble: ensembleSide,
        ConfirmedAt:         confirmedAt,
        BothConfirmed:       venueSide != nil && ensembleSide != nil,
        Verified:            verified,
    }, event, nil
}

// GigCompletion is the outcome of the venue-side completion transition.
type GigCompletion struct {
    GigID        uint64
    Status       string
    CompletedAt  time.Time
    Confirmation *ConfirmResult
}

// MarkGigCompleted is the venue-side completion: after the gig date, an
// accepted gig moves to completed and the venue's "it happened" answer is
// recorded in the same transaction.  If the ensemble answered first this
// finalizes the confirmation.
func (e *Engine) MarkGigCompleted(ctx context.Context, gigID uint64) (*GigCompletion, error) {
    tx, err := e.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    gig, err := e.gigs.GetForUpdateTx(ctx, tx, gigID)
    if err != nil {
        return nil, err
    }
    now := e.now()
    if now.Before(gig.DateTime) {
        return nil, invalidf("cannot mark as completed before gig date")
    }
    if gig.Status != model.GigStatusAccepted {
        return nil, invalidf("can only mark accepted gigs as completed")
    }
    if err := e.gigs.MarkCompletedTx(ctx, tx, gigID, now); err != nil {
        return nil, err
    }

    out := &GigCompletion{GigID: gigID, Status: model.GigStatusCompleted, CompletedAt: now}
    var event *queue.GigVerifiedEvent
    la, err := e.apps.AcceptedByGigForUpdateTx(ctx, tx, gigID)
    if err == nil {
        out.Confirmation, event, err = e.confirmLocked(ctx, tx, la, model.ConfirmerVenue, true)
        if err != nil {
            return nil, err
        }
    } else if err != repository.ErrApplicationNotFound {
        return nil, err
    }

    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    e.publishVerified(ctx, event)
    return out, nil
}

// MarkEnsembleCompleted is the ensemble-side completion: after the gig
// date, the ensemble's "it happened" answer is recorded against its
// accepted application.  The gig's own status is the venue's to move.
func (e *Engine) MarkEnsembleCompleted(ctx context.Context, applicationID uint64) (*ConfirmResult, error) {
    tx, err := e.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    la, err := e.apps.GetForUpdateTx(ctx, tx, applicationID)
    if err != nil {
        return nil, err
    }
    if e.now().Before(la.GigDateTime) {
        return nil, invalidf("cannot mark as completed before gig date")
    }
    if la.Status != model.ApplicationAccepted {
        return nil, invalidf("can only mark accepted gigs as completed")
    }
    res, event, err := e.confirmLocked(ctx, tx, la, model.ConfirmerEnsemble, true)
    if err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    e.publishVerified(ctx, event)
    return res, nil
}

// publishVerified hands a verified-gig event to the broker.  Delivery is
// best effort; the database commit is the source of truth.
func (e *Engine) publishVerified(ctx context.Context, event *queue.GigVerifiedEvent) {
    if event == nil || e.publish == nil {
        return
    }
    if err := e.publish(ctx, *event); err != nil {
        log.Printf("workflow: publish gig.verified for application %d failed: %v", event.ApplicationID, err)
    }
}
