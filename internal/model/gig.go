package model

// Gig statuses.  A gig moves open -> accepted -> completed and never back.
// IsOpen is true exactly while Status is StatusOpen; CompletedAt is set
// exactly when Status is StatusCompleted.
const (
    GigStatusOpen      = "open"
    GigStatusAccepted  = "accepted"
    GigStatusCompleted = "completed"
)

// Application statuses for an ensemble's application to a gig.
const (
    ApplicationPending  = "pending"
    ApplicationAccepted = "accepted"
    ApplicationRejected = "rejected"
)

// Confirmer roles accepted by the generic confirm transition.
const (
    ConfirmerVenue    = "venue"
    ConfirmerEnsemble = "ensemble"
)
