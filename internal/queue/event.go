// Package queue defines message payloads exchanged over the message broker.
package queue

// GigVerifiedEvent is published when both parties of a gig handshake have
// confirmed the gig happened.  It carries enough context for downstream
// consumers to log, notify, or feed analytics without querying the primary
// database.
type GigVerifiedEvent struct {
    ApplicationID uint64 `json:"application_id"`
    GigID         uint64 `json:"gig_id"`
    GigTitle      string `json:"gig_title"`
    VenueID       uint64 `json:"venue_id"`
    VenueName     string `json:"venue_name"`
    EnsembleID    uint64 `json:"ensemble_id"`
    EnsembleName  string `json:"ensemble_name"`
    ConfirmedAt   string `json:"confirmed_at"`
}
