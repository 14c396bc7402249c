package model

// Message types.  Regular chat messages carry TypeChat; the acceptance
// transition of the gig handshake seeds a conversation with one
// TypeGigAccepted message from the venue owner to the ensemble leader.
const (
    MessageTypeChat        = "chat"
    MessageTypeGigAccepted = "gig_accepted"
)
