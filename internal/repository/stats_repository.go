package repository

import (
    "context"
    "database/sql"
)

// StatsRepo aggregates counts for the admin dashboard and the pro-gated
// analytics views.  All methods are read-only.
type StatsRepo struct {
    db *sql.DB
}

// NewStatsRepo returns a StatsRepo bound to the given database.
func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db} }

// PlatformStats is the admin analytics snapshot.
type PlatformStats struct {
    TotalUsers        int `json:"total_users"`
    Musicians         int `json:"musicians"`
    VenueUsers        int `json:"venue_users"`
    Admins            int `json:"admins"`
    Venues            int `json:"venues"`
    Ensembles         int `json:"ensembles"`
    GigsTotal         int `json:"gigs_total"`
    GigsOpen          int `json:"gigs_open"`
    GigsAccepted      int `json:"gigs_accepted"`
    GigsCompleted     int `json:"gigs_completed"`
    Applications      int `json:"applications"`
    VerifiedGigs      int `json:"verified_gigs"`
    MessagesExchanged int `json:"messages_exchanged"`
    JamPosts          int `json:"jam_posts"`
}

// Platform computes the full snapshot in one round of scalar queries.
func (r *StatsRepo) Platform(ctx context.Context) (*PlatformStats, error) {
    var s PlatformStats
    steps := []struct {
        q    string
        dest *int
    }{
        {`SELECT COUNT(1) FROM users`, &s.TotalUsers},
        {`SELECT COUNT(1) FROM users WHERE role = 'musician'`, &s.Musicians},
        {`SELECT COUNT(1) FROM users WHERE role = 'venue'`, &s.VenueUsers},
        {`SELECT COUNT(1) FROM users WHERE role = 'admin'`, &s.Admins},
        {`SELECT COUNT(1) FROM venues`, &s.Venues},
        {`SELECT COUNT(1) FROM ensembles`, &s.Ensembles},
        {`SELECT COUNT(1) FROM gigs`, &s.GigsTotal},
        {`SELECT COUNT(1) FROM gigs WHERE status = 'open'`, &s.GigsOpen},
        {`SELECT COUNT(1) FROM gigs WHERE status = 'accepted'`, &s.GigsAccepted},
        {`SELECT COUNT(1) FROM gigs WHERE status = 'completed'`, &s.GigsCompleted},
        {`SELECT COUNT(1) FROM gig_applications`, &s.Applications},
        {`SELECT COUNT(1) FROM gig_applications WHERE gig_happened_venue = TRUE AND gig_happened_ensemble = TRUE`, &s.VerifiedGigs},
        {`SELECT COUNT(1) FROM messages`, &s.MessagesExchanged},
        {`SELECT COUNT(1) FROM jam_posts`, &s.JamPosts},
    }
    for _, st := range steps {
        if err := r.db.QueryRowContext(ctx, st.q).Scan(st.dest); err != nil {
            return nil, err
        }
    }
    return &s, nil
}

// MusicianOverview summarizes a musician's verified work for analytics.
type MusicianOverview struct {
    VerifiedGigs   int `json:"verified_gigs"`
    GigsPlayed     int `json:"gigs_played"`
    DistinctVenues int `json:"distinct_venues"`
    UpcomingGigs   int `json:"upcoming_gigs"`
}

// Musician builds the overview across all ensembles the user belongs to.
func (r *StatsRepo) Musician(ctx context.Context, userID uint64) (*MusicianOverview, error) {
    const base = `FROM gig_applications ga
                  JOIN gigs g ON g.id = ga.gig_id
                  JOIN ensembles e ON e.id = ga.ensemble_id
                  LEFT JOIN ensemble_members em ON em.ensemble_id = e.id AND em.user_id = ?
                  WHERE (e.leader_id = ? OR em.user_id IS NOT NULL)`
    var o MusicianOverview
    q := `SELECT COUNT(DISTINCT ga.id) ` + base + ` AND ga.gig_happened_venue = TRUE AND ga.gig_happened_ensemble = TRUE`
    if err := r.db.QueryRowContext(ctx, q, userID, userID).Scan(&o.VerifiedGigs); err != nil {
        return nil, err
    }
    q = `SELECT COUNT(DISTINCT ga.id) ` + base + ` AND ga.status = 'accepted' AND g.status = 'completed'`
    if err := r.db.QueryRowContext(ctx, q, userID, userID).Scan(&o.GigsPlayed); err != nil {
        return nil, err
    }
    q = `SELECT COUNT(DISTINCT g.venue_id) ` + base + ` AND ga.status = 'accepted'`
    if err := r.db.QueryRowContext(ctx, q, userID, userID).Scan(&o.DistinctVenues); err != nil {
        return nil, err
    }
    q = `SELECT COUNT(DISTINCT ga.id) ` + base + ` AND ga.status = 'accepted' AND g.status = 'accepted' AND g.date_time > NOW()`
    if err := r.db.QueryRowContext(ctx, q, userID, userID).Scan(&o.UpcomingGigs); err != nil {
        return nil, err
    }
    return &o, nil
}

// VenueOverview summarizes a venue's gig activity for analytics.
type VenueOverview struct {
    GigsPosted        int `json:"gigs_posted"`
    GigsCompleted     int `json:"gigs_completed"`
    VerifiedGigs      int `json:"verified_gigs"`
    DistinctEnsembles int `json:"distinct_ensembles"`
}

// Venue builds the overview for one venue.
func (r *StatsRepo) Venue(ctx context.Context, venueID uint64) (*VenueOverview, error) {
    var o VenueOverview
    if err := r.db.QueryRowContext(ctx,
        `SELECT COUNT(1) FROM gigs WHERE venue_id = ?`, venueID).Scan(&o.GigsPosted); err != nil {
        return nil, err
    }
    if err := r.db.QueryRowContext(ctx,
        `SELECT COUNT(1) FROM gigs WHERE venue_id = ? AND status = 'completed'`, venueID).Scan(&o.GigsCompleted); err != nil {
        return nil, err
    }
    if err := r.db.QueryRowContext(ctx,
        `SELECT COUNT(1) FROM gig_applications ga JOIN gigs g ON g.id = ga.gig_id
         WHERE g.venue_id = ? AND ga.gig_happened_venue = TRUE AND ga.gig_happened_ensemble = TRUE`,
        venueID).Scan(&o.VerifiedGigs); err != nil {
        return nil, err
    }
    if err := r.db.QueryRowContext(ctx,
        `SELECT COUNT(DISTINCT ga.ensemble_id) FROM gig_applications ga JOIN gigs g ON g.id = ga.gig_id
         WHERE g.venue_id = ? AND ga.status = 'accepted'`, venueID).Scan(&o.DistinctEnsembles); err != nil {
        return nil, err
    }
    return &o, nil
}
