package domain

// Conn is a live connection to a player. The websocket transport implements
// it; tests substitute fakes.
type Conn interface {
	Send(message interface{}) error
	Close() error
}

// MaxNameLength is the maximum allowed player display name length
const MaxNameLength = 20

// Player represents a player in a room, keyed by display name
type Player struct {
	Name       string      `json:"name"`
	Conn       Conn        `json:"-"`
	Submission *Submission `json:"submission,omitempty"`     // most recent, regardless of quality
	Best       *Submission `json:"bestSubmission,omitempty"` // highest quality so far, used for ranking
	LockedAt   *float64    `json:"lockedAt,omitempty"`       // seconds after round start, nil if not locked
	Resigned   bool        `json:"resigned"`
}

// NewPlayer creates a new player with the given name and connection
func NewPlayer(name string, conn Conn) *Player {
	return &Player{
		Name: name,
		Conn: conn,
	}
}

// Locked returns true if the player has locked in this round
func (p *Player) Locked() bool {
	return p.LockedAt != nil
}

// Connected returns true if the player has a live connection
func (p *Player) Connected() bool {
	return p.Conn != nil
}

// ResetForRound clears the player's per-round submission state
func (p *Player) ResetForRound() {
	p.Submission = nil
	p.Best = nil
	p.LockedAt = nil
	p.Resigned = false
}

// RecordSubmission stores the latest submission and promotes it to best if
// it improves on the previous best.
func (p *Player) RecordSubmission(sub *Submission) {
	p.Submission = sub
	if p.Best == nil || sub.BetterThan(p.Best) {
		p.Best = sub
	}
}
