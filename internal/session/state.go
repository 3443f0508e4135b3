package session

// State is the handshake progress of a session.
//
//	offerer:  NEW → OFFER_SENT → ANSWER_APPLIED → CONNECTED → CLOSED
//	answerer: NEW → ANSWER_SENT → CONNECTED → CLOSED
//
// Any state may move to FAILED. CLOSED and FAILED are terminal.
type State int32

const (
	StateNew State = iota
	StateOfferSent
	StateAnswerSent
	StateAnswerApplied
	StateConnected
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateOfferSent:
		return "offer-sent"
	case StateAnswerSent:
		return "answer-sent"
	case StateAnswerApplied:
		return "answer-applied"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the session has been released.
func (s State) Terminal() bool {
	return s == StateClosed || s == StateFailed
}
