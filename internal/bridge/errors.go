package bridge

import "errors"

// Kind classifies a rejected action. None of them are fatal; a rejected
// action never mutates the game.
type Kind int

const (
	KindPrecondition Kind = iota
	KindIllegalMove
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindPrecondition:
		return "precondition"
	case KindIllegalMove:
		return "illegal_move"
	case KindNotFound:
		return "not_found"
	}
	return "unknown"
}

type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// Is matches on Code so wrapped copies still compare equal to the sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrGameAlreadyStarted = newError(KindPrecondition, "GAME_ALREADY_STARTED", "Game has already started")
	ErrRoomFull           = newError(KindPrecondition, "ROOM_FULL", "Room already has four players")
	ErrAlreadySeated      = newError(KindPrecondition, "ALREADY_SEATED", "Player is already in this room")
	ErrWrongPhase         = newError(KindPrecondition, "WRONG_PHASE", "Action not allowed in the current phase")
	ErrNotYourTurn        = newError(KindPrecondition, "NOT_YOUR_TURN", "It is not your turn")
	ErrNotBidder          = newError(KindPrecondition, "NOT_BIDDER", "Only the winning bidder may call a partner")
	ErrWashNotOffered     = newError(KindPrecondition, "WASH_NOT_OFFERED", "Your hand is too strong to wash")
	ErrInvalidPosition    = newError(KindPrecondition, "INVALID_POSITION", "Cannot move seat in that direction")
	ErrUnknownMove        = newError(KindPrecondition, "UNKNOWN_MOVE", "Unknown move type")

	ErrInvalidBet     = newError(KindIllegalMove, "INVALID_BET", "Bet must have a contract of 1 to 7 and a suit of 0 to 4")
	ErrBetTooLow      = newError(KindIllegalMove, "BET_TOO_LOW", "Bet must be higher than the current bet")
	ErrInvalidCard    = newError(KindIllegalMove, "INVALID_CARD", "Not a valid card")
	ErrCardNotHeld    = newError(KindIllegalMove, "CARD_NOT_IN_HAND", "You do not hold that card")
	ErrMustFollowSuit = newError(KindIllegalMove, "MUST_FOLLOW_SUIT", "You must follow the suit that was led")
	ErrTrumpNotBroken = newError(KindIllegalMove, "TRUMP_NOT_BROKEN", "Trump cannot be led until it has been broken")

	ErrPlayerNotFound = newError(KindNotFound, "PLAYER_NOT_FOUND", "No such player in this room")
)

// KindOf reports the Kind of a bridge error, and false for any other error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
