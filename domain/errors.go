package domain

import "errors"

var (
	UnexpectedDatabaseError = errors.New("database-error")
	ErrDuplicateUsername    = errors.New("duplicate-username")
	ErrUserNotFound         = errors.New("user-not-found")
)

var UnexpectedHashingError = errors.New("hashing-error")

var (
	UnexpectedTokenGenerationError   = errors.New("token-generation-error")
	UnexpectedTokenVerificationError = errors.New("token-verification-error")
	ErrInvalidSigningAlg             = errors.New("invalid-signing-alg")
	ErrExpiredToken                  = errors.New("expired-token")
	ErrInvalidTokenSignature         = errors.New("invalid-token-signature")
	ErrCorruptedToken                = errors.New("corrupted-token")
)

// Game errors. Precondition and validation failures abort the request at
// hand. ErrRoundClosed is a soft outcome: the caller should stop retrying.
var (
	ErrRoomNotFound     = errors.New("room-not-found")
	ErrRoomFull         = errors.New("room-full")
	ErrRoundNotFound    = errors.New("round-not-found")
	ErrInvalidCategory  = errors.New("invalid-category")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrRoundClosed      = errors.New("round-closed")
	ErrNotEnoughLetters = errors.New("not-enough-eligible-letters")
	ErrNeedTwoPlayers   = errors.New("need-two-players")
)
