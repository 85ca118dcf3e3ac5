package game

import "errors"

var (
	ErrMatchInProgress = errors.New("match-in-progress")
	ErrRoomBusy        = errors.New("room-busy")
)
