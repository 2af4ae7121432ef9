// game/errors.go
package game

import "errors"

// 校验类错误：同步返回给调用方，不会破坏会话状态。
var (
	ErrDuplicateSubmission = errors.New("actor already submitted this round")
	ErrNotYourTurn         = errors.New("action not permitted for this actor")
	ErrUnknownActor        = errors.New("actor not in this game")
	ErrDeadActor           = errors.New("dead participants cannot act")
	ErrInvalidTarget       = errors.New("invalid target")
)

// 状态类错误：指令与当前阶段不兼容。
var (
	ErrWrongPhase       = errors.New("command not valid in current phase")
	ErrGameInProgress   = errors.New("a game is already in progress")
	ErrGameEnded        = errors.New("the game has ended")
	ErrNotEnoughPlayers = errors.New("not enough players to start")
	ErrRoomFull         = errors.New("room is full")
	ErrUnknownRoom      = errors.New("no such room")
)
