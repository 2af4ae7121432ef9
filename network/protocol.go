package network

const (
	MsgTypeHeartbeat = 1

	MsgTypeCreateRoom = 101
	MsgTypeJoinRoom   = 102
	MsgTypeLeaveRoom  = 103
	MsgTypeStartGame  = 104

	MsgTypeNightAction = 201
	MsgTypeDayVote     = 202
	MsgTypeMafiaChat   = 203
	MsgTypeSkipPhase   = 204

	MsgTypeRoomState     = 301
	MsgTypeRoleAssign    = 302
	MsgTypePhaseChange   = 303
	MsgTypeNightResult   = 304
	MsgTypeVoteResult    = 305
	MsgTypeInvestigation = 306
	MsgTypeReminder      = 307
	MsgTypeCountdown     = 308
	MsgTypeGameEnd       = 309
	MsgTypeError         = 310
)
