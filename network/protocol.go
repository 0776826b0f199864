package network

// Message IDs for the room command surface. Client->server mutating
// commands carry the host bearer secret in their payload.
const (
	MsgTypeHeartbeat = 1

	MsgTypeClaimHost  = 100
	MsgTypeHostSecret = 101

	MsgTypeAdvancePhase = 110
	MsgTypeSkipTurn     = 111
	MsgTypeReorderTurns = 112
	MsgTypeResetGame    = 113

	MsgTypeCreateTeam   = 120
	MsgTypeAssignPlayer = 121

	MsgTypeWingParticipation = 130
	MsgTypeAdjustScore       = 131
	MsgTypeRedoScoring       = 132

	MsgTypeMinigameAction = 140

	MsgTypePauseTimer  = 150
	MsgTypeResumeTimer = 151
	MsgTypeExtendTimer = 152

	MsgTypeSnapshot = 300
	MsgTypeError    = 301
)
