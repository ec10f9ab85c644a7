package opcode

// Instruction IDs the machine itself and the bundled modules know about.
// Gameplay modules may bind any other ID.
const (
	Nop   ID = 0x0000
	Sleep ID = 0x0001
	Jump  ID = 0x0002

	SetGlobalInt   ID = 0x0004
	SetGlobalFloat ID = 0x0005
	SetLocalInt    ID = 0x0006
	SetLocalFloat  ID = 0x0007

	AddGlobalInt   ID = 0x0008
	AddGlobalFloat ID = 0x0009
	AddLocalInt    ID = 0x000A
	AddLocalFloat  ID = 0x000B
	SubGlobalInt   ID = 0x000C
	SubGlobalFloat ID = 0x000D
	SubLocalInt    ID = 0x000E
	SubLocalFloat  ID = 0x000F
	MulGlobalInt   ID = 0x0010
	MulGlobalFloat ID = 0x0011
	MulLocalInt    ID = 0x0012
	MulLocalFloat  ID = 0x0013
	DivGlobalInt   ID = 0x0014
	DivGlobalFloat ID = 0x0015
	DivLocalInt    ID = 0x0016
	DivLocalFloat  ID = 0x0017

	GreaterInt        ID = 0x0018 // 0x0018-0x001F
	GreaterFloat      ID = 0x0020 // 0x0020-0x0027
	GreaterEqualInt   ID = 0x0028 // 0x0028-0x002F
	GreaterEqualFloat ID = 0x0030 // 0x0030-0x0037
	EqualInt          ID = 0x0038 // 0x0038-0x003C
	EqualFloat        ID = 0x0042 // 0x0042-0x0046

	JumpIfFalse    ID = 0x004D
	EndThread      ID = 0x004E
	StartThread    ID = 0x004F
	Gosub          ID = 0x0050
	Return         ID = 0x0051
	AddVarInt      ID = 0x0058 // 0x0058-0x005B
	SubVarInt      ID = 0x0060 // 0x0060-0x0063
	MulVarFloat    ID = 0x0069
	SetVarInt      ID = 0x0084 // 0x0084-0x0087
	FloorToInt     ID = 0x008C
	If             ID = 0x00D6
	StartMission   ID = 0x00D7
	MissionOver    ID = 0x00D8
	SetDeathArrest ID = 0x0111
	WastedOrBusted ID = 0x0112
	MissionFlag    ID = 0x0180
	Sqrt           ID = 0x01FB
	RandomFloat    ID = 0x0208
	RandomInt      ID = 0x0209
	Call           ID = 0x02CD
	NameThread     ID = 0x03A4
	LaunchMission  ID = 0x0417

	CreateChar      ID = 0x009A
	DeleteChar      ID = 0x009B
	GetCharCoords   ID = 0x00A0
	IsCharInArea2D  ID = 0x00A3
	CharGoToCoord2D ID = 0x0211
)
