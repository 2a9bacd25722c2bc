package engine

// Frozen rule constants. Any change here changes simulation outcomes for
// existing seeds and input logs, so records produced before the change will
// no longer replay. Distances are centimetres, probabilities basis points.
const (
	PitchLength int64 = 10500
	PitchWidth  int64 = 6800
	GoalWidth   int64 = 732
	GoalCenterY int64 = PitchWidth / 2

	BPSScale int64 = 10000

	// Ball control and contact ranges.
	ControlRadius int64 = 150
	TackleRange   int64 = 250
	SkillRange    int64 = 300

	// Legal action ranges; attempts beyond them are no-ops.
	MaxPassDistance int64 = 4000
	MaxShotDistance int64 = 3500

	// Movement per tick: BaseStep + pace*PaceStepPercent/100.
	BaseStep        int64 = 30
	PaceStepPercent int64 = 40

	// Ball drift after a failed pass, and its per-tick decay (numerator over 10).
	LooseBallSpeed int64 = 60
	BallDecayNum   int64 = 9

	// Sprint: fixed cost, pace boost and boost window in ticks.
	SprintStaminaCost int64  = 15
	SprintPaceBoost   int64  = 15
	SprintTicks       uint64 = 30

	// Stamina recovery and exertion.
	StaminaMax            int64  = 100
	StaminaRecoveryTicks  uint64 = 20
	StaminaRecoveryAmount int64  = 1
	ShotExertion          int64  = 1
	TackleExertion        int64  = 2
	SkillExertion         int64  = 1

	// Shot model.
	DefaultShotPower  int64 = 70
	KeeperBaseBPS     int64 = 6000
	KeeperSkillFactor int64 = 50
	KeeperPowerFactor int64 = 20
	KeeperMinBPS      int64 = 500
	KeeperMaxBPS      int64 = 9500

	// Tackle model.
	FoulBaseBPS     int64 = 1200
	FoulSkillFactor int64 = 30
	FoulMaxBPS      int64 = 6000
	RedCardBPS      int64 = 300
	YellowCardBPS   int64 = 2500

	// Skill move success per dribbling point, and the tackle shield it buys.
	SkillFactorBPS   int64  = 80
	SkillShieldTicks uint64 = 20

	// Loose-ball contest when both sides are within ControlRadius:
	// home wins with clamp(5000 + 25*edge, 1000, 9000) where edge compares
	// dribbling+physical.
	ContestBaseBPS    int64 = 5000
	ContestEdgeFactor int64 = 25
	ContestMinBPS     int64 = 1000
	ContestMaxBPS     int64 = 9000

	// A goal within this many ticks of a completed pass credits the passer.
	AssistWindowTicks uint64 = 150
)

// Draws consumed per accepted action kind, taken before resolution.
const (
	PassDraws   = 1
	ShotDraws   = 2
	TackleDraws = 3
	SkillDraws  = 1

	// A loose-ball contest draws once, before any action of the tick.
	ContestDraws = 1
)
