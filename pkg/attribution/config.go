// Package attribution implements the Piece Attribution component: per-piece role
// classification from a static-evaluator dump, and per-move delta tracking of piece identity,
// tags, and roles along a move line.
package attribution

// Config carries the role-classification thresholds. All have spec-mandated defaults.
type Config struct {
	PassiveMoveThreshold     int // below this legal-move count from its square, a piece is passive.
	ActiveMoveThreshold      int // above this legal-move count, a piece is active.
	DominantKeySquares       int // key squares controlled to qualify as dominant.
	AttackerEnemyCount       int // enemy pieces attacked to qualify as attacker.
	AttackerClassicalCP      int // classical threat-term contribution (cp) to qualify as attacker.
	DefenderFriendlyCount    int // friendly pieces defended to qualify as defender.
}

func DefaultConfig() Config {
	return Config{
		PassiveMoveThreshold:  3,
		ActiveMoveThreshold:   8,
		DominantKeySquares:    3,
		AttackerEnemyCount:    2,
		AttackerClassicalCP:   50,
		DefenderFriendlyCount: 2,
	}
}
