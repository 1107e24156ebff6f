package battle

import "strings"

// BattleClass identifies a fighter's class perk set.
type BattleClass string

const (
	ClassWarrior BattleClass = "warrior"
	ClassVolkhv  BattleClass = "volkhv"
	ClassHunter  BattleClass = "hunter"
	ClassBerserk BattleClass = "berserk"
)

// Fighter is the transient combat projection of a player or a monster
// template. It is built per battle and never persisted.
type Fighter struct {
	ID      string
	Name    string
	Level   int
	Power   float64
	Defense float64 // 0..1 mitigation scalar
	Class   BattleClass
}

// MaxHP returns the fighter's starting hit points.
func (f Fighter) MaxHP() float64 { return 100 + float64(f.Level)*10 }

// ToBattleClass maps a free-form class label to a BattleClass. It accepts
// both English and Russian spellings and falls back to warrior, mirroring
// how arena opponents derive a class from an arbitrary id.
func ToBattleClass(input string) BattleClass {
	v := strings.ToLower(input)
	switch {
	case strings.Contains(v, "vol") || strings.Contains(v, "вол"):
		return ClassVolkhv
	case strings.Contains(v, "hun") || strings.Contains(v, "охот"):
		return ClassHunter
	case strings.Contains(v, "ber") || strings.Contains(v, "бер"):
		return ClassBerserk
	default:
		return ClassWarrior
	}
}
