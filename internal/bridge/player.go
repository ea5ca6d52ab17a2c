package bridge

import (
	"strconv"

	"bridge-server/internal/game"
)

type Team int

const (
	TeamNone Team = iota
	TeamDeclarers
	TeamDefenders
)

func (t Team) String() string {
	switch t {
	case TeamDeclarers:
		return "declarers"
	case TeamDefenders:
		return "defenders"
	}
	return "none"
}

// Conn is whatever currently delivers views to a seated player. The game
// only tracks it; closing it is the caller's job.
type Conn interface {
	Deliver(v *View) error
}

type Player struct {
	ID         string
	Name       string
	Team       Team
	Hand       []game.Card
	HandPoints int
	Ready      bool
	Conn       Conn
}

func (p *Player) Connected() bool {
	return p.Conn != nil
}

func (p *Player) resetDeal() {
	p.Team = TeamNone
	p.Hand = nil
	p.HandPoints = 0
	p.Ready = false
}

// dedupeName appends 1, 2, ... to name until no seated player uses it.
func dedupeName(players map[string]*Player, name string) string {
	taken := make(map[string]bool, len(players))
	for _, p := range players {
		taken[p.Name] = true
	}

	candidate := name
	for i := 1; taken[candidate]; i++ {
		candidate = name + strconv.Itoa(i)
	}
	return candidate
}
