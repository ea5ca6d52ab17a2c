package bridge

import "errors"

type RebindResult int

const (
	RebindNotFound RebindResult = iota
	RebindAlreadyConnected
	Rebound
)

func (r RebindResult) String() string {
	switch r {
	case RebindNotFound:
		return "not_found"
	case RebindAlreadyConnected:
		return "already_connected"
	case Rebound:
		return "rebound"
	}
	return "unknown"
}

// Rebind attaches conn to a player that lost its connection. A player that
// is still connected keeps its current one.
func (g *Game) Rebind(pid string, conn Conn) RebindResult {
	player, ok := g.Players[pid]
	if !ok {
		return RebindNotFound
	}
	if player.Connected() {
		return RebindAlreadyConnected
	}
	player.Conn = conn
	return Rebound
}

// ClearConnection detaches the player's connection if it is still conn.
// A nil conn detaches whatever is bound.
func (g *Game) ClearConnection(pid string, conn Conn) bool {
	player, ok := g.Players[pid]
	if !ok || player.Conn == nil {
		return false
	}
	if conn != nil && player.Conn != conn {
		return false
	}
	player.Conn = nil
	return true
}

// ForceRemove takes a player out of the room in any phase. Outside the
// lobby the deal in progress is abandoned first.
func (g *Game) ForceRemove(pid string) error {
	if _, ok := g.Players[pid]; !ok {
		return ErrPlayerNotFound
	}
	if g.Phase != PhaseLobby {
		g.abandonDeal()
	}
	g.removePlayer(pid)
	return nil
}

// Broadcast delivers each connected player its own view.
func (g *Game) Broadcast() error {
	var errs []error
	for _, pid := range g.SeatOrder {
		player := g.Players[pid]
		if !player.Connected() {
			continue
		}
		if err := player.Conn.Deliver(g.ViewFor(pid)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
