package games

import (
	"container/heap"
	"fmt"
)

// queuedAction is one pending use of an ability during night resolution.
type queuedAction struct {
	actor     *Player
	ability   *Ability
	args      []string
	priority  int
	seq       int
	cancelled bool
}

// actionQueue is a min-heap on (priority, seq).
type actionQueue []*queuedAction

func (q actionQueue) Len() int { return len(q) }

func (q actionQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority < q[j].priority
	}
	return q[i].seq < q[j].seq
}

func (q actionQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *actionQueue) Push(x interface{}) { *q = append(*q, x.(*queuedAction)) }

func (q *actionQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// resolver runs one night's actions against the game.
type resolver struct {
	g       *Game
	q       actionQueue
	seq     int
	pending map[string]*queuedAction
	// acted holds every player whose action has been dequeued this pass.
	acted map[string]bool
	// during is the days_passed value of the night being resolved.
	during float64
}

func newResolver(g *Game) *resolver {
	return &resolver{
		g:       g,
		pending: make(map[string]*queuedAction),
		acted:   make(map[string]bool),
		during:  g.State.DaysPassed - 0.5,
	}
}

// push queues an action. Actions pushed while resolving are picked up in the
// same pass.
func (r *resolver) push(actor *Player, ability *Ability, args []string) {
	item := &queuedAction{actor: actor, ability: ability, args: args, priority: ability.Priority, seq: r.seq}
	r.seq++
	r.pending[actor.Name] = item
	heap.Push(&r.q, item)
}

// replace swaps the actor's pending action for a new one. It reports false,
// and queues nothing, when the actor has already acted this night.
func (r *resolver) replace(actor *Player, ability *Ability, args []string) bool {
	if r.acted[actor.Name] {
		return false
	}
	if old, ok := r.pending[actor.Name]; ok {
		old.cancelled = true
	}
	r.push(actor, ability, args)
	return true
}

// collect queues the chosen action of every player who can act.
func (r *resolver) collect() error {
	for _, p := range r.g.State.Players {
		if !p.CanAct() || p.Action.IsNothing() {
			continue
		}
		a, err := MustAbility(p.Action.Ability)
		if err != nil {
			return err
		}
		r.push(p, a, p.Action.Args)
	}
	return nil
}

// run pops actions in priority order and applies their effects.
func (r *resolver) run() error {
	night := int(r.during)
	for r.q.Len() > 0 {
		item := heap.Pop(&r.q).(*queuedAction)
		if item.cancelled {
			continue
		}
		delete(r.pending, item.actor.Name)
		r.acted[item.actor.Name] = true

		line := item.ability.RenderFeedback(item.actor.Name, item.args, false)
		if item.actor.Roleblocked {
			r.g.logAction(night, fmt.Sprintf("%s (roleblocked)", line))
			continue
		}
		r.g.logAction(night, line)
		item.actor.markUsed(item.ability.Name)

		for _, effect := range item.ability.Effects {
			if err := r.apply(effect, item); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolveNight runs every chosen action of the night that just ended.
func (g *Game) resolveNight() error {
	r := newResolver(g)
	if err := r.collect(); err != nil {
		return err
	}
	return r.run()
}

func (g *Game) logAction(day int, line string) {
	if g.State.ActionLog == nil {
		g.State.ActionLog = make(map[int][]string)
	}
	g.State.ActionLog[day] = append(g.State.ActionLog[day], line)
}
