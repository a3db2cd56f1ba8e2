package board

import (
	"context"
	"sort"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// State tracks one drag gesture through its lifecycle. A board accepts a
// new drag whenever no gesture is in flight.
type State int

const (
	StateIdle State = iota
	StatePending
	StateCommitted
	StateRolledBack
)

var (
	ErrGesturePending = errors.New("a drag gesture is already pending")
	ErrNoGesture      = errors.New("no drag gesture is pending")
	ErrUnknownCard    = errors.New("card not on the board")
	ErrUnknownColumn  = errors.New("column not on the board")
)

// Card is the client-side projection of a lead on the board.
type Card struct {
	ID       uuid.UUID
	Name     string
	StageID  uuid.UUID
	Position int
}

// Move relocates one card to (StageID, Position).
type Move struct {
	ID       uuid.UUID `json:"id"`
	StageID  uuid.UUID `json:"stageId"`
	Position int       `json:"position"`
}

// Reorderer persists a move batch and answers the canonical card list the
// board reconciles against.
type Reorderer interface {
	Reorder(ctx context.Context, moves []Move) ([]Card, error)
}

// Board holds the optimistic client state for one user's pipeline. A drag
// is applied locally first, then committed through the Reorderer; a failed
// commit restores the pre-drag snapshot.
type Board struct {
	columnOrder []uuid.UUID
	columns     map[uuid.UUID][]Card

	state        State
	pendingMoves []Move
	snapshot     map[uuid.UUID][]Card

	reorderer Reorderer
}

// New builds a board from the column order and the canonical card list.
// Cards in unknown columns are dropped, mirroring how stageless leads are
// not rendered.
func New(columnOrder []uuid.UUID, cards []Card, reorderer Reorderer) *Board {
	b := &Board{
		columnOrder: append([]uuid.UUID(nil), columnOrder...),
		columns:     make(map[uuid.UUID][]Card, len(columnOrder)),
		state:       StateIdle,
		reorderer:   reorderer,
	}
	for _, id := range b.columnOrder {
		b.columns[id] = nil
	}
	for _, c := range cards {
		if _, ok := b.columns[c.StageID]; !ok {
			continue
		}
		b.columns[c.StageID] = append(b.columns[c.StageID], c)
	}
	for id := range b.columns {
		cards := b.columns[id]
		sort.SliceStable(cards, func(i, j int) bool {
			return cards[i].Position < cards[j].Position
		})
		b.columns[id] = cards
	}
	return b
}

func (b *Board) State() State {
	return b.state
}

// Column returns the cards of one column in display order.
func (b *Board) Column(stageID uuid.UUID) []Card {
	return append([]Card(nil), b.columns[stageID]...)
}

// Cards returns every card in board order: columns left to right, cards top
// to bottom.
func (b *Board) Cards() []Card {
	var out []Card
	for _, id := range b.columnOrder {
		out = append(out, b.columns[id]...)
	}
	return out
}

// Drag applies the gesture optimistically and stages the move batch for
// Commit. The batch reindexes every card in the touched columns so the
// server ends up with exactly the positions the user sees. toIndex is
// clamped to the destination column's bounds. Dropping a card on its own
// position returns an empty batch and leaves the board idle.
func (b *Board) Drag(cardID, toStage uuid.UUID, toIndex int) ([]Move, error) {
	if b.state == StatePending {
		return nil, ErrGesturePending
	}
	if _, ok := b.columns[toStage]; !ok {
		return nil, ErrUnknownColumn
	}

	fromStage, fromIndex, ok := b.locate(cardID)
	if !ok {
		return nil, ErrUnknownCard
	}

	// Dropping a card back where it came from is not a gesture: nothing to
	// persist, no state transition.
	if fromStage == toStage && fromIndex == toIndex {
		return nil, nil
	}

	b.takeSnapshot()

	card := b.columns[fromStage][fromIndex]
	b.columns[fromStage] = append(
		b.columns[fromStage][:fromIndex],
		b.columns[fromStage][fromIndex+1:]...,
	)

	dest := b.columns[toStage]
	if toIndex < 0 {
		toIndex = 0
	}
	if toIndex > len(dest) {
		toIndex = len(dest)
	}
	card.StageID = toStage
	dest = append(dest[:toIndex], append([]Card{card}, dest[toIndex:]...)...)
	b.columns[toStage] = dest

	touched := []uuid.UUID{fromStage}
	if toStage != fromStage {
		touched = append(touched, toStage)
	}

	var moves []Move
	for _, stageID := range touched {
		for i := range b.columns[stageID] {
			b.columns[stageID][i].Position = i
			moves = append(moves, Move{
				ID:       b.columns[stageID][i].ID,
				StageID:  stageID,
				Position: i,
			})
		}
	}

	b.pendingMoves = moves
	b.state = StatePending
	return moves, nil
}

// Commit sends the pending batch. On success the board replaces its state
// with the canonical server response; on failure it restores the pre-drag
// snapshot and reports the error.
func (b *Board) Commit(ctx context.Context) error {
	if b.state != StatePending {
		return ErrNoGesture
	}

	canonical, err := b.reorderer.Reorder(ctx, b.pendingMoves)
	if err != nil {
		b.restoreSnapshot()
		b.state = StateRolledBack
		b.pendingMoves = nil
		return err
	}

	b.reconcile(canonical)
	b.state = StateCommitted
	b.pendingMoves = nil
	b.snapshot = nil
	return nil
}

// Rollback abandons the pending gesture without contacting the server.
func (b *Board) Rollback() error {
	if b.state != StatePending {
		return ErrNoGesture
	}
	b.restoreSnapshot()
	b.state = StateRolledBack
	b.pendingMoves = nil
	return nil
}

func (b *Board) locate(cardID uuid.UUID) (uuid.UUID, int, bool) {
	for stageID, cards := range b.columns {
		for i, c := range cards {
			if c.ID == cardID {
				return stageID, i, true
			}
		}
	}
	return uuid.Nil, 0, false
}

func (b *Board) takeSnapshot() {
	b.snapshot = make(map[uuid.UUID][]Card, len(b.columns))
	for id, cards := range b.columns {
		b.snapshot[id] = append([]Card(nil), cards...)
	}
}

func (b *Board) restoreSnapshot() {
	if b.snapshot == nil {
		return
	}
	b.columns = b.snapshot
	b.snapshot = nil
}

func (b *Board) reconcile(canonical []Card) {
	for id := range b.columns {
		b.columns[id] = nil
	}
	for _, c := range canonical {
		if _, ok := b.columns[c.StageID]; !ok {
			continue
		}
		b.columns[c.StageID] = append(b.columns[c.StageID], c)
	}
}
