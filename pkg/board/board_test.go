package board_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcrm/flowcrm/pkg/board"
)

type reordererFake struct {
	calls [][]board.Move
	reply []board.Card
	err   error
}

func (f *reordererFake) Reorder(_ context.Context, moves []board.Move) ([]board.Card, error) {
	f.calls = append(f.calls, moves)
	if f.err != nil {
		return nil, f.err
	}
	if f.reply != nil {
		return f.reply, nil
	}
	// Echo the moves back as the canonical list, in move order.
	cards := make([]board.Card, 0, len(moves))
	for _, m := range moves {
		cards = append(cards, board.Card{ID: m.ID, StageID: m.StageID, Position: m.Position})
	}
	return cards, nil
}

type fixture struct {
	todo, doing uuid.UUID
	a, b, c     board.Card
	remote      *reordererFake
	board       *board.Board
}

// newFixture sets up A and B in the first column, C in the second.
func newFixture() *fixture {
	f := &fixture{
		todo:   uuid.New(),
		doing:  uuid.New(),
		remote: &reordererFake{},
	}
	f.a = board.Card{ID: uuid.New(), Name: "A", StageID: f.todo, Position: 0}
	f.b = board.Card{ID: uuid.New(), Name: "B", StageID: f.todo, Position: 1}
	f.c = board.Card{ID: uuid.New(), Name: "C", StageID: f.doing, Position: 0}
	f.board = board.New(
		[]uuid.UUID{f.todo, f.doing},
		[]board.Card{f.a, f.b, f.c},
		f.remote,
	)
	return f
}

func TestBoard_DragAcrossColumns_EmitsFullColumnBatch(t *testing.T) {
	f := newFixture()

	moves, err := f.board.Drag(f.b.ID, f.doing, 0)
	require.NoError(t, err)

	// Both touched columns are reindexed in full.
	require.Len(t, moves, 3)
	assert.Equal(t, board.Move{ID: f.a.ID, StageID: f.todo, Position: 0}, moves[0])
	assert.Equal(t, board.Move{ID: f.b.ID, StageID: f.doing, Position: 0}, moves[1])
	assert.Equal(t, board.Move{ID: f.c.ID, StageID: f.doing, Position: 1}, moves[2])
	assert.Equal(t, board.StatePending, f.board.State())
}

func TestBoard_DragWithinColumn_TouchesOneColumn(t *testing.T) {
	f := newFixture()

	moves, err := f.board.Drag(f.b.ID, f.todo, 0)
	require.NoError(t, err)

	require.Len(t, moves, 2)
	assert.Equal(t, board.Move{ID: f.b.ID, StageID: f.todo, Position: 0}, moves[0])
	assert.Equal(t, board.Move{ID: f.a.ID, StageID: f.todo, Position: 1}, moves[1])
}

func TestBoard_DragClampsIndex(t *testing.T) {
	f := newFixture()

	_, err := f.board.Drag(f.a.ID, f.doing, 99)
	require.NoError(t, err)

	col := f.board.Column(f.doing)
	require.Len(t, col, 2)
	assert.Equal(t, "C", col[0].Name)
	assert.Equal(t, "A", col[1].Name)
}

func TestBoard_DragToOwnPositionIsNoOp(t *testing.T) {
	f := newFixture()

	moves, err := f.board.Drag(f.a.ID, f.todo, 0)
	require.NoError(t, err)
	assert.Empty(t, moves)
	assert.Equal(t, board.StateIdle, f.board.State())
	assert.Equal(t, []board.Card{f.a, f.b}, f.board.Column(f.todo))

	// The board is still idle, so a real gesture goes through.
	moves, err = f.board.Drag(f.a.ID, f.doing, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, moves)
	assert.Equal(t, board.StatePending, f.board.State())
}

func TestBoard_DragWhilePending(t *testing.T) {
	f := newFixture()

	_, err := f.board.Drag(f.b.ID, f.doing, 0)
	require.NoError(t, err)

	_, err = f.board.Drag(f.a.ID, f.doing, 0)
	require.ErrorIs(t, err, board.ErrGesturePending)
}

func TestBoard_DragUnknownCard(t *testing.T) {
	f := newFixture()

	_, err := f.board.Drag(uuid.New(), f.doing, 0)
	require.ErrorIs(t, err, board.ErrUnknownCard)
	assert.Equal(t, board.StateIdle, f.board.State())
}

func TestBoard_CommitReconcilesWithServerResponse(t *testing.T) {
	f := newFixture()

	_, err := f.board.Drag(f.b.ID, f.doing, 0)
	require.NoError(t, err)
	require.NoError(t, f.board.Commit(context.Background()))

	assert.Equal(t, board.StateCommitted, f.board.State())
	require.Len(t, f.remote.calls, 1)

	doing := f.board.Column(f.doing)
	require.Len(t, doing, 2)
	assert.Equal(t, f.b.ID, doing[0].ID)
	assert.Equal(t, f.c.ID, doing[1].ID)
}

func TestBoard_FailedCommitRestoresSnapshot(t *testing.T) {
	f := newFixture()
	f.remote.err = assert.AnError

	_, err := f.board.Drag(f.b.ID, f.doing, 0)
	require.NoError(t, err)
	require.ErrorIs(t, f.board.Commit(context.Background()), assert.AnError)

	assert.Equal(t, board.StateRolledBack, f.board.State())

	todo := f.board.Column(f.todo)
	require.Len(t, todo, 2)
	assert.Equal(t, f.a.ID, todo[0].ID)
	assert.Equal(t, f.b.ID, todo[1].ID)
	doing := f.board.Column(f.doing)
	require.Len(t, doing, 1)
	assert.Equal(t, f.c.ID, doing[0].ID)
}

func TestBoard_RollbackAbandonsGesture(t *testing.T) {
	f := newFixture()

	_, err := f.board.Drag(f.b.ID, f.doing, 0)
	require.NoError(t, err)
	require.NoError(t, f.board.Rollback())

	assert.Equal(t, board.StateRolledBack, f.board.State())
	assert.Empty(t, f.remote.calls)
	assert.Len(t, f.board.Column(f.todo), 2)

	// A new drag is allowed after rollback.
	_, err = f.board.Drag(f.a.ID, f.doing, 0)
	require.NoError(t, err)
}

func TestBoard_CommitWithoutGesture(t *testing.T) {
	f := newFixture()
	require.ErrorIs(t, f.board.Commit(context.Background()), board.ErrNoGesture)
	require.ErrorIs(t, f.board.Rollback(), board.ErrNoGesture)
}
