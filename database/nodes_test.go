package database

import (
	"testing"
	"time"

	"github.com/loremaker/loregraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodesNewNodesDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewNodesDBHandler", func(t *testing.T) {
		nodesDbHandler, err := NewNodesDBHandler(database, true)
		assert.NoError(t, err, "Expected NewNodesDBHandler to not return an error")
		require.NotNil(t, nodesDbHandler, "Expected NewNodesDBHandler to return a non-nil instance")
		require.NotNil(t, nodesDbHandler.db, "Expected NewNodesDBHandler to have a non-nil database instance")
	})

	t.Run("Invalid call NewNodesDBHandler with nil database", func(t *testing.T) {
		_, err := NewNodesDBHandler(nil, false)
		assert.Error(t, err, "Expected error when creating NodesDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})
}

func TestNodesUpsert(t *testing.T) {
	nodes, _, _ := initHandlers(t)
	require.NoError(t, nodes.ClearNodes())

	t.Run("Upsert creates a new node", func(t *testing.T) {
		node := &model.Node{
			Label:     model.LabelCharacter,
			Key:       model.NodeKey("별의 유산", "카엘"),
			GameTitle: "별의 유산",
			Name:      "카엘",
			Properties: model.Metadata{
				"role": "Protagonist",
			},
		}

		err := nodes.UpsertNode(node)
		assert.NoError(t, err, "Expected UpsertNode to not return an error")
		assert.True(t, node.Inserted, "Expected first upsert to report inserted")
		assert.NotZero(t, node.ID, "Expected upserted node to have an ID")
		assert.NotEmpty(t, node.RID, "Expected upserted node to have a RID")
		assert.WithinDuration(t, node.CreatedAt, time.Now(), 2*time.Second, "Expected CreatedAt to be set")
	})

	t.Run("Upsert with the same key merges instead of duplicating", func(t *testing.T) {
		first := &model.Node{
			Label:      model.LabelCharacter,
			Key:        model.NodeKey("별의 유산", "아라"),
			GameTitle:  "별의 유산",
			Name:       "아라",
			Properties: model.Metadata{"role": "Guardian"},
		}
		require.NoError(t, nodes.UpsertNode(first))
		require.True(t, first.Inserted)

		second := &model.Node{
			Label:      model.LabelCharacter,
			Key:        model.NodeKey("별의 유산", "아라"),
			GameTitle:  "별의 유산",
			Name:       "아라",
			Properties: model.Metadata{"role": "Antagonist"},
		}
		err := nodes.UpsertNode(second)
		assert.NoError(t, err)
		assert.False(t, second.Inserted, "Expected second upsert to report an update")
		assert.Equal(t, first.ID, second.ID, "Expected both upserts to address the same row")
		assert.Equal(t, "Antagonist", second.Properties.String("role"), "Expected properties to be refreshed, last write wins")
	})

	t.Run("Same name under different labels stays separate", func(t *testing.T) {
		character := &model.Node{
			Label:     model.LabelCharacter,
			Key:       model.NodeKey("별의 유산", "Kepler"),
			GameTitle: "별의 유산",
			Name:      "Kepler",
		}
		location := &model.Node{
			Label:     model.LabelLocation,
			Key:       model.NodeKey("별의 유산", "Kepler"),
			GameTitle: "별의 유산",
			Name:      "Kepler",
		}

		require.NoError(t, nodes.UpsertNode(character))
		require.NoError(t, nodes.UpsertNode(location))
		assert.NotEqual(t, character.ID, location.ID, "Expected distinct nodes per label")
	})
}

func TestNodesSelect(t *testing.T) {
	nodes, _, _ := initHandlers(t)
	require.NoError(t, nodes.ClearNodes())

	number := 1
	chapter := &model.Node{
		Label:     model.LabelChapter,
		Key:       model.NodeKey("별의 유산", "1"),
		GameTitle: "별의 유산",
		Name:      "도착",
		Number:    &number,
	}
	require.NoError(t, nodes.UpsertNode(chapter))

	t.Run("Select node by label and key", func(t *testing.T) {
		found, err := nodes.SelectNode(model.LabelChapter, model.NodeKey("별의 유산", "1"))
		assert.NoError(t, err)
		require.NotNil(t, found, "Expected node to be found")
		assert.Equal(t, "도착", found.Name)
		require.NotNil(t, found.Number)
		assert.Equal(t, 1, *found.Number)
	})

	t.Run("Select missing node yields nil without error", func(t *testing.T) {
		found, err := nodes.SelectNode(model.LabelChapter, model.NodeKey("별의 유산", "99"))
		assert.NoError(t, err, "Expected missing node to not be an error")
		assert.Nil(t, found)
	})

	t.Run("Select node by ID", func(t *testing.T) {
		found, err := nodes.SelectNodeByID(chapter.ID)
		assert.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, chapter.Key, found.Key)
	})

	t.Run("Select nodes by label ordered by number", func(t *testing.T) {
		numberTwo := 2
		second := &model.Node{
			Label:     model.LabelChapter,
			Key:       model.NodeKey("별의 유산", "2"),
			GameTitle: "별의 유산",
			Name:      "탈출",
			Number:    &numberTwo,
		}
		require.NoError(t, nodes.UpsertNode(second))

		chapters, err := nodes.SelectNodesByLabel("별의 유산", model.LabelChapter)
		assert.NoError(t, err)
		require.Len(t, chapters, 2)
		assert.Equal(t, "도착", chapters[0].Name)
		assert.Equal(t, "탈출", chapters[1].Name)
	})

	t.Run("Select nodes by label scopes to the game", func(t *testing.T) {
		chapters, err := nodes.SelectNodesByLabel("다른 게임", model.LabelChapter)
		assert.NoError(t, err)
		assert.Empty(t, chapters)
	})
}

func TestNodesNeighbors(t *testing.T) {
	nodes, edges, _ := initHandlers(t)
	require.NoError(t, nodes.ClearNodes())

	game := &model.Node{Label: model.LabelGame, Key: model.NodeKey("별의 유산"), GameTitle: "별의 유산", Name: "별의 유산"}
	chapter := &model.Node{Label: model.LabelChapter, Key: model.NodeKey("별의 유산", "1"), GameTitle: "별의 유산", Name: "도착"}
	location := &model.Node{Label: model.LabelLocation, Key: model.NodeKey("별의 유산", "Kepler Station"), GameTitle: "별의 유산", Name: "Kepler Station"}
	for _, node := range []*model.Node{game, chapter, location} {
		require.NoError(t, nodes.UpsertNode(node))
	}

	require.NoError(t, edges.InsertEdge(&model.Edge{SourceID: game.ID, TargetID: chapter.ID, Type: model.EdgeHasChapter}))
	require.NoError(t, edges.InsertEdge(&model.Edge{SourceID: chapter.ID, TargetID: location.ID, Type: model.EdgeTakesPlaceAt}))

	t.Run("Neighbors cover both directions", func(t *testing.T) {
		neighbors, err := nodes.SelectNeighbors(chapter.ID)
		assert.NoError(t, err)
		require.Len(t, neighbors, 2)

		byType := map[model.EdgeType]*model.Neighbor{}
		for _, neighbor := range neighbors {
			byType[neighbor.EdgeType] = neighbor
		}

		require.Contains(t, byType, model.EdgeTakesPlaceAt)
		assert.Equal(t, "out", byType[model.EdgeTakesPlaceAt].Direction)
		assert.Equal(t, "Kepler Station", byType[model.EdgeTakesPlaceAt].Node.Name)

		require.Contains(t, byType, model.EdgeHasChapter)
		assert.Equal(t, "in", byType[model.EdgeHasChapter].Direction)
		assert.Equal(t, "별의 유산", byType[model.EdgeHasChapter].Node.Name)
	})
}

func TestNodesDelete(t *testing.T) {
	nodes, edges, _ := initHandlers(t)
	require.NoError(t, nodes.ClearNodes())

	game := &model.Node{Label: model.LabelGame, Key: model.NodeKey("G"), GameTitle: "G", Name: "G"}
	chapter := &model.Node{Label: model.LabelChapter, Key: model.NodeKey("G", "1"), GameTitle: "G", Name: "One"}
	event := &model.Node{Label: model.LabelEvent, Key: model.NodeKey("G", "1", "신호"), GameTitle: "G", Name: "신호"}
	goal := &model.Node{Label: model.LabelGoal, Key: model.NodeKey("G", "1", "탐사"), GameTitle: "G", Name: "탐사"}
	location := &model.Node{Label: model.LabelLocation, Key: model.NodeKey("G", "Kepler"), GameTitle: "G", Name: "Kepler"}
	for _, node := range []*model.Node{game, chapter, event, goal, location} {
		require.NoError(t, nodes.UpsertNode(node))
	}

	require.NoError(t, edges.InsertEdge(&model.Edge{SourceID: game.ID, TargetID: chapter.ID, Type: model.EdgeHasChapter}))
	require.NoError(t, edges.InsertEdge(&model.Edge{SourceID: chapter.ID, TargetID: event.ID, Type: model.EdgeContainsEvent}))
	require.NoError(t, edges.InsertEdge(&model.Edge{SourceID: chapter.ID, TargetID: goal.ID, Type: model.EdgeHasGoal}))
	require.NoError(t, edges.InsertEdge(&model.Edge{SourceID: chapter.ID, TargetID: location.ID, Type: model.EdgeTakesPlaceAt}))

	t.Run("DeleteChapterChildren removes owned nodes only", func(t *testing.T) {
		deleted, err := nodes.DeleteChapterChildren(chapter.ID)
		assert.NoError(t, err)
		assert.Equal(t, 2, deleted, "Expected the event and goal to be deleted")

		remaining, err := nodes.SelectNode(model.LabelLocation, model.NodeKey("G", "Kepler"))
		assert.NoError(t, err)
		assert.NotNil(t, remaining, "Expected the shared location to survive")
	})

	t.Run("DeleteNode cascades to edges", func(t *testing.T) {
		err := nodes.DeleteNode(chapter.ID)
		assert.NoError(t, err)

		remaining, err := edges.SelectEdgesFromNode(game.ID)
		assert.NoError(t, err)
		assert.Empty(t, remaining, "Expected the HAS_CHAPTER edge to cascade")
	})

	t.Run("ClearNodes empties the graph", func(t *testing.T) {
		require.NoError(t, nodes.ClearNodes())

		nodeCount, err := nodes.CountNodes()
		assert.NoError(t, err)
		assert.Zero(t, nodeCount)

		edgeCount, err := edges.CountEdges()
		assert.NoError(t, err)
		assert.Zero(t, edgeCount)
	})
}

func TestNodesCount(t *testing.T) {
	nodes, _, _ := initHandlers(t)
	require.NoError(t, nodes.ClearNodes())

	for _, name := range []string{"카엘", "아라"} {
		node := &model.Node{
			Label:     model.LabelCharacter,
			Key:       model.NodeKey("G", name),
			GameTitle: "G",
			Name:      name,
		}
		require.NoError(t, nodes.UpsertNode(node))
	}

	count, err := nodes.CountNodes()
	assert.NoError(t, err)
	assert.Equal(t, int64(2), count)

	characterCount, err := nodes.CountNodesByLabel(model.LabelCharacter)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), characterCount)

	gameCount, err := nodes.CountNodesByLabel(model.LabelGame)
	assert.NoError(t, err)
	assert.Zero(t, gameCount)
}
