package database

import (
	"testing"

	"github.com/loremaker/loregraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEdgesNewEdgesDBHandler(t *testing.T) {
	database := initDB(t)

	// Nodes table first, edges reference it
	_, err := NewNodesDBHandler(database, true)
	require.NoError(t, err)

	t.Run("Valid call NewEdgesDBHandler", func(t *testing.T) {
		edgesDbHandler, err := NewEdgesDBHandler(database, true)
		assert.NoError(t, err, "Expected NewEdgesDBHandler to not return an error")
		require.NotNil(t, edgesDbHandler, "Expected NewEdgesDBHandler to return a non-nil instance")
	})

	t.Run("Invalid call NewEdgesDBHandler with nil database", func(t *testing.T) {
		_, err := NewEdgesDBHandler(nil, false)
		assert.Error(t, err, "Expected error when creating EdgesDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})
}

func upsertTestNode(t *testing.T, nodes *NodesDBHandler, label model.Label, game, name string) *model.Node {
	node := &model.Node{
		Label:     label,
		Key:       model.NodeKey(game, name),
		GameTitle: game,
		Name:      name,
	}
	require.NoError(t, nodes.UpsertNode(node))
	return node
}

func TestEdgesInsert(t *testing.T) {
	nodes, edges, _ := initHandlers(t)
	require.NoError(t, nodes.ClearNodes())

	kael := upsertTestNode(t, nodes, model.LabelCharacter, "G", "카엘")
	ara := upsertTestNode(t, nodes, model.LabelCharacter, "G", "아라")

	t.Run("Insert edge", func(t *testing.T) {
		edge := &model.Edge{
			SourceID: kael.ID,
			TargetID: ara.ID,
			Type:     model.RelationTrusts,
		}
		err := edges.InsertEdge(edge)
		assert.NoError(t, err, "Expected InsertEdge to not return an error")
		assert.True(t, edge.Inserted, "Expected first insert to report inserted")
		assert.NotZero(t, edge.ID)
	})

	t.Run("Re-inserting the same triple is idempotent", func(t *testing.T) {
		edge := &model.Edge{
			SourceID: kael.ID,
			TargetID: ara.ID,
			Type:     model.RelationTrusts,
		}
		err := edges.InsertEdge(edge)
		assert.NoError(t, err)
		assert.False(t, edge.Inserted, "Expected duplicate insert to report the existing edge")

		count, err := edges.CountEdgesByType(model.RelationTrusts)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), count, "Expected exactly one TRUSTS edge")
	})

	t.Run("Same endpoints with a different type is a new edge", func(t *testing.T) {
		edge := &model.Edge{
			SourceID: kael.ID,
			TargetID: ara.ID,
			Type:     model.EdgeParticipatesIn,
		}
		err := edges.InsertEdge(edge)
		assert.NoError(t, err)
		assert.True(t, edge.Inserted)
	})

	t.Run("Edge to a missing node is rejected", func(t *testing.T) {
		edge := &model.Edge{
			SourceID: kael.ID,
			TargetID: 999999,
			Type:     model.RelationHates,
		}
		err := edges.InsertEdge(edge)
		assert.Error(t, err, "Expected foreign key violation for dangling target")
	})
}

func TestEdgesSelect(t *testing.T) {
	nodes, edges, _ := initHandlers(t)
	require.NoError(t, nodes.ClearNodes())

	chapter := upsertTestNode(t, nodes, model.LabelChapter, "G", "1")
	goal := upsertTestNode(t, nodes, model.LabelGoal, "G", "탐사")
	location := upsertTestNode(t, nodes, model.LabelLocation, "G", "Kepler")

	require.NoError(t, edges.InsertEdge(&model.Edge{SourceID: chapter.ID, TargetID: goal.ID, Type: model.EdgeHasGoal}))
	require.NoError(t, edges.InsertEdge(&model.Edge{SourceID: chapter.ID, TargetID: location.ID, Type: model.EdgeTakesPlaceAt}))

	t.Run("Select edges from node", func(t *testing.T) {
		outgoing, err := edges.SelectEdgesFromNode(chapter.ID)
		assert.NoError(t, err)
		assert.Len(t, outgoing, 2)
	})

	t.Run("Select edges to node", func(t *testing.T) {
		incoming, err := edges.SelectEdgesToNode(goal.ID)
		assert.NoError(t, err)
		require.Len(t, incoming, 1)
		assert.Equal(t, model.EdgeHasGoal, incoming[0].Type)
	})

	t.Run("Node without edges yields empty lists", func(t *testing.T) {
		isolated := upsertTestNode(t, nodes, model.LabelCharacter, "G", "외톨이")
		outgoing, err := edges.SelectEdgesFromNode(isolated.ID)
		assert.NoError(t, err)
		assert.Empty(t, outgoing)
	})
}

func TestEdgesSelectCharacterEdges(t *testing.T) {
	nodes, edges, _ := initHandlers(t)
	require.NoError(t, nodes.ClearNodes())

	kael := upsertTestNode(t, nodes, model.LabelCharacter, "G", "카엘")
	ara := upsertTestNode(t, nodes, model.LabelCharacter, "G", "아라")
	location := upsertTestNode(t, nodes, model.LabelLocation, "G", "Kepler")
	other := upsertTestNode(t, nodes, model.LabelCharacter, "H", "누군가")

	require.NoError(t, edges.InsertEdge(&model.Edge{SourceID: kael.ID, TargetID: ara.ID, Type: model.RelationHostileWith}))
	require.NoError(t, edges.InsertEdge(&model.Edge{SourceID: kael.ID, TargetID: location.ID, Type: model.EdgeParticipatesIn}))
	require.NoError(t, edges.InsertEdge(&model.Edge{SourceID: other.ID, TargetID: other.ID, Type: model.RelationTrusts}))

	t.Run("Only character pairs of the requested game are returned", func(t *testing.T) {
		relations, err := edges.SelectCharacterEdges("G")
		assert.NoError(t, err)
		require.Len(t, relations, 1)
		assert.Equal(t, "카엘", relations[0].Source)
		assert.Equal(t, model.RelationHostileWith, relations[0].Type)
		assert.Equal(t, "아라", relations[0].Target)
	})
}

func TestEdgesDelete(t *testing.T) {
	nodes, edges, _ := initHandlers(t)
	require.NoError(t, nodes.ClearNodes())

	kael := upsertTestNode(t, nodes, model.LabelCharacter, "G", "카엘")
	ara := upsertTestNode(t, nodes, model.LabelCharacter, "G", "아라")

	edge := &model.Edge{SourceID: kael.ID, TargetID: ara.ID, Type: model.RelationTrusts}
	require.NoError(t, edges.InsertEdge(edge))

	err := edges.DeleteEdge(edge.ID)
	assert.NoError(t, err)

	count, err := edges.CountEdges()
	assert.NoError(t, err)
	assert.Zero(t, count)
}
