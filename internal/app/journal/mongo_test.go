package journal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRangeFilter(t *testing.T) {
	owner := primitive.NewObjectID()
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, bson.M{"userId": owner}, rangeFilter(owner, nil, nil))
	assert.Equal(t,
		bson.M{"userId": owner, "entryDate": bson.M{"$gte": start}},
		rangeFilter(owner, &start, nil))
	assert.Equal(t,
		bson.M{"userId": owner, "entryDate": bson.M{"$gte": start, "$lte": end}},
		rangeFilter(owner, &start, &end))
}

func TestFindOptions(t *testing.T) {
	opts := findOptions(Query{})
	require.NotNil(t, opts.Limit)
	assert.EqualValues(t, DefaultLimit, *opts.Limit)
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}, opts.Sort)

	opts = findOptions(Query{SortBy: "entryDate", Order: "asc", Limit: 5})
	assert.EqualValues(t, 5, *opts.Limit)
	assert.Equal(t, bson.D{{Key: "entryDate", Value: 1}, {Key: "_id", Value: 1}}, opts.Sort)

	opts = findOptions(Query{SortBy: "title"})
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}, opts.Sort)
}

func TestDocRoundTrip(t *testing.T) {
	when := time.Date(2024, 3, 14, 8, 0, 0, 0, time.UTC)
	mood := MoodOkay
	in := Entry{
		ID:        primitive.NewObjectID().Hex(),
		OwnerID:   primitive.NewObjectID().Hex(),
		Title:     "Notes",
		Content:   "body",
		EntryDate: when,
		Mood:      &mood,
		Tags:      []string{"a", "b"},
		CreatedAt: when,
		UpdatedAt: when,
	}
	doc, err := toDoc(in)
	require.NoError(t, err)
	assert.Equal(t, in, doc.entry())

	in.Mood, in.Tags = nil, nil
	doc, err = toDoc(in)
	require.NoError(t, err)
	assert.Nil(t, doc.Mood)
	assert.Equal(t, []string{}, doc.entry().Tags)

	_, err = toDoc(Entry{ID: "nope", OwnerID: in.OwnerID})
	assert.Error(t, err)
}
