package parser

import (
	"testing"

	"github.com/aluiziolira/go-scrape-channels/models"
	"github.com/stretchr/testify/require"
)

func rec(pairs ...string) models.ChannelRecord {
	r := models.ChannelRecord{}
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Fields = append(r.Fields, models.Field{Name: pairs[i], Value: models.StringValue(pairs[i+1])})
	}
	return r
}

func TestColumns(t *testing.T) {
	tests := []struct {
		name     string
		records  []models.ChannelRecord
		expected []string
	}{
		{
			name:     "empty",
			records:  nil,
			expected: []string{},
		},
		{
			name: "logo dropped and leads moved first",
			records: []models.ChannelRecord{
				rec("id", "1", "logo", "x.png", "viewers", "10", "twitchurl", "u", "displayname", "a"),
			},
			expected: []string{"displayname", "twitchurl", "id", "viewers"},
		},
		{
			name: "no logo still reordered",
			records: []models.ChannelRecord{
				rec("rank", "1", "twitchurl", "u", "displayname", "a", "language", "en"),
			},
			expected: []string{"displayname", "twitchurl", "rank", "language"},
		},
		{
			name: "only twitchurl present",
			records: []models.ChannelRecord{
				rec("rank", "1", "twitchurl", "u"),
			},
			expected: []string{"twitchurl", "rank"},
		},
		{
			name: "union in discovery order",
			records: []models.ChannelRecord{
				rec("displayname", "a", "rank", "1"),
				rec("displayname", "b", "followers", "5", "rank", "2"),
			},
			expected: []string{"displayname", "rank", "followers"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, Columns(tt.records))
		})
	}
}

func TestNormalizeFillsMissingCells(t *testing.T) {
	snap := Normalize([]models.ChannelRecord{
		rec("displayname", "a", "rank", "1"),
		rec("followers", "5", "displayname", "b"),
	})

	require.Equal(t, []string{"displayname", "rank", "followers"}, snap.Columns)
	require.Len(t, snap.Rows, 2)
	require.True(t, snap.Rows[0][2].IsNull())
	require.True(t, snap.Rows[1][1].IsNull())
	require.Equal(t, "b", snap.Rows[1][0].Text)
	require.Equal(t, "5", snap.Rows[1][2].Text)
}

func TestNormalizeIdempotent(t *testing.T) {
	input := []models.ChannelRecord{
		rec("logo", "l1", "rank", "1", "displayname", "a", "extra", "e", "twitchurl", "u1"),
		rec("twitchurl", "u2", "logo", "l2", "displayname", "b", "rank", "2", "more", "m"),
	}

	first := Normalize(input)
	second := Normalize(first.Records())

	require.Equal(t, first, second)
	require.NotContains(t, first.Columns, "logo")
	require.Equal(t, []string{"displayname", "twitchurl"}, first.Columns[:2])
}
