package parser

import (
	"errors"
	"testing"

	"github.com/aluiziolira/go-scrape-channels/models"
	"github.com/stretchr/testify/require"
)

func TestDecodePage(t *testing.T) {
	body := []byte(`{"draw":1,"recordsTotal":2,"data":[
		{"rank":1,"displayname":"alpha","twitchurl":"https://twitch.tv/alpha","logo":"a.png","followers":12345678901234567890,"partner":true,"tags":["x","y"]},
		{"rank":2,"displayname":"beta","twitchurl":"https://twitch.tv/beta","logo":null,"followers":1.50,"partner":false,"tags":[]}
	]}`)

	records, err := DecodePage(body, DefaultRecordKey)
	require.NoError(t, err)
	require.Len(t, records, 2)

	require.Equal(t, []string{"rank", "displayname", "twitchurl", "logo", "followers", "partner", "tags"}, records[0].Keys())

	followers, ok := records[0].Get("followers")
	require.True(t, ok)
	require.Equal(t, models.NumberValue("12345678901234567890"), followers)

	followers, _ = records[1].Get("followers")
	require.Equal(t, "1.50", followers.Text)

	partner, _ := records[0].Get("partner")
	require.Equal(t, models.KindBool, partner.Kind)
	require.Equal(t, "True", partner.CSV())

	logo, _ := records[1].Get("logo")
	require.True(t, logo.IsNull())

	tags, _ := records[0].Get("tags")
	require.Equal(t, models.KindRaw, tags.Kind)
	require.Equal(t, `["x","y"]`, tags.Text)
}

func TestDecodePageMissingOrEmpty(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing key", body: `{"draw":1,"recordsTotal":0}`},
		{name: "null key", body: `{"data":null}`},
		{name: "empty array", body: `{"data":[]}`},
		{name: "empty object", body: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := DecodePage([]byte(tt.body), DefaultRecordKey)
			require.NoError(t, err)
			require.Empty(t, records)
		})
	}
}

func TestDecodePageErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		target error
	}{
		{name: "empty body", body: ``, target: ErrNotObject},
		{name: "top level array", body: `[{"a":1}]`, target: ErrNotObject},
		{name: "html page", body: `<html>blocked</html>`, target: ErrNotObject},
		{name: "data is object", body: `{"data":{"a":1}}`, target: ErrNotArray},
		{name: "record is scalar", body: `{"data":[1,2]}`, target: ErrRecordNotObject},
		{name: "truncated", body: `{"data":[{"a":1},`},
		{name: "trailing data", body: `{"data":[{"displayname":"a"}]} garbage`, target: ErrMalformed},
		{name: "second document", body: `{"data":[]}{"data":[]}`, target: ErrMalformed},
		{name: "stray brace", body: `{"data":[{"a":1}]}}`, target: ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePage([]byte(tt.body), DefaultRecordKey)
			require.Error(t, err)
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Fatalf("error = %v, want %v", err, tt.target)
			}
		})
	}
}

func TestDecodePageAllowsTrailingWhitespace(t *testing.T) {
	records, err := DecodePage([]byte("{\"data\":[{\"displayname\":\"a\"}]}\r\n \t"), DefaultRecordKey)
	require.NoError(t, err)
	require.Len(t, records, 1)
}
