package monitor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractOnlineFromAttribute(t *testing.T) {
	e := NewPageExtractor()
	c := e.Extract(`<shreddit-subreddit-header active="123" subscribers="4567">`)
	require.NotNil(t, c.Online)
	require.Equal(t, 123, *c.Online)
	require.NotNil(t, c.Member)
	require.Equal(t, 4567, *c.Member)
}

func TestExtractOnlineFromText(t *testing.T) {
	e := NewPageExtractor()
	c := e.Extract(`<span>1,234 users online</span>`)
	require.NotNil(t, c.Online)
	require.Equal(t, 1234, *c.Online)
}

func TestExtractOnlineFromJSONBlob(t *testing.T) {
	e := NewPageExtractor()
	c := e.Extract(`{"activeUserCount": 321, "subscriberCount": 98765}`)
	require.NotNil(t, c.Online)
	require.Equal(t, 321, *c.Online)
	require.NotNil(t, c.Member)
	require.Equal(t, 98765, *c.Member)
}

func TestExtractOnlineSelectorFallback(t *testing.T) {
	e := NewPageExtractor()
	body := `<html><body><div class="online-count">Currently 742 watching</div></body></html>`
	c := e.Extract(body)
	require.NotNil(t, c.Online)
	require.Equal(t, 742, *c.Online)
}

func TestExtractMemberMagnitudeSuffixes(t *testing.T) {
	e := NewPageExtractor()

	c := e.Extract(`<span>89.5k members</span>`)
	require.NotNil(t, c.Member)
	require.Equal(t, 89500, *c.Member)

	c = e.Extract(`<span>1.2M subscribers</span>`)
	require.NotNil(t, c.Member)
	require.Equal(t, 1200000, *c.Member)

	c = e.Extract(`<span>12,345 members</span>`)
	require.NotNil(t, c.Member)
	require.Equal(t, 12345, *c.Member)
}

func TestExtractMissReturnsNils(t *testing.T) {
	e := NewPageExtractor()
	c := e.Extract(`<html><body><p>nothing to see here</p></body></html>`)
	require.Nil(t, c.Online)
	require.Nil(t, c.Member)
}

func TestSubredditFromURL(t *testing.T) {
	require.Equal(t, "CNC", SubredditFromURL("https://www.reddit.com/r/CNC/"))
	require.Equal(t, "golang", SubredditFromURL("https://old.reddit.com/r/golang"))
	require.Equal(t, "unknown", SubredditFromURL("https://example.com/"))
}
