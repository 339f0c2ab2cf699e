package parser

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testScanner(t *testing.T) *ReplayScanner {
	t.Helper()
	s, err := NewReplayScanner("https://basketballreplays.net", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return s
}

const listingHTML = `
<html><body>
<div class="site-nav">
  <a href="/">Home of Basketball Replays and Highlights</a>
</div>
<article class="post">
  <a href="/lakers-vs-celtics-full-game-replay">Lakers vs Celtics Full Game Replay</a>
  <a href="/lakers-vs-celtics-full-game-replay">Lakers vs Celtics Full Game Replay</a>
  <a href="/short">vs</a>
  <a href="https://other-site.example.com/heat-vs-knicks-full-game-replay">Heat vs Knicks Full Game Replay</a>
  <a href="/recipe-of-the-day-pancakes-deluxe">Recipe of the Day Pancakes Deluxe</a>
  <a href="/about-us-page">Read more about our team and history</a>
</article>
<div class="entry">
  <a href="https://basketballreplays.net/warriors-vs-suns-highlights-tonight">Warriors vs Suns Highlights Tonight</a>
</div>
</body></html>`

func TestFindArticlesFilters(t *testing.T) {
	t.Parallel()

	candidates, err := testScanner(t).FindArticles("https://basketballreplays.net", []byte(listingHTML))
	require.NoError(t, err)

	require.Len(t, candidates, 2)
	assert.Equal(t, "Lakers vs Celtics Full Game Replay", candidates[0].Title)
	assert.Equal(t, "https://basketballreplays.net/lakers-vs-celtics-full-game-replay", candidates[0].URL)
	assert.Equal(t, "Warriors vs Suns Highlights Tonight", candidates[1].Title)
}

func TestFindArticlesFallsBackToMainContent(t *testing.T) {
	t.Parallel()

	html := `
	<html><body>
	<main>
	  <a href="/bulls-vs-nets-full-game-replay">Bulls vs Nets Full Game Replay</a>
	</main>
	</body></html>`

	candidates, err := testScanner(t).FindArticles("https://basketballreplays.net", []byte(html))
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Bulls vs Nets Full Game Replay", candidates[0].Title)
}

func TestFindArticlesIgnoresForeignHost(t *testing.T) {
	t.Parallel()

	html := `
	<div class="post">
	  <a href="https://evil.example.net/lakers-vs-celtics-game-replay">Lakers vs Celtics Game Replay</a>
	</div>`

	candidates, err := testScanner(t).FindArticles("https://basketballreplays.net", []byte(html))
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestFindSourcePrefersOkRuVideo(t *testing.T) {
	t.Parallel()

	html := `
	<html><body>
	<a href="https://www.youtube.com/watch?v=abc123">Watch on YouTube</a>
	<iframe src="https://ok.ru/video/987654321"></iframe>
	<a href="https://streamable.com/xyz">mirror</a>
	</body></html>`

	source, ok := testScanner(t).FindSource([]byte(html))
	require.True(t, ok)
	assert.Equal(t, "https://ok.ru/video/987654321", source)
}

func TestFindSourceFallsBackToYouTube(t *testing.T) {
	t.Parallel()

	html := `
	<html><body>
	<a href="https://streamable.com/xyz">mirror</a>
	<a href="https://youtu.be/abc123">Watch</a>
	</body></html>`

	source, ok := testScanner(t).FindSource([]byte(html))
	require.True(t, ok)
	assert.Equal(t, "https://youtu.be/abc123", source)
}

func TestFindSourceFirstFoundWhenNoPreferred(t *testing.T) {
	t.Parallel()

	html := `
	<html><body>
	<a href="https://vimeo.com/123456">first</a>
	<a href="https://dailymotion.com/video/x1">second</a>
	</body></html>`

	source, ok := testScanner(t).FindSource([]byte(html))
	require.True(t, ok)
	assert.Equal(t, "https://vimeo.com/123456", source)
}

func TestFindSourceInScript(t *testing.T) {
	t.Parallel()

	html := `
	<html><body>
	<script>
	  var player = {src: "https://ok.ru/video/555000111"};
	</script>
	</body></html>`

	source, ok := testScanner(t).FindSource([]byte(html))
	require.True(t, ok)
	assert.Equal(t, "https://ok.ru/video/555000111", source)
}

func TestFindSourceNoneFound(t *testing.T) {
	t.Parallel()

	_, ok := testScanner(t).FindSource([]byte(`<html><body><p>text only</p></body></html>`))
	assert.False(t, ok)
}
