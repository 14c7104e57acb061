package crawler

import (
	"context"
	"errors"
	"testing"

	crawlerErrors "sjsage522/recruitcrawler/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const renderURL = "https://example.test/posting/1"

func TestRender(t *testing.T) {
	t.Run("all markers present", func(t *testing.T) {
		s := newMockSession()
		s.pages[renderURL] = `<div id="a"></div><div id="b"></div>`
		s.frames[renderURL] = map[string]string{"work": "담당 업무"}

		res, err := Render(context.Background(), s, RenderRequest{
			URL:       renderURL,
			UserAgent: "test-agent",
			Markers:   []string{"#a", "#b"},
			Frames:    []string{"work", "absent"},
		})
		require.NoError(t, err)

		assert.False(t, res.Degraded)
		assert.Contains(t, res.HTML, `id="b"`)
		require.NotNil(t, res.Frames["work"])
		assert.Equal(t, "담당 업무", *res.Frames["work"])
		assert.Nil(t, res.Frames["absent"])
		assert.Equal(t, []string{"test-agent"}, s.userAgents)
		assert.Equal(t, 1, s.releases)
	})

	t.Run("missing marker degrades", func(t *testing.T) {
		s := newMockSession()
		s.pages[renderURL] = `<div id="a"></div>`

		res, err := Render(context.Background(), s, RenderRequest{URL: renderURL, Markers: []string{"#a", "#b"}})
		require.NoError(t, err)

		assert.True(t, res.Degraded)
		assert.Equal(t, []string{"#b"}, res.Missing)
		assert.Contains(t, res.HTML, `id="a"`)
		assert.Equal(t, 1, s.releases)
	})

	t.Run("missing required marker fails", func(t *testing.T) {
		s := newMockSession()
		s.pages[renderURL] = `<div id="a"></div>`

		_, err := Render(context.Background(), s, RenderRequest{
			Provider: "jobkorea",
			URL:      renderURL,
			Markers:  []string{"#a", "#b"},
			Required: true,
		})
		require.Error(t, err)

		assert.Equal(t, crawlerErrors.ErrorTypeBrowser, crawlerErrors.TypeOf(err))
		assert.Contains(t, err.Error(), "jobkorea")
		assert.Contains(t, err.Error(), "#b")
		assert.Equal(t, 1, s.releases)
	})

	t.Run("page read failure still releases", func(t *testing.T) {
		s := newMockSession()
		s.pages[renderURL] = `<div id="a"></div>`
		s.failHTML = errors.New("target closed")

		_, err := Render(context.Background(), s, RenderRequest{URL: renderURL, Markers: []string{"#a"}})
		assert.ErrorContains(t, err, "target closed")
		assert.Equal(t, 1, s.releases)
	})

	t.Run("cancelled context", func(t *testing.T) {
		s := newMockSession()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := Render(ctx, s, RenderRequest{URL: renderURL, Markers: []string{"#a"}})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, s.visited)
		assert.Equal(t, 1, s.releases)
	})
}
