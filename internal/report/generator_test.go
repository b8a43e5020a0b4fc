package report

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ResQ-NG/resq-ai/internal/summarize"
)

const chatCompletion = `{
	"id": "cmpl-1",
	"object": "chat.completion",
	"choices": [{
		"index": 0,
		"message": {
			"role": "assistant",
			"content": "Title: Person And Dog Found At Scene\nDescription: A person and a dog were identified in the submitted picture. No additional context was provided."
		},
		"finish_reason": "stop"
	}]
}`

func TestGeneratorGenerate(t *testing.T) {
	ctx := context.Background()
	engine := summarize.NewEngine()

	t.Run("uses the LLM response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(chatCompletion))
		}))
		defer srv.Close()

		g, err := NewGenerator(srv.URL, "test-key", "llama3.2", engine)
		require.NoError(t, err)

		s, err := g.Generate(ctx, []string{"person", "dog"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "Person And Dog Found At Scene", s.Title)
		assert.Contains(t, s.Description, "identified in the submitted picture")
		assert.Equal(t, "media", s.Category)
	})

	t.Run("falls back when the LLM is down", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "overloaded", http.StatusInternalServerError)
		}))
		defer srv.Close()

		g, err := NewGenerator(srv.URL, "test-key", "llama3.2", engine)
		require.NoError(t, err)

		s, err := g.Generate(ctx, []string{"person", "dog"}, []string{"night incident"})
		require.NoError(t, err)
		assert.NotEmpty(t, s.Title)
		assert.NotEmpty(t, s.Description)
		assert.NotEmpty(t, s.Category)
	})

	t.Run("falls back on unparseable response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"no structure here"}}]}`))
		}))
		defer srv.Close()

		g, err := NewGenerator(srv.URL, "test-key", "llama3.2", engine)
		require.NoError(t, err)

		s, err := g.Generate(ctx, []string{"person"}, nil)
		require.NoError(t, err)
		assert.NotEmpty(t, s.Title)
	})

	t.Run("no tags", func(t *testing.T) {
		g, err := NewGenerator("http://localhost:0", "k", "m", engine)
		require.NoError(t, err)
		_, err = g.Generate(ctx, nil, nil)
		assert.ErrorIs(t, err, ErrNoTags)
	})

	t.Run("nil fallback rejected", func(t *testing.T) {
		_, err := NewGenerator("http://localhost:0", "k", "m", nil)
		assert.ErrorIs(t, err, ErrFallbackRequired)
	})
}

func TestParseResponse(t *testing.T) {
	t.Run("title and description", func(t *testing.T) {
		title, desc, err := parseResponse("Title: Broken Pipe\nDescription: A pipe burst.")
		require.NoError(t, err)
		assert.Equal(t, "Broken Pipe", title)
		assert.Equal(t, "A pipe burst.", desc)
	})

	t.Run("wrapped description lines", func(t *testing.T) {
		_, desc, err := parseResponse("Title: T\nDescription: First part.\nSecond part.")
		require.NoError(t, err)
		assert.Equal(t, "First part. Second part.", desc)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, _, err := parseResponse("just some text")
		assert.Error(t, err)
	})
}

func TestNaiveTitle(t *testing.T) {
	assert.Equal(t, "Untitled", NaiveTitle("  "))
	assert.Equal(t, "Short title", NaiveTitle("short title"))
	assert.Equal(t,
		"One two three four five six seven eight...",
		NaiveTitle("one two three four five six seven eight nine ten"))
}

func TestCategorize(t *testing.T) {
	assert.Equal(t, "finance", Categorize("Missing invoice", "payment overdue", nil))
	assert.Equal(t, "health", Categorize("Visit", "the hospital was crowded", nil))
	assert.Equal(t, "media", Categorize("", "a picture of the site", nil))
	assert.Equal(t, "other", Categorize("Nothing", "matches here", nil))
	assert.Equal(t, "education", Categorize("", "", map[string]string{"note": "school trip"}))
}
