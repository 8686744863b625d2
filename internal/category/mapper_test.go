package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/feedbackwatch/internal/feedback"
)

func TestMap_TextKeywords(t *testing.T) {
	m := NewMapper()
	got := m.Map("The trainer and instructor gave a clear presentation and lecture", "")

	require.Len(t, got, 1)
	assert.Equal(t, feedback.Trainer, got[0].Category)
	// trainer(7) + instructor(10) + presentation(12) + lecture(7) + clear(5)
	assert.InDelta(t, 0.41, got[0].Relevance, 1e-9)
	assert.ElementsMatch(t, []string{"trainer", "instructor", "presentation", "lecture", "clear"}, got[0].Evidence)
}

func TestMap_WholeWordOnly(t *testing.T) {
	m := NewMapper()
	// "tests" and "explained" must not match "test" and "explain".
	got := m.Map("The tests explained nothing", "")
	assert.Len(t, got, len(feedback.Categories))
	for _, a := range got {
		assert.Equal(t, 0.1, a.Relevance)
	}
}

func TestMap_RepeatedKeywordCountsOnce(t *testing.T) {
	m := NewMapper()
	once := m.Map("laptop laptop laptop internet hardware computer", "")
	require.NotEmpty(t, once)
	assert.Equal(t, feedback.Infrastructure, once[0].Category)
	assert.InDelta(t, 0.30, once[0].Relevance, 1e-9)
	assert.Equal(t, []string{"hardware", "laptop", "computer", "internet"}, once[0].Evidence)
}

func TestMap_Tags(t *testing.T) {
	m := NewMapper()
	got := m.Map("", "mentor, laptop issue")

	require.Len(t, got, 2)
	// Equal relevance keeps enumeration order.
	assert.Equal(t, feedback.Mentor, got[0].Category)
	assert.Equal(t, feedback.Infrastructure, got[1].Category)
	assert.InDelta(t, 0.3, got[0].Relevance, 1e-9)
	assert.Equal(t, []string{"mentor"}, got[0].Evidence)
	assert.Equal(t, []string{"laptop issue"}, got[1].Evidence)
}

func TestMap_TagAndTextCombine(t *testing.T) {
	m := NewMapper()
	got := m.Map("the wifi and login failed", "network")

	require.NotEmpty(t, got)
	assert.Equal(t, feedback.Infrastructure, got[0].Category)
	// 0.3 for the tag plus wifi(4)+login(5).
	assert.InDelta(t, 0.39, got[0].Relevance, 1e-9)
	assert.Equal(t, []string{"network", "login", "wifi"}, got[0].Evidence)
}

func TestMap_Caps(t *testing.T) {
	m := NewMapper()

	text := m.Map("software hardware laptop computer system internet network infrastructure application platform", "")
	require.NotEmpty(t, text)
	assert.Equal(t, feedback.Infrastructure, text[0].Category)
	assert.InDelta(t, 0.7, text[0].Relevance, 1e-9)

	tags := m.Map("", "trainer,instructor,teacher,teaching")
	require.NotEmpty(t, tags)
	assert.Equal(t, feedback.Trainer, tags[0].Category)
	assert.Equal(t, 1.0, tags[0].Relevance)
}

func TestMap_SortedDescending(t *testing.T) {
	m := NewMapper()
	got := m.Map("The curriculum and syllabus pacing", "mentor,mentoring")

	require.Len(t, got, 2)
	assert.Equal(t, feedback.Mentor, got[0].Category)
	assert.Equal(t, feedback.TrainingProgram, got[1].Category)
	assert.Greater(t, got[0].Relevance, got[1].Relevance)
}

func TestMap_FallbackCoversAllCategories(t *testing.T) {
	m := NewMapper()
	got := m.Map("ok", "")

	require.Len(t, got, len(feedback.Categories))
	for i, a := range got {
		assert.Equal(t, feedback.Categories[i], a.Category)
		assert.Equal(t, 0.1, a.Relevance)
		assert.Empty(t, a.Evidence)
	}
}

func TestPrimary(t *testing.T) {
	m := NewMapper()
	assert.Equal(t, feedback.Infrastructure, m.Primary("", "wifi down"))
	// Fallback ranks every category equally, so the first one wins.
	assert.Equal(t, feedback.Trainer, m.Primary("ok", ""))
	assert.Equal(t, feedback.Engagement, PrimaryOf(nil))
}

func TestNewMapperWithKeywords(t *testing.T) {
	m := NewMapperWithKeywords(map[feedback.Category][]string{
		feedback.Engagement: {"hackathon", "  "},
	})
	got := m.Map("the hackathon hackathon was fun and the hackathon team", "")
	assert.Len(t, got, len(feedback.Categories), "0.09 stays under the floor")

	got = m.Map("", "hackathon")
	require.Len(t, got, 1)
	assert.Equal(t, feedback.Engagement, got[0].Category)
}
