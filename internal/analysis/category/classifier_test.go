package category

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zhouzirui/creator-surge/backend/internal/model/chat"
)

func TestClassifyStandard(t *testing.T) {
	c := Standard()
	cases := []struct {
		message string
		want    chat.Category
	}{
		{"Hello, how are you?", chat.CategoryText},
		{"Debug this JavaScript code for me", chat.CategoryCode},
		{"Write a Python function to calculate fibonacci numbers", chat.CategoryCode},
		{"Help me with programming", chat.CategoryCode},
		{"Generate an image of a sunset", chat.CategoryImage},
		{"Create a business strategy for my startup", chat.CategoryStrategy},
		{"What's a good KPI for retention?", chat.CategoryStrategy},
		{"", chat.CategoryText},
		{"BUG in my SYNTAX", chat.CategoryCode},
		// build an mvp has no app-builder tier here, falls through to text
		{"let's build an mvp", chat.CategoryText},
	}

	for _, tc := range cases {
		t.Run(tc.message, func(t *testing.T) {
			assert.Equal(t, tc.want, c.Classify(tc.message))
		})
	}
}

func TestClassifyTierPriority(t *testing.T) {
	c := Standard()
	// code beats image beats strategy
	assert.Equal(t, chat.CategoryCode, c.Classify("draw a picture of my python code"))
	assert.Equal(t, chat.CategoryImage, c.Classify("an illustration for the marketing campaign"))
	assert.Equal(t, chat.CategoryCode, c.Classify("marketing plan with an error budget"))
}

func TestClassifyExtendedAppBuilderWins(t *testing.T) {
	c := Extended()
	cases := []string{
		"Build app with a python api",
		"I want to create website with javascript code",
		"full stack debug session",
		"Ship an MVP with a marketing image",
		"help me build an app for my startup",
	}
	for _, msg := range cases {
		assert.Equal(t, chat.CategoryAppBuilder, c.Classify(msg), msg)
	}
	assert.Equal(t, chat.CategoryCode, c.Classify("Debug this JavaScript code for me"))
	assert.Equal(t, chat.CategoryText, c.Classify("Hello, how are you?"))
}

func TestClassifySubstringSemantics(t *testing.T) {
	c := Standard()
	// matching is plain substring containment, not word matching
	assert.Equal(t, chat.CategoryCode, c.Classify("a rapid response"))
	assert.Equal(t, chat.CategoryStrategy, c.Classify("a heroic tale"))
}

func TestCategoriesOrder(t *testing.T) {
	assert.Equal(t,
		[]chat.Category{chat.CategoryAppBuilder, chat.CategoryCode, chat.CategoryImage, chat.CategoryStrategy, chat.CategoryText},
		Extended().Categories(),
	)
	assert.Len(t, Standard().Categories(), 4)
}
