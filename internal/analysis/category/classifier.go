package category

import (
	"strings"

	"github.com/zhouzirui/creator-surge/backend/internal/model/chat"
)

// tier pairs a category with the keywords that select it.
type tier struct {
	category chat.Category
	keywords []string
}

var appBuilderTier = tier{
	category: chat.CategoryAppBuilder,
	keywords: []string{
		"build app", "build an app", "build a website", "create website", "create a website",
		"create app", "full stack", "fullstack", "mvp", "saas",
	},
}

var baseTiers = []tier{
	{
		category: chat.CategoryCode,
		keywords: []string{
			"code", "function", "debug", "programming", "python", "javascript",
			"java", "algorithm", "api", "bug", "error", "syntax", "compile",
		},
	},
	{
		category: chat.CategoryImage,
		keywords: []string{
			"image", "picture", "photo", "visual", "generate image",
			"create image", "draw", "illustration",
		},
	},
	{
		category: chat.CategoryStrategy,
		keywords: []string{
			"strategy", "business", "marketing", "plan", "growth",
			"startup", "launch", "campaign", "roi", "kpi", "market",
		},
	},
}

// Classifier maps free text onto a category by ordered keyword tiers.
// The first tier with any matching keyword wins; no tier matching yields text.
type Classifier struct {
	tiers []tier
}

// Option customises a Classifier.
type Option func(*Classifier)

// WithAppBuilder places the app-builder tier ahead of every other tier.
func WithAppBuilder() Option {
	return func(c *Classifier) {
		c.tiers = append([]tier{appBuilderTier}, c.tiers...)
	}
}

// New builds a classifier over the base tiers.
func New(opts ...Option) *Classifier {
	c := &Classifier{tiers: append([]tier(nil), baseTiers...)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Standard is the four-category classifier.
func Standard() *Classifier { return New() }

// Extended adds the app-builder category with top priority.
func Extended() *Classifier { return New(WithAppBuilder()) }

// Classify returns exactly one category for message.
func (c *Classifier) Classify(message string) chat.Category {
	normalized := strings.ToLower(message)
	for _, t := range c.tiers {
		for _, word := range t.keywords {
			if strings.Contains(normalized, word) {
				return t.category
			}
		}
	}
	return chat.CategoryText
}

// Categories lists the categories this classifier can emit, in priority order, ending with text.
func (c *Classifier) Categories() []chat.Category {
	out := make([]chat.Category, 0, len(c.tiers)+1)
	for _, t := range c.tiers {
		out = append(out, t.category)
	}
	return append(out, chat.CategoryText)
}
