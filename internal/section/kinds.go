package section

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"

	"github.com/dusk-indust/pagecraft/internal/content"
	"github.com/dusk-indust/pagecraft/internal/theme"
)

// HeroContent is the content of a hero section.
type HeroContent struct {
	Headline        string `json:"headline"`
	Subheadline     string `json:"subheadline"`
	CTAText         string `json:"ctaText"`
	CTALink         string `json:"ctaLink"`
	BackgroundImage string `json:"backgroundImage"`
}

// ServicesGridContent is the content of a services grid.
type ServicesGridContent struct {
	Title        string `json:"title"`
	Subtitle     string `json:"subtitle"`
	Columns      int    `json:"columns"`
	Limit        int    `json:"limit"`
	FeaturedOnly bool   `json:"featuredOnly"`
}

// PortfolioShowcaseContent is the content of a portfolio showcase.
type PortfolioShowcaseContent struct {
	Title string `json:"title"`
	Limit int    `json:"limit"`
}

// BlogFeedContent is the content of a blog feed.
type BlogFeedContent struct {
	Title string `json:"title"`
	Limit int    `json:"limit"`
}

// TestimonialsContent is the content of a testimonials section.
type TestimonialsContent struct {
	Title string `json:"title"`
	Limit int    `json:"limit"`
}

// CTABannerContent is the content of a call-to-action banner.
type CTABannerContent struct {
	Headline   string `json:"headline"`
	Text       string `json:"text"`
	ButtonText string `json:"buttonText"`
	ButtonLink string `json:"buttonLink"`
}

// RichTextContent is a markdown or HTML body. Markdown wins when both are set.
type RichTextContent struct {
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
}

// Stat is one figure in a stats section.
type Stat struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// StatsContent is the content of a stats section.
type StatsContent struct {
	Title string `json:"title"`
	Items []Stat `json:"items"`
}

// FAQItem is one question and answer.
type FAQItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// FAQContent is the content of an FAQ section.
type FAQContent struct {
	Title string    `json:"title"`
	Items []FAQItem `json:"items"`
}

// view is the data every section template receives.
type view struct {
	ID       string
	Content  any
	Settings content.Payload
	Priority bool
	Items    any
	Body     template.HTML
}

// NewRegistry returns a registry with every built-in kind bound to its
// template in th. Templates are parsed on first use.
func NewRegistry(th *theme.Theme) *Registry {
	r := NewEmptyRegistry()
	bind(r, th, KindHero, HeroContent{}, heroView)
	bind(r, th, KindServicesGrid, ServicesGridContent{Columns: 3}, servicesView)
	bind(r, th, KindPortfolioShowcase, PortfolioShowcaseContent{Limit: 6}, portfolioView)
	bind(r, th, KindBlogFeed, BlogFeedContent{Title: "Latest posts", Limit: 3}, blogView)
	bind(r, th, KindTestimonials, TestimonialsContent{Limit: 3}, testimonialsView)
	bind(r, th, KindCTABanner, CTABannerContent{ButtonText: "Get in touch"}, ctaView)
	bind(r, th, KindRichText, RichTextContent{}, richTextView)
	bind(r, th, KindStats, StatsContent{}, statsView)
	bind(r, th, KindFAQ, FAQContent{}, faqView)
	return r
}

// bind registers a template-backed renderer for k. defaults seeds the typed
// content before the payload is decoded over it; fields whose value has the
// wrong type keep their default. build returns false when the section has
// nothing to show. The factory checks that the template parses; each render
// fetches it from the theme again so a theme reload takes effect.
func bind[C any](r *Registry, th *theme.Theme, k Kind, defaults C, build func(in Input, c C) (view, bool)) {
	_ = r.Register(k, func() (Renderer, error) {
		if _, err := th.Section(string(k)); err != nil {
			return nil, err
		}
		return RendererFunc(func(in Input) (template.HTML, error) {
			c := defaults
			if err := in.Content.Decode(&c); err != nil {
				var typeErr *json.UnmarshalTypeError
				if !errors.As(err, &typeErr) {
					return "", fmt.Errorf("section: decode %s content: %w", k, err)
				}
			}
			v, ok := build(in, c)
			if !ok {
				return "", nil
			}
			tmpl, err := th.Section(string(k))
			if err != nil {
				return "", err
			}
			v.ID = in.Section.ID
			v.Settings = in.Settings
			v.Priority = in.Priority
			var buf bytes.Buffer
			if err := tmpl.Execute(&buf, v); err != nil {
				return "", fmt.Errorf("section: execute %s: %w", k, err)
			}
			return template.HTML(buf.String()), nil
		}), nil
	})
}

func heroView(_ Input, c HeroContent) (view, bool) {
	if c.Headline == "" {
		return view{}, false
	}
	return view{Content: c}, true
}

func servicesView(in Input, c ServicesGridContent) (view, bool) {
	services := in.Related.Services()
	if c.FeaturedOnly {
		featured := services[:0]
		for _, s := range services {
			if s.Featured {
				featured = append(featured, s)
			}
		}
		services = featured
	}
	return view{Content: c, Items: limit(services, c.Limit)}, true
}

func portfolioView(in Input, c PortfolioShowcaseContent) (view, bool) {
	items := in.Related.PortfolioItems()
	if len(items) == 0 {
		return view{}, false
	}
	return view{Content: c, Items: limit(items, c.Limit)}, true
}

func blogView(in Input, c BlogFeedContent) (view, bool) {
	return view{Content: c, Items: limit(in.Related.BlogPosts(), c.Limit)}, true
}

func testimonialsView(in Input, c TestimonialsContent) (view, bool) {
	return view{Content: c, Items: limit(in.Related.Testimonials(), c.Limit)}, true
}

func ctaView(in Input, c CTABannerContent) (view, bool) {
	if c.Headline == "" {
		return view{}, false
	}
	if c.ButtonLink == "" {
		c.ButtonLink = in.Related.Settings()["contact_url"]
	}
	if c.ButtonLink == "" {
		c.ButtonLink = "/contact"
	}
	return view{Content: c}, true
}

func richTextView(_ Input, c RichTextContent) (view, bool) {
	body := renderRichText(c)
	if body == "" {
		return view{}, false
	}
	return view{Content: c, Body: body}, true
}

func statsView(_ Input, c StatsContent) (view, bool) {
	if len(c.Items) == 0 {
		return view{}, false
	}
	return view{Content: c}, true
}

func faqView(_ Input, c FAQContent) (view, bool) {
	if len(c.Items) == 0 {
		return view{}, false
	}
	return view{Content: c}, true
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
