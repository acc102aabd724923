package search

import (
	"strings"
	"unicode/utf8"

	check "gopkg.in/check.v1"
)

var (
	_ = check.Suite(new(snippetTestSuite))
	_ = check.Suite(new(titleTestSuite))
)

type snippetTestSuite struct {
	gen *SnippetGenerator
}

func (s *snippetTestSuite) SetUpTest(c *check.C) {
	s.gen = NewSnippetGenerator()
}

func (s *snippetTestSuite) TestShortContent(c *check.C) {
	got := s.gen.GenerateSnippet("The quick brown fox", []string{"quick"})
	c.Assert(got, check.Equals, "The <b>quick</b> brown fox")
}

func (s *snippetTestSuite) TestMarkupIsStripped(c *check.C) {
	got := s.gen.GenerateSnippet("<p>Hello\n\n <i>World</i></p>", []string{"WORLD"})
	c.Assert(got, check.Equals, "Hello <b>World</b>")
}

func (s *snippetTestSuite) TestWindowIsMarkedWhenTruncated(c *check.C) {
	content := strings.Repeat("x ", 50) + "target" + strings.Repeat(" y", 50)

	got := s.gen.GenerateSnippet(content, []string{"target"})
	c.Assert(got, check.Equals,
		"..."+strings.Repeat("x ", 30)+"<b>target</b>"+strings.Repeat(" y", 30)+"...")
}

func (s *snippetTestSuite) TestAtMostTwoSegments(c *check.C) {
	got := s.gen.GenerateSnippet("alpha and beta", []string{"alpha", "beta", "and"})
	c.Assert(got, check.Equals,
		"<b>alpha</b> and <b>beta</b> ... <b>alpha</b> and <b>beta</b>")
}

func (s *snippetTestSuite) TestDuplicateTokensCountOnce(c *check.C) {
	got := s.gen.GenerateSnippet("alpha and beta", []string{"Alpha", "alpha"})
	c.Assert(got, check.Equals, "<b>alpha</b> and beta")
}

func (s *snippetTestSuite) TestOnlyWholeWordsAreHighlighted(c *check.C) {
	got := s.gen.GenerateSnippet("concatenate the cat", []string{"cat"})
	c.Assert(got, check.Equals, "concatenate the <b>cat</b>")
}

func (s *snippetTestSuite) TestUnicode(c *check.C) {
	got := s.gen.GenerateSnippet("Привет, Мир", []string{"мир"})
	c.Assert(got, check.Equals, "Привет, <b>Мир</b>")
}

func (s *snippetTestSuite) TestTextIsEscaped(c *check.C) {
	got := s.gen.GenerateSnippet("a &lt; b", nil)
	c.Assert(got, check.Equals, "a &lt; b")
}

func (s *snippetTestSuite) TestFallbackWhenNothingMatches(c *check.C) {
	content := strings.Repeat("lorem ipsum ", 60)

	got := s.gen.GenerateSnippet(content, []string{"absent"})
	c.Assert(got, check.Not(check.Equals), "")
	c.Assert(utf8.RuneCountInString(got) <= maxSnippetLen, check.Equals, true)
	c.Assert(strings.HasPrefix(got, "lorem ipsum"), check.Equals, true)
	c.Assert(strings.HasSuffix(got, "..."), check.Equals, true)
}

func (s *snippetTestSuite) TestBlankContent(c *check.C) {
	c.Assert(s.gen.GenerateSnippet(" \n ", []string{"a"}), check.Equals, "")
}

func (s *snippetTestSuite) TestTruncate(c *check.C) {
	c.Assert(truncate("short", 300), check.Equals, "short")

	got := truncate(strings.Repeat("word ", 100), 300)
	c.Assert(utf8.RuneCountInString(got) <= 300, check.Equals, true)
	c.Assert(strings.HasSuffix(got, "word..."), check.Equals, true)

	// A cut that would drop more than half of the text keeps the word.
	got = truncate("ab "+strings.Repeat("z", 20), 10)
	c.Assert(got, check.Equals, "ab zzzz...")
}

type titleTestSuite struct{}

func (s *titleTestSuite) TestTitle(c *check.C) {
	c.Assert(Title("", "/path"), check.Equals, "/path")
	c.Assert(Title("  \n", "/path"), check.Equals, "/path")
	c.Assert(Title("  Short title ", "/path"), check.Equals, "Short title")

	long := strings.Repeat("abcd ", 30)
	c.Assert(Title(long, "/"), check.Equals, strings.TrimSpace(strings.Repeat("abcd ", 24))+"...")

	c.Assert(Title(strings.Repeat("a", 130), "/"), check.Equals, strings.Repeat("a", 120)+"...")
}
