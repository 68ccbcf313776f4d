package htmlutil

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("flightscraper.lib.htmlutil")

// Parse parses a rendered document into a goquery document.
func Parse(ctx context.Context, document string) (*goquery.Document, error) {
	_, span := tracer.Start(ctx, "Parse")
	defer span.End()

	span.SetAttributes(attribute.Int("document.length", len(document)))

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse document")
		return nil, err
	}
	return doc, nil
}

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText strips non-printable characters, trims and collapses inner whitespace.
func CleanText(s string) string {
	s = removeNonPrintable(s)
	s = strings.TrimSpace(s)
	return innerWhitespace.ReplaceAllString(s, " ")
}

// AttrCount is the number of attributes set on an element.
func AttrCount(node *html.Node) int {
	if node == nil {
		return 0
	}
	return len(node.Attr)
}

func HasAttr(node *html.Node, key string) bool {
	if node == nil {
		return false
	}
	for _, a := range node.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

// ClassTokens splits the class attribute of an element into its tokens.
func ClassTokens(node *html.Node) []string {
	if node == nil {
		return nil
	}
	for _, a := range node.Attr {
		if a.Key == "class" {
			return strings.Fields(a.Val)
		}
	}
	return nil
}
