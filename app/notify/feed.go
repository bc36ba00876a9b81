package notify

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/smartyg/competitionnotify/app/competition"
	"github.com/smartyg/competitionnotify/app/database"
)

// FeedGenerator publishes queued notifications as an RSS 2.0 channel so a
// mailer or feed reader can pick them up.
type FeedGenerator struct {
	baseURL     string
	siteBaseURL string
	version     string
}

func NewFeedGenerator(baseURL, siteBaseURL, version string) *FeedGenerator {
	return &FeedGenerator{
		baseURL:     strings.TrimRight(baseURL, "/"),
		siteBaseURL: siteBaseURL,
		version:     version,
	}
}

// Run renders the channel. Notifications are expected newest first; now is
// used as build date when the list is empty.
func (g *FeedGenerator) Run(notifications []database.Notification, now time.Time) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", "Competition notifications", 4)
	g.writeElement(&buf, "link", g.siteBaseURL, 4)
	g.writeElement(&buf, "description", "Pending competition registration notifications", 4)

	selfLink := g.baseURL + "/feeds/notifications"
	buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
		html.EscapeString(selfLink)))

	lastBuildDate := now
	if len(notifications) > 0 {
		lastBuildDate = notifications[0].CreatedAt
	}
	g.writeElement(&buf, "lastBuildDate", lastBuildDate.UTC().Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("CompetitionNotify/%s", g.version), 4)

	for _, n := range notifications {
		g.writeItem(&buf, n)
	}

	buf.WriteString("  </channel>\n</rss>\n")

	return buf.String(), nil
}

func (g *FeedGenerator) writeItem(buf *bytes.Buffer, n database.Notification) {
	buf.WriteString("    <item>\n")

	buf.WriteString("      <guid isPermaLink=\"false\">")
	xml.EscapeText(buf, []byte(n.ID.String()))
	buf.WriteString("</guid>\n")

	g.writeElement(buf, "title", fmt.Sprintf("Registration open: %s", n.CompetitionID), 6)
	g.writeElement(buf, "link", competition.NewLinks(g.siteBaseURL, n.CompetitionID).Information, 6)
	g.writeElement(buf, "description", fmt.Sprintf("Notification %s for competition %s", n.ID, n.CompetitionID), 6)

	buf.WriteString("      <content:encoded><![CDATA[")
	buf.WriteString(strings.ReplaceAll(n.Body, "]]>", "]]]]><![CDATA[>"))
	buf.WriteString("]]></content:encoded>\n")

	g.writeElement(buf, "pubDate", n.CreatedAt.UTC().Format(time.RFC1123Z), 6)

	buf.WriteString("    </item>\n")
}

func (g *FeedGenerator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	buf.WriteString(strings.Repeat(" ", indent))
	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}
