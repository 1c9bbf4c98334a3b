package imdb

import (
	"context"
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/plexarr/plexarr/internal/models"
	"github.com/sirupsen/logrus"
)

// Entry is one parsed item of a public IMDB list
type Entry struct {
	Title     string
	Year      int
	IMDBId    string
	MediaType models.MediaType
}

// Client fetches public IMDB list feeds. No credential required.
type Client struct {
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a new IMDB feed client
func NewClient(logger *logrus.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

var titleIDPattern = regexp.MustCompile(`/title/(tt\d+)`)

// Fetch retrieves and parses the list at the given URL. The URL may serve
// the RSS feed of a public list or its CSV export; both are accepted.
// Malformed entries are logged and skipped; an empty feed fails with
// SourceUnavailable.
func (c *Client) Fetch(ctx context.Context, feedURL string) ([]Entry, error) {
	parsed, err := url.Parse(feedURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("%w: malformed IMDB list URL %q", models.ErrConfigInvalid, feedURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "plexarr/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: feed returned status %d", models.ErrSourceUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read feed: %v", models.ErrSourceUnavailable, err)
	}

	var entries []Entry
	if isCSV(resp.Header.Get("Content-Type"), body) {
		entries = c.parseCSV(body)
	} else {
		entries, err = c.parseRSS(body)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse feed: %v", models.ErrSourceUnavailable, err)
		}
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: feed contains no items", models.ErrSourceUnavailable)
	}

	c.logger.WithField("count", len(entries)).Debug("Fetched IMDB list")
	return entries, nil
}

func isCSV(contentType string, body []byte) bool {
	if strings.Contains(contentType, "text/csv") {
		return true
	}
	head := body
	if len(head) > 256 {
		head = head[:256]
	}
	first := strings.SplitN(string(head), "\n", 2)[0]
	return strings.Contains(first, "Const") && strings.Contains(first, ",")
}

// rssFeed mirrors the IMDB list RSS document shape
type rssFeed struct {
	XMLName xml.Name `xml:"rss"`
	Channel struct {
		Title string `xml:"title"`
		Items []struct {
			Title   string `xml:"title"`
			Link    string `xml:"link"`
			GUID    string `xml:"guid"`
			PubDate string `xml:"pubDate"`
		} `xml:"item"`
	} `xml:"channel"`
}

func (c *Client) parseRSS(body []byte) ([]Entry, error) {
	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, err
	}

	var entries []Entry
	for _, item := range feed.Channel.Items {
		id := extractTitleID(item.Link)
		if id == "" {
			id = extractTitleID(item.GUID)
		}
		title := strings.TrimSpace(item.Title)

		if id == "" || title == "" {
			c.logger.WithFields(logrus.Fields{
				"title": item.Title,
				"link":  item.Link,
			}).Warn("Skipping malformed feed entry")
			continue
		}

		entries = append(entries, Entry{
			Title:     title,
			IMDBId:    id,
			MediaType: models.MediaTypeMovie,
		})
	}

	return entries, nil
}

// parseCSV parses the IMDB list CSV export. Column order varies between
// exports, so columns are located by header name.
func (c *Client) parseCSV(body []byte) []Entry {
	reader := csv.NewReader(strings.NewReader(string(body)))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil
	}

	constIdx, titleIdx, yearIdx, typeIdx := -1, -1, -1, -1
	for i, name := range header {
		switch {
		case strings.Contains(name, "Const"):
			constIdx = i
		case name == "Title":
			titleIdx = i
		case name == "Year":
			yearIdx = i
		case strings.Contains(name, "Title Type"):
			typeIdx = i
		}
	}
	if constIdx < 0 {
		c.logger.Warn("CSV export has no Const column")
		return nil
	}

	var entries []Entry
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			c.logger.WithError(err).Warn("Skipping malformed CSV record")
			continue
		}
		if constIdx >= len(record) || !strings.HasPrefix(record[constIdx], "tt") {
			continue
		}

		entry := Entry{
			IMDBId:    record[constIdx],
			Title:     record[constIdx],
			MediaType: models.MediaTypeMovie,
		}
		if titleIdx >= 0 && titleIdx < len(record) && record[titleIdx] != "" {
			entry.Title = record[titleIdx]
		}
		if yearIdx >= 0 && yearIdx < len(record) {
			if year, err := strconv.Atoi(strings.TrimSpace(record[yearIdx])); err == nil {
				entry.Year = year
			}
		}
		if typeIdx >= 0 && typeIdx < len(record) && strings.HasPrefix(record[typeIdx], "tv") {
			entry.MediaType = models.MediaTypeShow
		}

		entries = append(entries, entry)
	}

	return entries
}

func extractTitleID(s string) string {
	if matches := titleIDPattern.FindStringSubmatch(s); len(matches) > 1 {
		return matches[1]
	}
	return ""
}
