package ingest

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
)

// CollyScraper scrapes HTML listing pages into raw records using Colly.
type CollyScraper struct {
	UserAgent         string
	MaxRetries        int
	RequestTimeout    time.Duration
	DomainDelay       time.Duration
	RandomDelayFactor float64
	IgnoreRobotsTxt   bool
	MaxBodySize       int // bytes, 0 = unlimited
}

// NewCollyScraper creates a scraper from a FetchConfig.
func NewCollyScraper(cfg FetchConfig) *CollyScraper {
	s := &CollyScraper{
		UserAgent:         "funding-gateway/1.0 (+listing scraper)",
		MaxRetries:        2,
		RequestTimeout:    15 * time.Second,
		DomainDelay:       1 * time.Second,
		RandomDelayFactor: 0.5,
		MaxBodySize:       5 * 1024 * 1024,
	}
	if cfg.TimeoutSeconds > 0 {
		s.RequestTimeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if cfg.RateLimitRPS > 0 {
		s.DomainDelay = time.Duration(float64(time.Second) / cfg.RateLimitRPS)
	}
	if cfg.MaxRetries > 0 {
		s.MaxRetries = cfg.MaxRetries
	}
	return s
}

func (s *CollyScraper) buildCollector(ctx context.Context, host string) *colly.Collector {
	opts := []colly.CollectorOption{
		colly.UserAgent(s.UserAgent),
		colly.MaxBodySize(s.MaxBodySize),
		colly.AllowedDomains(host),
		colly.DetectCharset(),
		colly.StdlibContext(ctx),
	}
	if s.IgnoreRobotsTxt {
		opts = append(opts, colly.IgnoreRobotsTxt())
	}

	c := colly.NewCollector(opts...)
	c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       s.DomainDelay,
		RandomDelay: time.Duration(float64(s.DomainDelay) * s.RandomDelayFactor),
	})
	c.SetRequestTimeout(s.RequestTimeout)
	return c
}

// ScrapeListing visits a listing page and returns one record per item that
// has both a title and a link.
func (s *CollyScraper) ScrapeListing(ctx context.Context, l ListingConfig) ([]Record, error) {
	u, err := url.Parse(l.URL)
	if err != nil || u.Hostname() == "" {
		return nil, fmt.Errorf("invalid listing URL %q", l.URL)
	}
	if l.Selectors.Container == "" {
		return nil, fmt.Errorf("listing %s has no container selector", l.ID)
	}

	c := s.buildCollector(ctx, u.Hostname())

	var (
		mu        sync.Mutex
		records   []Record
		scrapeErr error
	)

	c.OnHTML(l.Selectors.Container, func(e *colly.HTMLElement) {
		title := strings.TrimSpace(e.Text)
		if l.Selectors.Title != "" {
			title = strings.TrimSpace(e.ChildText(l.Selectors.Title))
		}

		var link string
		if l.Selectors.Link != "" && l.Selectors.Link != "." {
			link = e.ChildAttr(l.Selectors.Link, "href")
		} else {
			link = e.Attr("href")
		}
		if link != "" && !strings.HasPrefix(link, "http") {
			link = e.Request.AbsoluteURL(link)
		}
		if title == "" || link == "" {
			return
		}

		rec := Record{
			"title":         cleanText(title),
			"source_url":    link,
			"source_plugin": l.ID,
		}
		if l.Selectors.Summary != "" {
			rec["summary"] = cleanText(e.ChildText(l.Selectors.Summary))
		}
		if l.Selectors.Amount != "" {
			rec["amount"] = cleanText(e.ChildText(l.Selectors.Amount))
		}
		if l.Selectors.Deadline != "" {
			rec["deadline"] = cleanText(e.ChildText(l.Selectors.Deadline))
		}
		if l.Country != "" {
			rec["country"] = l.Country
		}
		if l.FundingType != "" {
			rec["funding_type"] = l.FundingType
		}

		mu.Lock()
		records = append(records, rec)
		mu.Unlock()
	})

	c.OnError(func(r *colly.Response, err error) {
		retries, _ := r.Request.Ctx.GetAny("retries").(int)
		if retries < s.MaxRetries && ctx.Err() == nil {
			r.Request.Ctx.Put("retries", retries+1)
			log.Printf("[Colly] Retry %d/%d for %s: %v", retries+1, s.MaxRetries, r.Request.URL, err)
			if rerr := r.Request.Retry(); rerr == nil {
				return
			}
		}
		mu.Lock()
		scrapeErr = err
		mu.Unlock()
	})

	visitErr := c.Visit(l.URL)
	c.Wait()

	// a retried request can succeed after Visit already reported the first failure
	if len(records) > 0 {
		return records, nil
	}
	if visitErr != nil {
		return nil, fmt.Errorf("visit failed: %w", visitErr)
	}
	if scrapeErr != nil {
		return nil, fmt.Errorf("scrape %s: %w", l.ID, scrapeErr)
	}
	return records, nil
}
