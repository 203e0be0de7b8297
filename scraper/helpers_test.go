package scraper

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aluiziolira/go-scrape-channels/config"
	"github.com/jarcoal/httpmock"
)

const testSite = "http://example.test/"

func testConfig(total, pageSize int) *config.Config {
	cfg := config.DefaultConfig()
	cfg.SiteURL = testSite
	cfg.APIBase = "http://example.test/api/tables/channeltables/getchannels"
	cfg.TotalEntries = total
	cfg.PageSize = pageSize
	cfg.Delay = 0
	cfg.RandomDelay = 0
	cfg.Timeout = 5 * time.Second
	return cfg
}

func buildPage(start, n int) string {
	var b strings.Builder
	b.WriteString(`{"draw":1,"recordsTotal":5000,"data":[`)
	for i := 0; i < n; i++ {
		id := start + i
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"rank":%d,"logo":"https://cdn.example.test/%d.png","displayname":"channel-%d","twitchurl":"https://twitch.tv/channel-%d","followers":%d}`,
			id+1, id, id, id, id*10)
	}
	b.WriteString("]}")
	return b.String()
}

func jsonResponder(body string) httpmock.Responder {
	return func(req *http.Request) (*http.Response, error) {
		resp := httpmock.NewStringResponse(http.StatusOK, body)
		resp.Header.Set("Content-Type", "application/json")
		return resp, nil
	}
}

// callLog records request paths in arrival order.
type callLog struct {
	mu    sync.Mutex
	paths []string
}

func (c *callLog) wrap(next httpmock.Responder) httpmock.Responder {
	return func(req *http.Request) (*http.Response, error) {
		c.mu.Lock()
		c.paths = append(c.paths, req.URL.Path)
		c.mu.Unlock()
		return next(req)
	}
}

func (c *callLog) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.paths))
	copy(out, c.paths)
	return out
}
