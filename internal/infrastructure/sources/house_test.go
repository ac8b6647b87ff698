package sources

import (
	"context"
	"testing"
	"time"
)

func TestBrowserTableSkipsHeaderRows(t *testing.T) {
	t.Parallel()

	server := routes(t, map[string]string{"/news/press-releases/table": `
	<table id="browser_table">
	  <tr><th>Date</th><th>Title</th></tr>
	  <tr><td class="date"><time datetime="2024-03-02">3/2/24</time></td><td><a href="/news/1">Budget hearing recap</a></td></tr>
	  <tr><td class="date"><time datetime="2024-02-01">2/1/24</time></td><td><a href="/news/2">Older release</a></td></tr>
	  <tr><td class="date"></td><td><a href="/news/3">No date</a></td></tr>
	</table>`})
	adapter := budgetMajority(newTestFetcher(server), server.URL)

	res, err := adapter.Fetch(context.Background(), cutoff("2024-03-01"))
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].Title != "Budget hearing recap" {
		t.Fatalf("unexpected items %+v", res.Items)
	}
	if res.Skipped != 1 {
		t.Fatalf("expected only the undated row skipped, got %d", res.Skipped)
	}
	if res.BaseURL != server.URL+"/news/press-releases/table" {
		t.Fatalf("unexpected base url %s", res.BaseURL)
	}
	if adapter.Name() != "house/budget/majority" {
		t.Fatalf("unexpected name %s", adapter.Name())
	}
}

func TestEvoListing(t *testing.T) {
	t.Parallel()

	server := routes(t, map[string]string{"/news/press-releases": `
	<div class="views-row">
	  <div class="h3"><a href="/news/press-releases/x">Chair statement on Medicaid</a></div>
	  <div class="row"><div class="col-auto">March 3, 2024</div></div>
	</div>`})
	adapter := appropriationsMajority(newTestFetcher(server), server.URL)

	res, err := adapter.Fetch(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].Date != "2024-03-03" || res.Items[0].URL != server.URL+"/news/press-releases/x" {
		t.Fatalf("unexpected items %+v", res.Items)
	}
}

func TestJointEconomicMinorityDateSpans(t *testing.T) {
	t.Parallel()

	server := routes(t, map[string]string{"/public/index.cfm/democrats/media": `
	<article class="clearfix">
	  <span class="date"><span class="month">Mar</span><span class="day">4</span><span class="year">2024</span></span>
	  <h1 class="title"><a href="/public/index.cfm/democrats/2024/3/jobs">Jobs report</a></h1>
	</article>`})
	adapter := jointEconomicMinority(newTestFetcher(server), server.URL)

	res, err := adapter.Fetch(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].Date != "2024-03-04" {
		t.Fatalf("unexpected items %+v", res.Items)
	}
}

func TestNaturalResourcesMinoritySiblingTitle(t *testing.T) {
	t.Parallel()

	server := routes(t, map[string]string{"/media/press-releases": `
	<div id="press">
	  <span class="date black">03.01.24</span>
	  <h2 class="title"><a href="/media/press-releases/a">Public lands bill</a></h2>
	  <span class="date black">02.01.24</span>
	  <h2 class="title"><a href="/media/press-releases/b">Older lands bill</a></h2>
	</div>`})
	adapter := naturalResourcesMinority(newTestFetcher(server), server.URL)

	res, err := adapter.Fetch(context.Background(), cutoff("2024-02-15"))
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].Title != "Public lands bill" {
		t.Fatalf("unexpected items %+v", res.Items)
	}
}

func TestWaysMeansMinorityDateAfterTitleBlock(t *testing.T) {
	t.Parallel()

	server := routes(t, map[string]string{"/media-center": `
	<div class="views-row"><div class="media-body">
	  <div class="h3"><a href="/media-center/press-releases/tax">Tax credit expansion</a></div>
	  <div>March 1, 2024</div>
	</div></div>`})
	adapter := waysMeansMinority(newTestFetcher(server), server.URL)

	res, err := adapter.Fetch(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].Date != "2024-03-01" {
		t.Fatalf("unexpected items %+v", res.Items)
	}
}

func TestHouseSiteFailureIsError(t *testing.T) {
	t.Parallel()

	server := routes(t, map[string]string{})
	if _, err := rulesMajority(newTestFetcher(server), server.URL).Fetch(context.Background(), time.Time{}); err == nil {
		t.Fatalf("expected error for unavailable site")
	}
}
