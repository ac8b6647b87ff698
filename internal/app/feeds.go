package app

import (
	"fmt"

	"PolicyDigest/internal/domain"
	"PolicyDigest/internal/infrastructure/sources"
	"PolicyDigest/internal/usecase"
)

func newsFeeds(c sources.Catalog) []usecase.NewsFeed {
	out := make([]usecase.NewsFeed, 0, len(c.News))
	for _, s := range c.News {
		out = append(out, usecase.NewsFeed{Name: s.Name, Adapter: s.Adapter})
	}
	return out
}

func committeePairs(c sources.Catalog) []usecase.CommitteePair {
	out := make([]usecase.CommitteePair, 0, len(c.House))
	for _, h := range c.House {
		out = append(out, usecase.CommitteePair{Name: h.Name, Majority: h.Majority, Minority: h.Minority})
	}
	return out
}

func committeeFeeds(c sources.Catalog) []usecase.CommitteeFeed {
	out := make([]usecase.CommitteeFeed, 0, len(c.Senate))
	for _, s := range c.Senate {
		out = append(out, usecase.CommitteeFeed{Name: s.Name, Adapter: s.Adapter})
	}
	return out
}

func domainStage(name string) (domain.Stage, error) {
	stage, err := domain.ParseStage(name)
	if err != nil {
		return "", err
	}
	if !stage.Fetches() {
		return "", fmt.Errorf("stage %s has no sources", stage)
	}
	return stage, nil
}
