package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/google/go-github/v71/github"
)

var pullRequestURLPattern = regexp.MustCompile(`^https://github\.com/([^/]+)/([^/]+)/pull/(\d+)`)

// GitHubClient はPRのタイトル取得に使うGitHub APIクライアント
type GitHubClient struct {
	client *github.Client
	logger *slog.Logger
}

// NewGitHubClient は token があれば認証付きのクライアントを作る
func NewGitHubClient(token string, logger *slog.Logger) *GitHubClient {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	} else {
		logger.Info("GITHUB_TOKEN is not set, using unauthenticated github client")
	}
	return &GitHubClient{client: client, logger: logger}
}

// ParseRepoAndPRNumber はPRのURLからオーナー、リポジトリ名、PR番号を取り出す
func ParseRepoAndPRNumber(prURL string) (owner string, repo string, prNumber int, err error) {
	// https://github.com/owner/repo/pull/123 の形式を想定
	matches := pullRequestURLPattern.FindStringSubmatch(prURL)
	if len(matches) != 4 {
		return "", "", 0, fmt.Errorf("invalid PR URL format: %s", prURL)
	}

	prNumber, err = strconv.Atoi(matches[3])
	if err != nil {
		return "", "", 0, fmt.Errorf("failed to parse PR number: %w", err)
	}

	return matches[1], matches[2], prNumber, nil
}

// PRTitle はGitHubのPRのURLからタイトルを取得する
func (g *GitHubClient) PRTitle(ctx context.Context, prURL string) (string, error) {
	owner, repo, number, err := ParseRepoAndPRNumber(prURL)
	if err != nil {
		return "", err
	}

	pr, _, err := g.client.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return "", fmt.Errorf("failed to get pull request: %w", err)
	}

	g.logger.Debug("pull request title fetched", "owner", owner, "repo", repo, "number", number)
	return pr.GetTitle(), nil
}
