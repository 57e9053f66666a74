package updater

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const GitHubRepo = "aeolun/parley"

// Release represents a GitHub release
type Release struct {
	TagName string `json:"tag_name"`
	Name    string `json:"name"`
}

var httpClient = &http.Client{Timeout: 5 * time.Second}

// CheckLatestVersion fetches the latest release tag from GitHub
func CheckLatestVersion() (string, error) {
	url := fmt.Sprintf("https://api.github.com/repos/%s/releases/latest", GitHubRepo)

	resp, err := httpClient.Get(url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch release info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", fmt.Errorf("failed to parse release info: %w", err)
	}

	return release.TagName, nil
}

// CompareVersions returns true if newVersion is newer than currentVersion
func CompareVersions(currentVersion, newVersion string) bool {
	// Simple string comparison (works for semantic versions like v1.2.3)
	current := strings.TrimPrefix(currentVersion, "v")
	next := strings.TrimPrefix(newVersion, "v")

	if current == "dev" {
		// Dev builds always report an update so testers notice releases
		return true
	}

	return next > current
}
