package plugin

import (
	"fmt"
	"strconv"
	"strings"

	"wondoner-github/pkg/github"
)

// ParseSourceID parses an "owner/repo/number" source task ID into its
// repository reference and issue number
func ParseSourceID(sourceID string) (github.RepoRef, int, error) {
	trimmed := strings.Trim(sourceID, "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) != 3 {
		return github.RepoRef{}, 0, fmt.Errorf("invalid GitHub source ID %q: expected owner/repo/number", sourceID)
	}

	owner, name, numberStr := parts[0], parts[1], parts[2]
	number, err := strconv.Atoi(numberStr)
	if err != nil || owner == "" || name == "" || number <= 0 {
		return github.RepoRef{}, 0, fmt.Errorf("invalid GitHub source ID %q: expected owner/repo/number", sourceID)
	}

	return github.RepoRef{Owner: owner, Name: name}, number, nil
}

// SourceID builds the "owner/repo/number" source task ID for an issue
func SourceID(issue github.Issue) string {
	return fmt.Sprintf("%s/%d", issue.Repo, issue.Number)
}
