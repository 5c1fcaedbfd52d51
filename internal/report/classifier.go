package report

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// IssueClassifier assigns issues to the hand or audio bucket by matching
// keywords against the issue title. The keyword set is versioned
// configuration, not code: changing it must not require touching the
// normalizer.
type IssueClassifier struct {
	Version      string   `yaml:"version"`
	HandKeywords []string `yaml:"handKeywords"`
}

// DefaultClassifier returns the built-in keyword set. It covers the hand,
// finger and detection-rate markers the analysis services emit in issue
// titles, in both Chinese and English.
func DefaultClassifier() *IssueClassifier {
	return &IssueClassifier{
		Version: "v1",
		HandKeywords: []string{
			"手", "指", "拇指", "大指", "手腕", "手型", "姿势", "检出",
			"hand", "finger", "thumb", "wrist", "posture", "detection rate",
		},
	}
}

// LoadClassifier reads a keyword configuration from a YAML file.
func LoadClassifier(path string) (*IssueClassifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read classifier config: %w", err)
	}

	var c IssueClassifier
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse classifier config: %w", err)
	}
	if len(c.HandKeywords) == 0 {
		return nil, fmt.Errorf("classifier config %s has no hand keywords", path)
	}

	return &c, nil
}

// IsHandIssue reports whether the issue belongs in the hand bucket. Issues
// without a title never match and stay in the audio bucket, which keeps them
// visible rather than dropped.
func (c *IssueClassifier) IsHandIssue(issue Issue) bool {
	title := strings.ToLower(issue.Title)
	if title == "" {
		return false
	}

	for _, kw := range c.HandKeywords {
		if strings.Contains(title, strings.ToLower(kw)) {
			return true
		}
	}

	return false
}
