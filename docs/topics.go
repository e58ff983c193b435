// Package docs embeds the pnl user manual, one markdown file per topic.
//
// readme.md is the entry point, it lists every topic as a "* name: description" line.
package docs

import (
	"bufio"
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"slices"
	"strings"
)

//go:embed *.md
var docs embed.FS

// Topic is a documentation topic listed in the readme.
type Topic struct {
	Name        string
	Description string
}

var topicLine = regexp.MustCompile(`^\*\s+([^:]+):\s*(.*)$`)

// Topics returns the topics listed in the readme, in their order.
func Topics() ([]Topic, error) {
	f, err := docs.Open("readme.md")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var topics []Topic
	s := bufio.NewScanner(f)
	for s.Scan() {
		if m := topicLine.FindStringSubmatch(s.Text()); m != nil {
			topics = append(topics, Topic{Name: strings.TrimSpace(m[1]), Description: m[2]})
		}
	}
	return topics, s.Err()
}

// GetAllTopics returns the name of every embedded topic, sorted.
func GetAllTopics() ([]string, error) {
	files, err := fs.Glob(docs, "*.md")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, f := range files {
		if name := strings.TrimSuffix(f, ".md"); name != "readme" {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// GetTopic returns the markdown of a topic, "*" returns every topic.
func GetTopic(topic string) (string, error) {
	if topic == "*" {
		return GetTopics(topic)
	}
	content, err := docs.ReadFile(topic + ".md")
	if err != nil {
		return "", fmt.Errorf("topic %q not found: %w", topic, err)
	}
	return string(content), nil
}

// GetTopics returns the markdown of topics concatenated, "*" stands for every topic.
func GetTopics(topics ...string) (string, error) {
	var names []string
	for _, t := range topics {
		if t != "*" {
			names = append(names, t)
			continue
		}
		all, err := GetAllTopics()
		if err != nil {
			return "", err
		}
		names = append(names, all...)
	}

	var b strings.Builder
	for _, name := range names {
		content, err := GetTopic(name)
		if err != nil {
			return "", err
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	return b.String(), nil
}
