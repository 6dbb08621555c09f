package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Channel describes one notification sink in the channels file. Type selects
// the handler; the remaining fields apply only where relevant.
type Channel struct {
	Type string `yaml:"type"`
	Path string `yaml:"path,omitempty"` // file
	URL  string `yaml:"url,omitempty"`  // webhook, amqp
	To   string `yaml:"to,omitempty"`   // email
}

// channelsFile is the top-level document shape
type channelsFile struct {
	Channels []Channel `yaml:"channels"`
}

var validChannelTypes = map[string]bool{
	"console": true,
	"file":    true,
	"webhook": true,
	"email":   true,
	"amqp":    true,
}

// LoadChannels reads the notification channels YAML file. An empty path
// returns the default: a single console channel.
func LoadChannels(path string) ([]Channel, error) {
	if path == "" {
		return []Channel{{Type: "console"}}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read channels file: %w", err)
	}

	var doc channelsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse channels file: %w", err)
	}

	for i, ch := range doc.Channels {
		if !validChannelTypes[ch.Type] {
			return nil, fmt.Errorf("channels[%d]: unknown channel type %q", i, ch.Type)
		}
		switch ch.Type {
		case "webhook":
			if ch.URL == "" {
				return nil, fmt.Errorf("channels[%d]: webhook channel requires url", i)
			}
		case "file":
			if ch.Path == "" {
				return nil, fmt.Errorf("channels[%d]: file channel requires path", i)
			}
		}
	}

	if len(doc.Channels) == 0 {
		return []Channel{{Type: "console"}}, nil
	}

	return doc.Channels, nil
}
