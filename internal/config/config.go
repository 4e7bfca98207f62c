package config

import (
	"errors"
	"fmt"
	"io/ioutil"
	"path"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

const (
	DefaultPathGlob  = "**/*.*"
	DefaultEntryHTML = "index.html"
)

type DeployerConfig struct {
	Environments map[string]Environment `yaml:"environments"`
	Options      Options                `yaml:"options"`
	Slack        *SlackConfig           `yaml:"slack"`
}

// Environment holds the object store connection parameters for one deploy target.
type Environment struct {
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	Endpoint        string `yaml:"endpoint"`
	Insecure        bool   `yaml:"insecure"`
	AccessKeyID     string `yaml:"access-key-id"`
	SecretAccessKey string `yaml:"secret-access-key"`
	DistributionID  string `yaml:"distribution-id"`
}

func (e Environment) Validate() error {
	if e.Region == "" || e.Bucket == "" {
		return errors.New("region and bucket are required")
	}
	if (e.AccessKeyID == "") != (e.SecretAccessKey == "") {
		return errors.New("access-key-id and secret-access-key must be set together")
	}
	return nil
}

// HasStaticCredentials reports whether the environment carries its own keys.
func (e Environment) HasStaticCredentials() bool {
	return e.AccessKeyID != "" && e.SecretAccessKey != ""
}

// Options tune the pipeline. Zero values are replaced by Default() before the
// operator's file is decoded on top, so every key is optional.
type Options struct {
	BuildPath          string       `yaml:"build-path"`
	PathGlob           string       `yaml:"path-glob"`
	EntryHTML          string       `yaml:"entry-html"`
	InvalidateEntry    bool         `yaml:"invalidate-entry"`
	GenerateDeployFile bool         `yaml:"generate-deploy-file"`
	Versioning         Versioning   `yaml:"versioning"`
	Robots             []RobotsRule `yaml:"robots"`
	Concurrency        int          `yaml:"concurrency"`
	// IncludeDotfiles uploads files and directories whose name starts with a dot.
	IncludeDotfiles bool `yaml:"include-dotfiles"`
}

type RobotsRule struct {
	UserAgent   string   `yaml:"user-agent"`
	IgnorePaths []string `yaml:"ignore-paths"`
}

type SlackConfig struct {
	Webhook  string               `yaml:"webhook"`
	Channels StringList           `yaml:"channels"`
	AppTitle string               `yaml:"app-title"`
	AppLink  string               `yaml:"app-link"`
	Payload  *NotificationPayload `yaml:"payload"`
}

type NotificationPayload struct {
	Channel     string       `yaml:"channel"`
	Text        string       `yaml:"text"`
	Username    string       `yaml:"username"`
	IconEmoji   string       `yaml:"icon-emoji"`
	Attachments []Attachment `yaml:"attachments"`
}

type Attachment struct {
	Fallback  string            `yaml:"fallback"`
	Color     string            `yaml:"color"`
	Title     string            `yaml:"title"`
	TitleLink string            `yaml:"title-link"`
	Text      string            `yaml:"text"`
	Fields    []AttachmentField `yaml:"fields"`
}

type AttachmentField struct {
	Title string `yaml:"title"`
	Value string `yaml:"value"`
	Short bool   `yaml:"short"`
}

// Clone returns a deep copy so per-channel edits never leak into the template.
func (p NotificationPayload) Clone() NotificationPayload {
	out := p
	if p.Attachments != nil {
		out.Attachments = make([]Attachment, len(p.Attachments))
		for i, a := range p.Attachments {
			out.Attachments[i] = a
			if a.Fields != nil {
				out.Attachments[i].Fields = append([]AttachmentField(nil), a.Fields...)
			}
		}
	}
	return out
}

// Default returns the configuration every loaded file is layered on.
func Default() DeployerConfig {
	return DeployerConfig{
		Options: Options{
			PathGlob:           DefaultPathGlob,
			EntryHTML:          DefaultEntryHTML,
			InvalidateEntry:    true,
			GenerateDeployFile: true,
			Versioning: Versioning{
				Enabled:   true,
				Timestamp: true,
				GitHash:   true,
			},
			Robots: []RobotsRule{
				{UserAgent: "*", IgnorePaths: []string{"deploy.txt"}},
			},
		},
	}
}

// EnvironmentNames returns the configured environment names in stable order.
func (c *DeployerConfig) EnvironmentNames() []string {
	names := make([]string, 0, len(c.Environments))
	for name := range c.Environments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Parse(data []byte) (cfg *DeployerConfig, err error) {
	config := Default()
	if err = yaml.Unmarshal(data, &config); err != nil {
		err = fmt.Errorf("failed to parse config: %w", err)
		return
	}

	if config.Options.PathGlob == "" {
		config.Options.PathGlob = DefaultPathGlob
	}
	config.Options.EntryHTML = strings.TrimPrefix(path.Clean("/"+config.Options.EntryHTML), "/")
	if config.Options.EntryHTML == "" {
		config.Options.EntryHTML = DefaultEntryHTML
	}
	if config.Options.Concurrency < 0 {
		err = fmt.Errorf("concurrency must not be negative, got %d", config.Options.Concurrency)
		return
	}

	cfg = &config
	return
}

func Load(configFile string) (cfg *DeployerConfig, err error) {
	start := time.Now()
	var data []byte
	if data, err = ioutil.ReadFile(configFile); err != nil {
		return
	}

	if cfg, err = Parse(data); err != nil {
		return
	}

	end := time.Since(start)
	zap.L().Info("configuration loaded", zap.Duration("in", end), zap.String("from", configFile), zap.Int("environments", len(cfg.Environments)))

	return
}
