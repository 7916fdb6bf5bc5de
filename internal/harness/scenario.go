package harness

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/folio/internal/reconcile"
	"github.com/roach88/folio/internal/templates"
)

// Scenario is one import conformance test.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	Description string `yaml:"description"`

	// RunID is the fixed import run id. Defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`

	// FallbackUser is the fallback user policy ("first" or "none").
	FallbackUser string `yaml:"fallback_user,omitempty"`

	// MediaBaseURL is the public prefix of uploaded attachments.
	MediaBaseURL string `yaml:"media_base_url,omitempty"`

	// Templates are applied before the first step.
	Templates []templates.Template `yaml:"templates,omitempty"`

	// Users are created, in order, before the first step.
	Users []string `yaml:"users,omitempty"`

	Steps []Step `yaml:"steps"`

	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step imports one snapshot document.
type Step struct {
	Import string  `yaml:"import"`
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect is the expected outcome of a step. A nil bucket is not checked.
type Expect struct {
	Rejected bool     `yaml:"rejected,omitempty"`
	Success  []string `yaml:"success,omitempty"`
	Error    []string `yaml:"error,omitempty"`
	Warning  []string `yaml:"warning,omitempty"`
}

// Assertion checks the store after the last step.
type Assertion struct {
	Type string `yaml:"type"`

	// Path selects a page (page, page_absent, content).
	Path string `yaml:"path,omitempty"`

	// Key selects a block (content).
	Key string `yaml:"key,omitempty"`

	// Slug selects a post (post).
	Slug string `yaml:"slug,omitempty"`

	// Name selects a menu (menu).
	Name string `yaml:"name,omitempty"`

	// Content is the expected block content as JSON (content).
	Content string `yaml:"content,omitempty"`

	// Expect maps snapshot field names to expected values. An empty value
	// expects the field to be absent.
	Expect map[string]string `yaml:"expect,omitempty"`

	// Items are the expected menu item texts, in order (menu).
	Items []string `yaml:"items,omitempty"`
}

// Assertion type constants.
const (
	AssertPage       = "page"
	AssertPageAbsent = "page_absent"
	AssertContent    = "content"
	AssertPost       = "post"
	AssertMenu       = "menu"
	AssertRoundTrip  = "round_trip"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes a scenario with strict field checking and
// validates it.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("failed to parse YAML: empty scenario")
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// Validate checks required fields and assertion shapes.
func (s *Scenario) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("name is required")
	}
	if len(s.Steps) == 0 {
		return errors.New("at least one step is required")
	}
	if _, err := reconcile.ParseFallbackPolicy(s.FallbackUser); err != nil {
		return err
	}
	if err := (&templates.Catalog{Templates: s.Templates}).Validate(); err != nil {
		return err
	}

	for i, step := range s.Steps {
		if strings.TrimSpace(step.Import) == "" {
			return fmt.Errorf("steps[%d]: import is required", i)
		}
		if e := step.Expect; e != nil && e.Rejected && (e.Success != nil || e.Error != nil || e.Warning != nil) {
			return fmt.Errorf("steps[%d]: a rejected step has no report to expect", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertPage, AssertPageAbsent:
		if a.Path == "" {
			return fmt.Errorf("%s requires path", a.Type)
		}
	case AssertContent:
		if a.Path == "" || a.Key == "" {
			return errors.New("content requires path and key")
		}
		if a.Content == "" {
			return errors.New("content requires content")
		}
	case AssertPost:
		if a.Slug == "" {
			return errors.New("post requires slug")
		}
	case AssertMenu:
		if a.Name == "" {
			return errors.New("menu requires name")
		}
	case AssertRoundTrip:
	case "":
		return errors.New("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
