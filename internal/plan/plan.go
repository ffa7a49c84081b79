// Package plan loads the harvest plan: which technologies to cover and
// which repositories, discussion boards, and question tags feed each
// one. Plans are YAML files so operators can edit coverage without a
// rebuild.
package plan

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Technology describes one subject area and its sources.
type Technology struct {
	// Name is the canonical technology label, e.g. "kubernetes".
	Name string `yaml:"name"`

	// IssueRepos are owner/name repositories harvested for closed
	// issues.
	IssueRepos []string `yaml:"issue_repos"`

	// DiscussionRepos are owner/name repositories harvested for
	// answered discussions.
	DiscussionRepos []string `yaml:"discussion_repos"`

	// ReviewRepos are owner/name repositories harvested for merged
	// pull request review threads.
	ReviewRepos []string `yaml:"review_repos"`

	// Tags are question-site tags harvested for accepted answers.
	Tags []string `yaml:"tags"`
}

// Scenario is one synthesis template. The prompt asks the model for a
// batch of assistant responses to a situation in the given category.
type Scenario struct {
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	Prompt   string `yaml:"prompt"`
}

// Plan is the root of a harvest plan file.
type Plan struct {
	Technologies []Technology `yaml:"technologies"`
	Scenarios    []Scenario   `yaml:"scenarios"`
}

// Load reads and validates a plan file.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan: %w", err)
	}
	return Parse(data)
}

// Parse decodes plan YAML and validates it.
func Parse(data []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing plan: %w", err)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Plan) validate() error {
	if len(p.Technologies) == 0 {
		return fmt.Errorf("plan has no technologies")
	}
	seen := make(map[string]bool, len(p.Technologies))
	for i, t := range p.Technologies {
		if t.Name == "" {
			return fmt.Errorf("technology %d has no name", i)
		}
		if seen[t.Name] {
			return fmt.Errorf("duplicate technology %q", t.Name)
		}
		seen[t.Name] = true
	}
	for i, s := range p.Scenarios {
		if s.Name == "" || s.Prompt == "" {
			return fmt.Errorf("scenario %d needs a name and a prompt", i)
		}
	}
	return nil
}

// Technology returns the named entry, or nil.
func (p *Plan) Technology(name string) *Technology {
	for i := range p.Technologies {
		if p.Technologies[i].Name == name {
			return &p.Technologies[i]
		}
	}
	return nil
}

// TechNames returns technology names in plan order.
func (p *Plan) TechNames() []string {
	names := make([]string, len(p.Technologies))
	for i, t := range p.Technologies {
		names[i] = t.Name
	}
	return names
}

// Default returns the built-in plan used when no plan file is given.
func Default() *Plan {
	p, err := Parse([]byte(defaultPlanYAML))
	if err != nil {
		// The embedded plan is fixed at compile time.
		panic(fmt.Sprintf("built-in plan invalid: %v", err))
	}
	return p
}

const defaultPlanYAML = `
technologies:
  - name: kubernetes
    issue_repos:
      - kubernetes/kubernetes
      - kubernetes/ingress-nginx
    discussion_repos:
      - kubernetes/kubernetes
    review_repos:
      - kubernetes/kubernetes
    tags:
      - kubernetes
  - name: docker
    issue_repos:
      - moby/moby
      - docker/compose
    tags:
      - docker
      - docker-compose
  - name: terraform
    issue_repos:
      - hashicorp/terraform
    discussion_repos:
      - hashicorp/terraform
    tags:
      - terraform
  - name: ansible
    issue_repos:
      - ansible/ansible
    tags:
      - ansible
  - name: prometheus
    issue_repos:
      - prometheus/prometheus
    tags:
      - prometheus

scenarios:
  - name: incident-triage
    category: troubleshooting
    prompt: >
      You are helping an on-call engineer triage a production incident
      in {tech}. Produce {n} distinct realistic incident descriptions,
      each paired with a concise expert response that diagnoses the
      likely cause and gives concrete next steps.
  - name: config-review
    category: configuration
    prompt: >
      An engineer shares a {tech} configuration that is misbehaving.
      Produce {n} distinct realistic cases, each with an expert
      response pointing at the misconfiguration and the corrected
      settings.
  - name: upgrade-breakage
    category: troubleshooting
    prompt: >
      A team upgraded {tech} and something broke. Produce {n} distinct
      realistic breakage reports, each with an expert response naming
      the behaviour change behind it and how to adapt.
`
