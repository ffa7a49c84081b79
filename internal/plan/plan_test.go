package plan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	p, err := Parse([]byte(`
technologies:
  - name: kubernetes
    issue_repos: [kubernetes/kubernetes]
    tags: [kubernetes]
  - name: docker
    issue_repos: [moby/moby]
scenarios:
  - name: triage
    category: troubleshooting
    prompt: "generate {n} cases for {tech}"
`))
	require.NoError(t, err)
	require.Len(t, p.Technologies, 2)
	assert.Equal(t, []string{"kubernetes", "docker"}, p.TechNames())
	assert.Equal(t, []string{"kubernetes/kubernetes"}, p.Technology("kubernetes").IssueRepos)
	assert.Nil(t, p.Technology("nope"))
	require.Len(t, p.Scenarios, 1)
	assert.Equal(t, "troubleshooting", p.Scenarios[0].Category)
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"empty":          `technologies: []`,
		"unnamed tech":   "technologies:\n  - issue_repos: [a/b]",
		"duplicate tech": "technologies:\n  - name: k8s\n  - name: k8s",
		"bad scenario":   "technologies:\n  - name: k8s\nscenarios:\n  - category: x",
		"not yaml":       `{{{`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(in))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("technologies:\n  - name: docker\n"), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "docker", p.Technologies[0].Name)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultPlanIsValid(t *testing.T) {
	p := Default()
	require.NotEmpty(t, p.Technologies)
	require.NotEmpty(t, p.Scenarios)
	assert.NotNil(t, p.Technology("kubernetes"))
	for _, s := range p.Scenarios {
		assert.Contains(t, s.Prompt, "{tech}")
		assert.Contains(t, s.Prompt, "{n}")
	}
}
