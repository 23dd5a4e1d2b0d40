package acp

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type contentBlockFixture struct {
	Cases []struct {
		Name         string `yaml:"name"`
		Wire         string `yaml:"wire"`
		WantText     string `yaml:"wantText"`
		WantMimeType string `yaml:"wantMimeType"`
		WantURI      string `yaml:"wantURI"`
	} `yaml:"cases"`
}

// TestGoldenContentBlocks decodes each fixture's wire JSON, checks the
// expected field, then re-encodes and compares it as JSON (key order and
// whitespace ignored) against the fixture's own wire text — the fixture is both the decode
// expectation and the canonical encoding (spec §8 property 4, "schema
// round-trips losslessly").
func TestGoldenContentBlocks(t *testing.T) {
	raw, err := os.ReadFile("testdata/golden/content_blocks.yaml")
	require.NoError(t, err)

	var fixture contentBlockFixture
	require.NoError(t, yaml.Unmarshal(raw, &fixture))
	require.NotEmpty(t, fixture.Cases)

	for _, tc := range fixture.Cases {
		t.Run(tc.Name, func(t *testing.T) {
			var block ContentBlock
			require.NoError(t, json.Unmarshal([]byte(tc.Wire), &block))

			switch tc.Name {
			case "text":
				require.NotNil(t, block.Text)
				assert.Equal(t, tc.WantText, block.Text.Text)
			case "image":
				require.NotNil(t, block.Image)
				assert.Equal(t, tc.WantMimeType, block.Image.MimeType)
			case "resource_link":
				require.NotNil(t, block.ResourceLink)
				assert.Equal(t, tc.WantURI, block.ResourceLink.URI)
			}

			reencoded, err := json.Marshal(block)
			require.NoError(t, err)
			assert.JSONEq(t, tc.Wire, string(reencoded))
		})
	}
}
