package main

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/hairizuanbinnoorazman/checkout-crawler/target"
	"github.com/hairizuanbinnoorazman/checkout-crawler/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrawlOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    crawlOptions
		wantErr error
		wantMsg string
	}{
		{
			name: "single website",
			opts: crawlOptions{Website: "tienda.example", Language: "spanish"},
		},
		{
			name: "list file",
			opts: crawlOptions{File: "sites.csv"},
		},
		{
			name:    "website and file",
			opts:    crawlOptions{Website: "tienda.example", File: "sites.csv", Language: "spanish"},
			wantErr: errWebsiteAndFile,
		},
		{
			name:    "website without language",
			opts:    crawlOptions{Website: "tienda.example"},
			wantErr: errWebsiteNoLanguage,
		},
		{
			name:    "file with language",
			opts:    crawlOptions{File: "sites.csv", Language: "dutch"},
			wantErr: errFileWithLanguage,
		},
		{
			name:    "no target",
			opts:    crawlOptions{Language: "dutch"},
			wantErr: errNoTarget,
		},
		{
			name:    "all with record",
			opts:    crawlOptions{Website: "tienda.example", Language: "spanish", All: true, Record: true},
			wantErr: errAllWithCapture,
		},
		{
			name:    "all with performance",
			opts:    crawlOptions{File: "sites.csv", All: true, Performance: true},
			wantErr: errAllWithCapture,
		},
		{
			name:    "unknown language",
			opts:    crawlOptions{Website: "tienda.example", Language: "klingon"},
			wantMsg: `invalid language "klingon"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			err := opts.validate()
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantMsg)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestCrawlOptions_AllExpands(t *testing.T) {
	opts := crawlOptions{Website: "tienda.example", Language: "spanish", All: true}
	require.NoError(t, opts.validate())

	assert.True(t, opts.Record)
	assert.True(t, opts.Conversations)
	assert.True(t, opts.Network)
	assert.True(t, opts.Performance)
}

func TestCrawlOptions_Targets(t *testing.T) {
	dir := t.TempDir()

	t.Run("single website", func(t *testing.T) {
		opts := crawlOptions{Website: " tienda.example ", Language: "spanish"}
		got, err := opts.targets()
		require.NoError(t, err)
		assert.Equal(t, []target.SiteTarget{{Website: "tienda.example", Language: "spanish"}}, got)
	})

	t.Run("list file keeps order and duplicates", func(t *testing.T) {
		path := testutil.WriteFile(t, dir, "sites.csv", "website;language\nwinkel.example;dutch\nladen.example ; german\nwinkel.example;dutch\n")
		opts := crawlOptions{File: path}
		got, err := opts.targets()
		require.NoError(t, err)
		assert.Equal(t, []target.SiteTarget{
			{Website: "winkel.example", Language: "dutch"},
			{Website: "laden.example", Language: "german"},
			{Website: "winkel.example", Language: "dutch"},
		}, got)
	})

	t.Run("missing file", func(t *testing.T) {
		opts := crawlOptions{File: filepath.Join(dir, "absent.csv")}
		_, err := opts.targets()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("row without language", func(t *testing.T) {
		path := testutil.WriteFile(t, dir, "broken.csv", "website;language\nwinkel.example;\n")
		opts := crawlOptions{File: path}
		_, err := opts.targets()
		assert.True(t, errors.Is(err, target.ErrMissingField), "got %v", err)
	})

	t.Run("row with unsupported language", func(t *testing.T) {
		path := testutil.WriteFile(t, dir, "klingon.csv", "website;language\nwinkel.example;klingon\n")
		opts := crawlOptions{File: path}
		_, err := opts.targets()
		assert.ErrorIs(t, err, target.ErrUnsupportedLanguage)
	})
}

func TestCrawlOptions_PipelineConfig(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	opts := crawlOptions{Website: "tienda.example", Language: "spanish", Record: true, Shopify: true}
	require.NoError(t, opts.validate())
	assert.Equal(t, "shopify", opts.variant())

	pc := opts.pipelineConfig(cfg, "data", "prompt")
	assert.True(t, pc.Record)
	assert.False(t, pc.CapturePerformance)
	assert.Equal(t, []string{"search_google"}, pc.ExcludeActions)
	assert.Equal(t, -1, pc.ViewportExpansion)
	assert.Equal(t, "prompt", pc.SystemPrompt)
	assert.True(t, pc.UseVision)
}
