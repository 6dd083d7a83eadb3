package classifier

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	base, _ := url.Parse("https://thebanmappingproject.com/tombs/kv-9")

	tests := []struct {
		name   string
		source Source
		want   string
	}{
		{
			name:   "plain src",
			source: Source{Src: "/sites/default/files/images/img1.jpg"},
			want:   "https://thebanmappingproject.com/sites/default/files/images/img1.jpg",
		},
		{
			name:   "image style derivative",
			source: Source{Src: "/sites/default/files/styles/medium/public/images/img1.jpg?itok=AbC123"},
			want:   "https://thebanmappingproject.com/sites/default/files/images/img1.jpg",
		},
		{
			name:   "wrapping link wins",
			source: Source{Src: "/thumbs/img1.jpg", SrcSets: []string{"/x/img1-800.jpg 800w"}, Link: "/full/img1_full.jpg"},
			want:   "https://thebanmappingproject.com/full/img1_full.jpg",
		},
		{
			name:   "link to a page is ignored",
			source: Source{Src: "/thumbs/img1.jpg", Link: "/node/123"},
			want:   "https://thebanmappingproject.com/thumbs/img1.jpg",
		},
		{
			name:   "largest srcset width",
			source: Source{Src: "/a-small.jpg", SrcSets: []string{"/a-480.jpg 480w, /a-1600.jpg 1600w, /a-960.jpg 960w"}},
			want:   "https://thebanmappingproject.com/a-1600.jpg",
		},
		{
			name:   "largest srcset density",
			source: Source{Src: "/a.jpg", SrcSets: []string{"/a-1x.jpg, /a-3x.jpg 3x, /a-2x.jpg 2x"}},
			want:   "https://thebanmappingproject.com/a-3x.jpg",
		},
		{
			name:   "other query kept",
			source: Source{Src: "https://cdn.example.com/p/img.png?v=2&itok=zz"},
			want:   "https://cdn.example.com/p/img.png?v=2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Resolve(base, tt.source)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveRejectsUnusableSources(t *testing.T) {
	base, _ := url.Parse("https://example.com/")

	_, ok := Resolve(base, Source{})
	assert.False(t, ok)

	_, ok = Resolve(base, Source{Src: "data:image/gif;base64,R0lGODlhAQABAAAAACw="})
	assert.False(t, ok)

	_, ok = Resolve(base, Source{Src: "javascript:void(0)"})
	assert.False(t, ok)
}

func TestIsDecorative(t *testing.T) {
	assert.True(t, isDecorative("/themes/tmp/logo.png"))
	assert.True(t, isDecorative("/img/compass-rose.jpg"))
	assert.True(t, isDecorative("/img/arrow.svg?v=1"))
	assert.True(t, isDecorative("", "nav-icon"))
	assert.False(t, isDecorative("/sites/default/files/kv9_hour3.jpg"))
}
