package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeepPolicy(t *testing.T) {
	tests := []struct {
		value      string
		keepPassed bool
		keepFailed bool
	}{
		{value: "", keepPassed: false, keepFailed: false},
		{value: "on-failure", keepPassed: false, keepFailed: true},
		{value: "always", keepPassed: true, keepFailed: true},
	}

	for _, tt := range tests {
		t.Run("policy="+tt.value, func(t *testing.T) {
			p, err := ParseKeepPolicy(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.keepPassed, p.Keep(false))
			assert.Equal(t, tt.keepFailed, p.Keep(true))
		})
	}

	for _, bad := range []string{"never", "ON-FAILURE", "1", "true"} {
		_, err := ParseKeepPolicy(bad)
		assert.ErrorIs(t, err, ErrInvalidPolicy, bad)
	}
}

func TestParseViewport(t *testing.T) {
	tests := []struct {
		in      string
		want    Viewport
		wantErr bool
	}{
		{in: "1000x560", want: Viewport{Width: 1000, Height: 560}},
		{in: " 800X600 ", want: Viewport{Width: 800, Height: 600}},
		{in: "1000 x 560", want: Viewport{Width: 1000, Height: 560}},
		{in: "1000", wantErr: true},
		{in: "axb", wantErr: true},
		{in: "0x560", wantErr: true},
		{in: "1000x-1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseViewport(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, mustParse(t, got.String()))
		})
	}
}

func mustParse(t *testing.T, s string) Viewport {
	t.Helper()
	vp, err := ParseViewport(s)
	require.NoError(t, err)
	return vp
}

func TestCapabilitiesHas(t *testing.T) {
	caps := Capabilities{
		"nativeEvents":    true,
		"acceptSslCerts":  false,
		"browserName":     "firefox",
		"pageLoadTimeout": float64(0),
	}
	assert.True(t, caps.Has("nativeEvents"))
	assert.True(t, caps.Has("browserName"))
	assert.False(t, caps.Has("acceptSslCerts"))
	assert.False(t, caps.Has("pageLoadTimeout"))
	assert.False(t, caps.Has("missing"))
	assert.False(t, Capabilities(nil).Has("nativeEvents"))
}

func TestViewportFromScript(t *testing.T) {
	vp, err := viewportFromScript([]any{float64(1000), float64(560)})
	require.NoError(t, err)
	assert.Equal(t, Viewport{Width: 1000, Height: 560}, vp)

	_, err = viewportFromScript([]any{float64(1000)})
	assert.Error(t, err)
	_, err = viewportFromScript(map[string]any{"width": 1000})
	assert.Error(t, err)
	_, err = viewportFromScript([]any{"1000", "560"})
	assert.Error(t, err)
}
