package mediainfo

import "testing"

func TestParse(t *testing.T) {
	raw := `{
		"streams": [
			{"codec_type": "audio"},
			{"codec_type": "video", "width": 1280, "height": 720}
		],
		"format": {"duration": "125.4", "size": "1048576", "format_name": "mov,mp4,m4a"}
	}`
	info, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if info.Width != 1280 || info.Height != 720 {
		t.Fatalf("resolution %dx%d", info.Width, info.Height)
	}
	if info.Format != "mov" || info.Size != 1048576 {
		t.Fatalf("unexpected info %+v", info)
	}
	if info.Minutes() != 3 {
		t.Fatalf("minutes = %d, want 3", info.Minutes())
	}
}

func TestParseAudioOnly(t *testing.T) {
	raw := `{"streams": [{"codec_type": "audio"}], "format": {"duration": "10"}}`
	if _, err := Parse([]byte(raw)); err == nil {
		t.Fatalf("expected error for audio-only input")
	}
}

func TestPosterOffset(t *testing.T) {
	cases := []struct {
		duration float64
		want     float64
	}{
		{0, 3},
		{4, 2},
		{120, 3},
	}
	for _, c := range cases {
		v := &VideoInfo{Duration: c.duration}
		if got := v.PosterOffset(); got != c.want {
			t.Errorf("PosterOffset(%v) = %v, want %v", c.duration, got, c.want)
		}
	}
}
