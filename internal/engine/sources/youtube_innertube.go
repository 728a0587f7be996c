package sources

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"regexp"
	"strings"

	"github.com/anatolykoptev/go_study/internal/engine"
	"golang.org/x/net/html"
)

// YouTube player/caption payload shapes and the low-level parsers for them.

// ytInitialPlayerResponseMarker marks the start of the player response JSON in watch page HTML.
const ytInitialPlayerResponseMarker = "ytInitialPlayerResponse = "

// captionTracksKey precedes the raw caption track array in watch page HTML.
const captionTracksKey = `"captionTracks":`

// englishLangs is the caption language preference order.
var englishLangs = []string{"en", "en-US", "en-GB"}

type innertubePlayerResp struct {
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" = auto-generated
}

// --- Timedtext XML (srv1 / default format) ---

type ytTimedText struct {
	Lines []ytLine `xml:"text"`
}

type ytLine struct {
	Text string `xml:",chardata"`
}

// --- Timedtext json3 ---

type ytJSON3 struct {
	Events []struct {
		Segs []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

// captionTextRe is the lenient fallback for caption XML that does not parse.
var captionTextRe = regexp.MustCompile(`<text[^>]*>([^<]+)</text>`)

// extractJSON returns the balanced JSON object or array at the start of b.
func extractJSON(b []byte) []byte {
	if len(b) == 0 || (b[0] != '{' && b[0] != '[') {
		return nil
	}
	depth := 0
	inStr := false
	escaped := false
	for i, c := range b {
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return b[:i+1]
			}
		}
	}
	return nil
}

// needsPoToken reports whether a caption track URL requires a PoToken (browser-only).
// Tracks with &exp=xpe cannot be fetched server-side.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// pickBestTrack selects an English caption track: manual before auto-generated,
// preferred language codes before any other en-* code. PoToken tracks are skipped.
func pickBestTrack(tracks []captionTrack, langs []string) (captionTrack, bool) {
	usable := make([]captionTrack, 0, len(tracks))
	for _, t := range tracks {
		if t.BaseURL != "" && !needsPoToken(t.BaseURL) {
			usable = append(usable, t)
		}
	}
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang && t.Kind != "asr" {
				return t, true
			}
		}
	}
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang {
				return t, true
			}
		}
	}
	for _, t := range usable {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t, true
		}
	}
	return captionTrack{}, false
}

// tracksFromPlayerJSON decodes a ytInitialPlayerResponse object.
func tracksFromPlayerJSON(data []byte) ([]captionTrack, error) {
	var playerResp innertubePlayerResp
	if err := json.Unmarshal(data, &playerResp); err != nil {
		return nil, err
	}
	if playerResp.Captions == nil {
		if playerResp.PlayabilityStatus != nil && playerResp.PlayabilityStatus.Reason != "" {
			return nil, errors.New("captions unavailable: " + playerResp.PlayabilityStatus.Reason)
		}
		return nil, errors.New("no captions in player response")
	}
	return playerResp.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks, nil
}

// tracksFromRawHTML finds the caption track array anywhere in the page body.
func tracksFromRawHTML(body []byte) ([]captionTrack, error) {
	idx := bytes.Index(body, []byte(captionTracksKey))
	if idx < 0 {
		return nil, errors.New("captionTracks not found")
	}
	rest := bytes.TrimLeft(body[idx+len(captionTracksKey):], " \t\r\n")
	raw := extractJSON(rest)
	if raw == nil {
		return nil, errors.New("captionTracks array not terminated")
	}
	var tracks []captionTrack
	if err := json.Unmarshal(raw, &tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

// parseCaptionXML joins the <text> nodes of a timedtext document.
// Entities are decoded twice since YouTube escapes caption text inside XML.
func parseCaptionXML(body []byte) string {
	var lines []string
	var tt ytTimedText
	if err := xml.Unmarshal(body, &tt); err == nil {
		for _, l := range tt.Lines {
			lines = append(lines, l.Text)
		}
	} else {
		for _, m := range captionTextRe.FindAllSubmatch(body, -1) {
			lines = append(lines, string(m[1]))
		}
	}

	var sb strings.Builder
	for _, l := range lines {
		text := engine.CleanHTML(html.UnescapeString(html.UnescapeString(l)))
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(text)
	}
	return engine.CollapseSpaces(sb.String())
}

// parseJSON3 joins the segments of a timedtext json3 document.
func parseJSON3(body []byte) (string, error) {
	var doc ytJSON3
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", err
	}
	parts := make([]string, 0, len(doc.Events))
	for _, ev := range doc.Events {
		if len(ev.Segs) == 0 {
			continue
		}
		var sb strings.Builder
		for _, s := range ev.Segs {
			sb.WriteString(s.UTF8)
		}
		parts = append(parts, sb.String())
	}
	return engine.CollapseSpaces(strings.Join(parts, " ")), nil
}
