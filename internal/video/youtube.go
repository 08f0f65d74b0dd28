package video

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Info is the canonical identity of a video reference: the platform-native id
// plus an optional start offset in seconds.
type Info struct {
	ID    string
	Start *int
}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ExtractYouTubeInfo pulls a YouTube video id (and start offset, if any) out
// of an arbitrary URL. A bare 11-character id is accepted as-is. Returns
// ok=false when the input is not recognizable as a YouTube video.
func ExtractYouTubeInfo(input string) (Info, bool) {
	// If they passed an id directly, accept it.
	if idPattern.MatchString(input) {
		return Info{ID: input}, true
	}

	u, err := url.Parse(input)
	if err != nil || u.Host == "" {
		return Info{}, false // not a URL and not an id
	}

	// Some shares use an attribution link that embeds /watch?v=... inside
	// `u=...`, e.g. https://www.youtube.com/attribution_link?u=/watch%3Fv%3DID
	if uParam := u.Query().Get("u"); uParam != "" && !idPattern.MatchString(uParam) {
		if embedded, err := url.Parse(uParam); err == nil {
			base := &url.URL{Scheme: "https", Host: "youtube.com"}
			if inner, ok := ExtractYouTubeInfo(base.ResolveReference(embedded).String()); ok {
				if inner.Start == nil {
					inner.Start = startHint(u)
				}
				return inner, true
			}
		}
	}

	host := strings.ToLower(u.Hostname())
	start := startHint(u)

	// youtu.be/<id>
	if host == "youtu.be" {
		segs := pathSegments(u.Path)
		if len(segs) > 0 && idPattern.MatchString(segs[0]) {
			return Info{ID: segs[0], Start: start}, true
		}
		return Info{}, false
	}

	// *.youtube.com (www, m, music, etc.)
	if host == "youtube.com" || strings.HasSuffix(host, ".youtube.com") {
		// Standard watch URLs: ?v=<id>
		if v := u.Query().Get("v"); idPattern.MatchString(v) {
			return Info{ID: v, Start: start}, true
		}

		// Common path variants: /shorts/<id>, /embed/<id>, /v/<id>, /live/<id>
		segs := pathSegments(u.Path)
		if len(segs) >= 2 && idPattern.MatchString(segs[1]) {
			switch segs[0] {
			case "shorts", "embed", "v", "live":
				return Info{ID: segs[1], Start: start}, true
			}
		}
	}

	return Info{}, false
}

// startHint reads a start offset from ?t= / ?start= or from the #t= / #start=
// fragment form. Only unsigned integer seconds are accepted; first match wins.
func startHint(u *url.URL) *int {
	candidates := []string{u.Query().Get("t"), u.Query().Get("start")}
	if frag, err := url.ParseQuery(u.Fragment); err == nil {
		candidates = append(candidates, frag.Get("t"), frag.Get("start"))
	}

	for _, v := range candidates {
		if v == "" {
			continue
		}
		sec, err := strconv.ParseUint(v, 10, 31)
		if err != nil {
			continue
		}
		s := int(sec)
		return &s
	}
	return nil
}

func pathSegments(p string) []string {
	var segs []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}
