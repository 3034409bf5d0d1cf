package release

import "time"

// NightlyTag is the tag GitHub keeps pointing at the latest nightly build.
const NightlyTag = "nightly"

type Release struct {
	Name        string    `json:"name"`
	Tag         string    `json:"tag_name"`
	Prerelease  bool      `json:"prerelease"`
	PublishedAt time.Time `json:"published_at"`
}

func (r Release) IsNightly() bool {
	return r.Tag == NightlyTag
}

// Page is one page of the release listing. Next is the page to request
// after this one, or zero once the listing is exhausted.
type Page struct {
	Releases []Release
	Next     int
}

func (p Page) Done() bool {
	return len(p.Releases) == 0
}
