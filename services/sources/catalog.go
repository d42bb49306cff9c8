package sources

import "podforge/models"

// catalog is the static library of pre-selected background videos, keyed by
// speaker then library key. Read-only after startup.
type catalog map[models.Speaker]map[string]string

const assetBase = "https://storage.googleapis.com/podforge-assets"

func defaultCatalog() catalog {
	return catalog{
		models.SpeakerMan: {
			"studio":  assetBase + "/man_studio.mp4",
			"office":  assetBase + "/man_office.mp4",
			"outdoor": assetBase + "/man_outdoor.mp4",
		},
		models.SpeakerWoman: {
			"studio":  assetBase + "/woman_studio.mp4",
			"office":  assetBase + "/woman_office.mp4",
			"outdoor": assetBase + "/woman_outdoor.mp4",
		},
	}
}

// lookup returns the catalog URL for (speaker, key), or "" when unmatched.
func (c catalog) lookup(speaker models.Speaker, key string) string {
	if byKey, ok := c[speaker]; ok {
		return byKey[key]
	}
	return ""
}
