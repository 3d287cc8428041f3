package graph

// Tag is a label attached to an address or a cluster.
type Tag struct {
	Entity      string `json:"entity"`
	Label       string `json:"tag"`
	Category    string `json:"category,omitempty"`
	Source      string `json:"source"`
	SourceURI   string `json:"sourceUri,omitempty"`
	TagURI      string `json:"tagUri,omitempty"`
	Description string `json:"description,omitempty"`
	Timestamp   int64  `json:"timestamp"`
}

// TagColumns is the select list shared by address_tags and cluster_tags; the
// entity column is aliased by the caller.
const TagColumns = `label, category, source, source_uri, tag_uri, description, lastmod`

type TagRow struct {
	Entity      string `ch:"entity"`
	Label       string `ch:"label"`
	Category    string `ch:"category"`
	Source      string `ch:"source"`
	SourceURI   string `ch:"source_uri"`
	TagURI      string `ch:"tag_uri"`
	Description string `ch:"description"`
	Lastmod     int64  `ch:"lastmod"`
}

func (r TagRow) ToTag() Tag {
	return Tag{
		Entity:      r.Entity,
		Label:       r.Label,
		Category:    r.Category,
		Source:      r.Source,
		SourceURI:   r.SourceURI,
		TagURI:      r.TagURI,
		Description: r.Description,
		Timestamp:   r.Lastmod,
	}
}

// HasCategory reports whether any tag carries category.
func HasCategory(tags []Tag, category string) bool {
	for _, t := range tags {
		if t.Category == category {
			return true
		}
	}
	return false
}
